package crpt

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"crpt-gateway/crpt/application"
	"crpt-gateway/crpt/domain"
)

type IngressOptions struct {
	Store              domain.ClientLimiterStore
	KeyFn              KeyFunc
	KeyHeader          string
	TrustXForwardedFor bool
	// RetryAfter mínimo anunciado numa rejeição. Default: 1s.
	RetryAfter time.Duration
	// AddHeaders adiciona X-RateLimit-Key/-RPS/-Burst às respostas.
	AddHeaders bool
	Logger     *slog.Logger
}

type bucketInfo interface {
	RPS() float64
	Burst() int
}

// Ingress limita requisições por cliente antes de chegarem ao limitador de
// saída, para que um único cliente não ocupe a fila inteira da janela.
// Rejeita com 429 e Retry-After.
func Ingress(opts IngressOptions) func(next http.Handler) http.Handler {
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = 1 * time.Second
	}
	if opts.KeyFn == nil {
		opts.KeyFn = ClientKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	svc := application.IngressService{
		Store:      opts.Store,
		RetryAfter: opts.RetryAfter,
	}
	info, hasInfo := opts.Store.(bucketInfo)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)

			if opts.AddHeaders {
				w.Header().Set("X-RateLimit-Key", key)
				if hasInfo {
					w.Header().Set("X-RateLimit-RPS", formatFloat(info.RPS()))
					w.Header().Set("X-RateLimit-Burst", strconv.Itoa(info.Burst()))
				}
			}

			dec := svc.Decide(domain.ClientKey(key))
			if !dec.Allowed {
				opts.Logger.Debug("ingress rejected", "client", key, "path", r.URL.Path, "retry_after", dec.RetryAfter)
				w.Header().Set("Retry-After", retryAfterSeconds(dec.RetryAfter))
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
