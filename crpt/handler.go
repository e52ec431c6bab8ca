package crpt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"crpt-gateway/crpt/domain"
	"crpt-gateway/crpt/infra"
)

const maxDocumentBody = 4 << 20

// Submitter é o que o handler precisa do application.Gateway.
type Submitter interface {
	Submit(ctx context.Context, doc domain.Document, signature string) ([]byte, error)
	TrySubmit(ctx context.Context, doc domain.Document, signature string) ([]byte, error)
}

// LimiterState expõe o estado do limitador para o /healthz.
type LimiterState interface {
	Available() int
	Waiting() int
}

type Handler struct {
	gateway Submitter
	limiter LimiterState
	// retryAfter anunciado quando não há vaga (normalmente a janela).
	retryAfter time.Duration
	logger     *slog.Logger
}

func NewHandler(gateway Submitter, limiter LimiterState, retryAfter time.Duration, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{gateway: gateway, limiter: limiter, retryAfter: retryAfter, logger: logger}
}

// SubmitDocument trata POST /api/v1/documents.
//
// Por padrão espera vaga na janela; com ?wait=false falha na hora com 429.
func (h *Handler) SubmitDocument(w http.ResponseWriter, r *http.Request) {
	signature := r.Header.Get(infra.SignatureHeader)
	if signature == "" {
		writeError(w, http.StatusBadRequest, "missing "+infra.SignatureHeader+" header")
		return
	}

	var doc domain.Document
	dec := json.NewDecoder(io.LimitReader(r.Body, maxDocumentBody))
	if err := dec.Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid document: "+err.Error())
		return
	}

	wait := true
	if v := r.URL.Query().Get("wait"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid wait parameter")
			return
		}
		wait = b
	}

	var (
		body []byte
		err  error
	)
	if wait {
		body, err = h.gateway.Submit(r.Context(), doc, signature)
	} else {
		body, err = h.gateway.TrySubmit(r.Context(), doc, signature)
	}
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// Health trata GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		Status    string `json:"status"`
		Available int    `json:"available"`
		Waiting   int    `json:"waiting"`
	}{Status: "ok"}
	if h.limiter != nil {
		resp.Available = h.limiter.Available()
		resp.Waiting = h.limiter.Waiting()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeSubmitError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		if h.retryAfter > 0 {
			w.Header().Set("Retry-After", retryAfterSeconds(h.retryAfter))
		}
	case http.StatusInternalServerError:
		h.logger.Error("submit document", "error", err)
	}

	resp := errorResponse{Error: err.Error()}
	var se *infra.StatusError
	if errors.As(err, &se) {
		resp.UpstreamStatus = se.StatusCode
	}
	writeJSON(w, status, resp)
}

// statusFor traduz o erro do gateway para status HTTP.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case domain.IsTimeout(err), domain.IsUnavailable(err):
		return http.StatusServiceUnavailable
	case domain.IsSubmissionFailed(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
