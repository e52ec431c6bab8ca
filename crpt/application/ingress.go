package application

import (
	"time"

	"crpt-gateway/crpt/domain"
)

// IngressService concentra a regra de admissão na entrada HTTP.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type IngressService struct {
	Store      domain.ClientLimiterStore
	RetryAfter time.Duration
}

// retryEstimator é implementado por stores que sabem calcular a espera
// até o próximo token (ex.: infra.ClientStore).
type retryEstimator interface {
	RetryAfter(domain.ClientKey) time.Duration
}

func (s IngressService) Decide(key domain.ClientKey) domain.Decision {
	if s.Store == nil {
		return domain.Decision{Allowed: true}
	}
	lim := s.Store.Get(key)
	if lim == nil || lim.Allow() {
		return domain.Decision{Allowed: true}
	}

	retry := s.RetryAfter
	if est, ok := s.Store.(retryEstimator); ok {
		if d := est.RetryAfter(key); d > retry {
			retry = d
		}
	}
	if retry <= 0 {
		retry = 1 * time.Second
	}
	return domain.Decision{Allowed: false, RetryAfter: retry}
}
