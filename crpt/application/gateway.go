package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"crpt-gateway/crpt/domain"

	"github.com/google/uuid"
)

// Gateway serializa o documento, espera uma vaga no limitador e entrega o
// payload ao transporte.
//
// Não há retry nem devolução de vaga: uma chamada remota que falhou conta
// contra a cota do mesmo jeito, porque o limitador governa tentativas que
// atravessam a fronteira. Também não há fila própria: quem espera é a
// goroutine de quem chamou, dentro do Acquire.
type Gateway struct {
	limiter        domain.Limiter
	transport      domain.Transport
	stats          domain.StatsStore
	logger         *slog.Logger
	acquireTimeout time.Duration
	newID          func() string
	now            func() time.Time
}

type GatewayOption func(*Gateway)

func WithStats(s domain.StatsStore) GatewayOption {
	return func(g *Gateway) { g.stats = s }
}

func WithLogger(l *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithAcquireTimeout limita a espera por vaga.
// - Se `d <= 0`, espera indefinidamente (até o ctx de quem chamou encerrar).
// - Se `d > 0`, falha com domain.ErrAcquireTimedOut ao estourar o prazo.
func WithAcquireTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.acquireTimeout = d }
}

func NewGateway(limiter domain.Limiter, transport domain.Transport, opts ...GatewayOption) (*Gateway, error) {
	if limiter == nil {
		return nil, errors.New("limiter is required")
	}
	if transport == nil {
		return nil, errors.New("transport is required")
	}
	g := &Gateway{
		limiter:   limiter,
		transport: transport,
		logger:    slog.New(slog.DiscardHandler),
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Submit bloqueia até haver vaga e envia o documento com a assinatura.
// Devolve o corpo da resposta remota em caso de sucesso.
func (g *Gateway) Submit(ctx context.Context, doc domain.Document, signature string) ([]byte, error) {
	return g.SubmitRequest(ctx, domain.SubmissionRequest{Document: doc, Signature: signature})
}

func (g *Gateway) SubmitRequest(ctx context.Context, req domain.SubmissionRequest) ([]byte, error) {
	// serializa antes de pegar a vaga: documento inválido não gasta cota
	payload, err := json.Marshal(req.Document)
	if err != nil {
		return nil, fmt.Errorf("encode document %q: %w", req.Document.DocID, err)
	}

	ev := g.newEvent(req)
	start := g.now()
	err = g.acquire(ctx)
	ev.Waited = g.now().Sub(start)
	if err != nil {
		if domain.IsTimeout(err) {
			ev.Outcome = domain.OutcomeTimedOut
		} else {
			ev.Outcome = domain.OutcomeUnavailable
			err = fmt.Errorf("%w: %w", domain.ErrRateLimitUnavailable, err)
		}
		g.record(ctx, ev, err)
		return nil, err
	}

	return g.post(ctx, ev, payload, req)
}

// TrySubmit é a variante sem espera: se não houver vaga agora, falha com
// domain.ErrRateLimitExceeded sem tocar na rede.
func (g *Gateway) TrySubmit(ctx context.Context, doc domain.Document, signature string) ([]byte, error) {
	req := domain.SubmissionRequest{Document: doc, Signature: signature}
	payload, err := json.Marshal(req.Document)
	if err != nil {
		return nil, fmt.Errorf("encode document %q: %w", req.Document.DocID, err)
	}

	ev := g.newEvent(req)
	if !g.limiter.TryAcquire() {
		ev.Outcome = domain.OutcomeRejected
		g.record(ctx, ev, domain.ErrRateLimitExceeded)
		return nil, domain.ErrRateLimitExceeded
	}
	return g.post(ctx, ev, payload, req)
}

func (g *Gateway) acquire(ctx context.Context) error {
	if g.acquireTimeout <= 0 {
		return g.limiter.Acquire(ctx)
	}
	acqCtx, cancel := context.WithTimeout(ctx, g.acquireTimeout)
	defer cancel()
	return g.limiter.Acquire(acqCtx)
}

func (g *Gateway) post(ctx context.Context, ev domain.StatsEvent, payload []byte, req domain.SubmissionRequest) ([]byte, error) {
	body, err := g.transport.Post(ctx, payload, req.Signature)
	if err != nil {
		ev.Outcome = domain.OutcomeFailed
		err = &domain.SubmissionError{DocID: req.Document.DocID, Cause: err}
		g.record(ctx, ev, err)
		return nil, err
	}
	ev.Outcome = domain.OutcomeSubmitted
	g.record(ctx, ev, nil)
	return body, nil
}

func (g *Gateway) newEvent(req domain.SubmissionRequest) domain.StatsEvent {
	return domain.StatsEvent{
		ID:      g.newID(),
		DocID:   req.Document.DocID,
		DocType: req.Document.DocType,
	}
}

// record loga o resultado e grava estatísticas (best-effort).
func (g *Gateway) record(ctx context.Context, ev domain.StatsEvent, cause error) {
	ev.At = g.now()

	attrs := []any{
		"submission_id", ev.ID,
		"doc_id", ev.DocID,
		"doc_type", ev.DocType,
		"outcome", ev.Outcome,
		"waited", ev.Waited,
	}
	switch ev.Outcome {
	case domain.OutcomeSubmitted:
		g.logger.Info("document submitted", attrs...)
	case domain.OutcomeFailed:
		g.logger.Warn("document submission failed", append(attrs, "error", cause)...)
	default:
		g.logger.Warn("document not submitted", append(attrs, "error", cause)...)
	}

	if g.stats == nil {
		return
	}
	if err := g.stats.Record(context.WithoutCancel(ctx), ev); err != nil {
		g.logger.Debug("stats record failed", "submission_id", ev.ID, "error", err)
	}
}
