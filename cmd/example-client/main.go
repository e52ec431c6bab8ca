// example-client dispara 100 submissões concorrentes do mesmo documento por
// um único Gateway. Com a configuração padrão (5 por minuto) as submissões
// saem em lotes de 5 a cada minuto.
//
// Aponte UPSTREAM_URL para o upstream-stub para testar localmente.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"crpt-gateway/crpt/application"
	"crpt-gateway/crpt/domain"
	"crpt-gateway/crpt/infra"
	"crpt-gateway/internal/config"
)

const (
	callers   = 100
	signature = "SOME_SIGN"
)

const sampleDocument = `{
  "description": {"participantInn": "string"},
  "doc_id": "string",
  "doc_status": "string",
  "doc_type": "LP_INTRODUCE_GOODS",
  "importRequest": true,
  "owner_inn": "string",
  "participant_inn": "string",
  "producer_inn": "string",
  "production_date": "2020-01-23",
  "production_type": "string",
  "products": [
    {
      "certificate_document": "string",
      "certificate_document_date": "2020-01-23",
      "certificate_document_number": "string",
      "owner_inn": "string",
      "producer_inn": "string",
      "production_date": "2020-01-23",
      "tnved_code": "string",
      "uit_code": "string",
      "uitu_code": "string"
    }
  ],
  "reg_date": "2020-01-23",
  "reg_number": "string"
}`

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config error", "error", err)
		os.Exit(1)
	}

	var doc domain.Document
	if err := json.Unmarshal([]byte(sampleDocument), &doc); err != nil {
		logger.Error("decode sample document", "error", err)
		os.Exit(1)
	}

	limiter, err := infra.NewWindowLimiter(cfg.Limiter.Window, cfg.Limiter.Limit)
	if err != nil {
		logger.Error("limiter error", "error", err)
		os.Exit(1)
	}
	defer limiter.Stop()

	stats := infra.NewMemoryStatsStore()
	gateway, err := application.NewGateway(
		limiter,
		infra.NewHTTPTransport(cfg.Upstream.URL, infra.WithTimeout(cfg.Upstream.Timeout), infra.WithBearerToken(cfg.Upstream.Token)),
		application.WithStats(stats),
		application.WithLogger(logger),
		application.WithAcquireTimeout(cfg.Limiter.AcquireTimeout),
	)
	if err != nil {
		logger.Error("gateway error", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	go func() {
		<-ctx.Done()
		limiter.Stop()
	}()

	logger.Info("starting",
		"callers", callers,
		"window", cfg.Limiter.Window,
		"limit", cfg.Limiter.Limit,
		"upstream", cfg.Upstream.URL,
	)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// o resultado de cada chamada já é logado pelo gateway
			_, _ = gateway.Submit(ctx, doc, signature)
		}()
	}
	wg.Wait()

	logger.Info("done",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"submitted", stats.Count(domain.OutcomeSubmitted),
		"failed", stats.Count(domain.OutcomeFailed),
		"timed_out", stats.Count(domain.OutcomeTimedOut),
		"unavailable", stats.Count(domain.OutcomeUnavailable),
	)
}
