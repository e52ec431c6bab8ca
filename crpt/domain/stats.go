package domain

import (
	"context"
	"time"
)

// Outcome é o resultado de uma tentativa de submissão.
type Outcome string

const (
	OutcomeSubmitted   Outcome = "submitted"
	OutcomeFailed      Outcome = "failed"
	OutcomeTimedOut    Outcome = "timed_out"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeRejected    Outcome = "rejected"
)

// StatsEvent representa uma tentativa de submissão já decidida.
//
// Waited é o tempo gasto esperando vaga no limitador (zero quando a vaga
// estava livre ou no modo sem espera).
type StatsEvent struct {
	ID      string
	DocID   string
	DocType string
	Outcome Outcome
	Waited  time.Duration
	At      time.Time
}

// StatsStore é a estratégia de persistência das estatísticas de submissão.
//
// O gateway trata erro como best-effort: uma falha aqui nunca derruba a submissão.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
