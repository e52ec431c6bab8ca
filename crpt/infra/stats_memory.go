package infra

import (
	"context"
	"sync"
	"time"

	"crpt-gateway/crpt/domain"
)

// MemoryStatsStore guarda contadores de submissão em memória.
// Útil para testes, desenvolvimento e para o /healthz do gateway.
//
// Não faz expiração.
type MemoryStatsStore struct {
	mu        sync.Mutex
	byOutcome map[domain.Outcome]int64
	byDocType map[string]int64
	waited    time.Duration
	last      domain.StatsEvent

	trackDocTypes bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackDocTypes(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackDocTypes = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byOutcome: make(map[domain.Outcome]int64),
		byDocType: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byOutcome[ev.Outcome]++
	s.waited += ev.Waited
	s.last = ev
	if s.trackDocTypes && ev.DocType != "" {
		s.byDocType[ev.DocType]++
	}
	return nil
}

func (s *MemoryStatsStore) Count(o domain.Outcome) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byOutcome[o]
}

// Total soma todas as tentativas registradas, independente do resultado.
func (s *MemoryStatsStore) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, v := range s.byOutcome {
		n += v
	}
	return n
}

func (s *MemoryStatsStore) TotalWaited() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waited
}

func (s *MemoryStatsStore) Last() domain.StatsEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *MemoryStatsStore) ByOutcome() map[domain.Outcome]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Outcome]int64, len(s.byOutcome))
	for k, v := range s.byOutcome {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByDocType() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64, len(s.byDocType))
	for k, v := range s.byDocType {
		out[k] = v
	}
	return out
}

// MultiStats repassa cada evento para todos os stores e devolve o primeiro erro.
type MultiStats []domain.StatsStore

func (m MultiStats) Record(ctx context.Context, ev domain.StatsEvent) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}
