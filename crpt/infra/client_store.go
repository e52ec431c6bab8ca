package infra

import (
	"context"
	"sync"
	"time"

	"crpt-gateway/crpt/domain"

	"golang.org/x/time/rate"
)

// ClientStore mantém um token bucket (x/time/rate) por cliente da entrada
// HTTP, com limpeza periódica dos clientes inativos.
type ClientStore struct {
	mu           sync.Mutex
	entries      map[domain.ClientKey]*clientEntry
	rps          rate.Limit
	burst        int
	idleTTL      time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

type clientEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type ClientStoreOption func(*ClientStore)

func WithIdleTTL(d time.Duration) ClientStoreOption {
	return func(s *ClientStore) { s.idleTTL = d }
}

func WithCleanupEvery(d time.Duration) ClientStoreOption {
	return func(s *ClientStore) { s.cleanupEvery = d }
}

func NewClientStore(rps float64, burst int, opts ...ClientStoreOption) *ClientStore {
	s := &ClientStore{
		entries:      make(map[domain.ClientKey]*clientEntry),
		rps:          rate.Limit(rps),
		burst:        burst,
		idleTTL:      15 * time.Minute,
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ClientStore) RPS() float64 { return float64(s.rps) }
func (s *ClientStore) Burst() int   { return s.burst }

// Get implementa domain.ClientLimiterStore.
func (s *ClientStore) Get(key domain.ClientKey) domain.ClientLimiter {
	return s.limiter(key)
}

func (s *ClientStore) limiter(key domain.ClientKey) *rate.Limiter {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if ent, ok := s.entries[key]; ok {
		ent.lastSeen = now
		return ent.lim
	}
	lim := rate.NewLimiter(s.rps, s.burst)
	s.entries[key] = &clientEntry{lim: lim, lastSeen: now}
	return lim
}

// RetryAfter estima quanto o cliente precisa esperar pelo próximo token,
// sem consumir nada.
func (s *ClientStore) RetryAfter(key domain.ClientKey) time.Duration {
	tokens := s.limiter(key).Tokens()
	if tokens >= 1 || s.rps <= 0 {
		return 0
	}
	return time.Duration((1 - tokens) / float64(s.rps) * float64(time.Second))
}

func (s *ClientStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *ClientStore) Cleanup() {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, ent := range s.entries {
		if ent.lastSeen.Before(cutoff) {
			delete(s.entries, k)
		}
	}
}

// StartJanitor limpa clientes inativos periodicamente até o ctx encerrar.
func (s *ClientStore) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
