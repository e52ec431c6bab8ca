package infra

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"crpt-gateway/crpt/domain"
)

// WindowLimiter é um limitador de janela fixa: no máximo `limit` admissões
// por `window`. A cada tick a capacidade é sobrescrita com `limit` (não há
// acúmulo de vagas não usadas) e os chamadores bloqueados são liberados na
// ordem em que começaram a esperar.
//
// Todo estado mutável (available, waiters, closed) fica sob mu.
type WindowLimiter struct {
	window time.Duration
	limit  int

	mu        sync.Mutex
	available int
	waiters   list.List // de *waiter, FIFO
	closed    bool

	ticks    <-chan time.Time
	stopTick func()
	done     chan struct{}
	stopOnce sync.Once
}

type waiter struct {
	ready chan struct{}
	// err só é escrito sob mu, antes de fechar ready.
	err error
}

type LimiterOption func(*WindowLimiter)

// WithTicks troca o ticker interno por uma fonte externa de ticks.
// Cada valor recebido no canal dispara uma reposição.
func WithTicks(ticks <-chan time.Time) LimiterOption {
	return func(l *WindowLimiter) { l.ticks = ticks }
}

var _ domain.Limiter = (*WindowLimiter)(nil)

// NewWindowLimiter cria o limitador com a janela cheia e inicia a goroutine
// de reposição. Pare com Stop.
func NewWindowLimiter(window time.Duration, limit int, opts ...LimiterOption) (*WindowLimiter, error) {
	cw := domain.CapacityWindow{Window: window, Limit: limit}
	if err := cw.Validate(); err != nil {
		return nil, err
	}

	l := &WindowLimiter{
		window:    window,
		limit:     limit,
		available: limit,
		done:      make(chan struct{}),
		stopTick:  func() {},
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.ticks == nil {
		t := time.NewTicker(window)
		l.ticks = t.C
		l.stopTick = t.Stop
	}

	go l.run()
	return l, nil
}

func (l *WindowLimiter) Window() time.Duration { return l.window }
func (l *WindowLimiter) Limit() int            { return l.limit }

// Available retorna as vagas restantes na janela atual.
func (l *WindowLimiter) Available() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.available
}

// Waiting retorna quantos chamadores estão bloqueados em Acquire.
func (l *WindowLimiter) Waiting() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waiters.Len()
}

// TryAcquire consome uma vaga se houver uma livre agora.
// Não fura a fila: se já existe alguém esperando, retorna false.
func (l *WindowLimiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || l.available == 0 || l.waiters.Len() > 0 {
		return false
	}
	l.available--
	return true
}

// Acquire bloqueia até conseguir uma vaga.
//
// Retorna domain.ErrLimiterClosed se o limitador for parado antes ou durante
// a espera, domain.ErrAcquireTimedOut se o deadline do ctx expirar e o erro
// de cancelamento do ctx nos demais casos. Em caso de erro nenhuma vaga é
// consumida.
func (l *WindowLimiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return domain.ErrLimiterClosed
	}
	if l.available > 0 && l.waiters.Len() == 0 {
		l.available--
		l.mu.Unlock()
		return nil
	}

	w := &waiter{ready: make(chan struct{})}
	elem := l.waiters.PushBack(w)
	l.mu.Unlock()

	select {
	case <-w.ready:
		return w.err
	case <-ctx.Done():
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// A reposição (ou o Stop) pode ter resolvido este waiter entre o
	// ctx.Done e o lock; nesse caso o resultado dela prevalece.
	select {
	case <-w.ready:
		return w.err
	default:
	}
	l.waiters.Remove(elem)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.ErrAcquireTimedOut
	}
	return fmt.Errorf("acquire: %w", ctx.Err())
}

// AcquireTimeout é Acquire com um limite de espera.
// timeout <= 0 espera indefinidamente.
func (l *WindowLimiter) AcquireTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return l.Acquire(context.Background())
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return l.Acquire(ctx)
}

// Stop cancela a reposição e libera todos os waiters com ErrLimiterClosed.
// Pode ser chamado mais de uma vez.
func (l *WindowLimiter) Stop() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.available = 0
		for e := l.waiters.Front(); e != nil; e = e.Next() {
			w := e.Value.(*waiter)
			w.err = domain.ErrLimiterClosed
			close(w.ready)
		}
		l.waiters.Init()
		l.mu.Unlock()

		close(l.done)
	})
}

func (l *WindowLimiter) run() {
	defer l.stopTick()
	for {
		select {
		case <-l.done:
			return
		case _, ok := <-l.ticks:
			if !ok {
				return
			}
			l.replenish()
		}
	}
}

// replenish abre uma nova janela: sobrescreve a capacidade e entrega vagas
// aos waiters mais antigos.
func (l *WindowLimiter) replenish() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.available = l.limit
	for l.available > 0 {
		front := l.waiters.Front()
		if front == nil {
			break
		}
		w := l.waiters.Remove(front).(*waiter)
		l.available--
		close(w.ready)
	}
}
