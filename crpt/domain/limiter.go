package domain

import (
	"context"
	"fmt"
	"time"
)

// CapacityWindow é a configuração do limitador: no máximo Limit admissões
// a cada Window. Imutável depois que o limitador é criado.
type CapacityWindow struct {
	Window time.Duration
	Limit  int
}

func (c CapacityWindow) Validate() error {
	if c.Limit <= 0 {
		return fmt.Errorf("%w: limit must be > 0, got: %d", ErrInvalidConfiguration, c.Limit)
	}
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be > 0, got: %s", ErrInvalidConfiguration, c.Window)
	}
	return nil
}

// Limiter admite no máximo N chamadas por janela.
//
// Acquire bloqueia até conseguir uma vaga, até o ctx encerrar ou até o
// limitador ser parado. TryAcquire nunca bloqueia.
type Limiter interface {
	Acquire(ctx context.Context) error
	TryAcquire() bool
}
