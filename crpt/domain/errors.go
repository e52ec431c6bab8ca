package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration: limite ou janela não positivos na construção.
	ErrInvalidConfiguration = errors.New("invalid rate limiter configuration")
	// ErrLimiterClosed: Acquire chamado (ou pendente) depois de Stop.
	ErrLimiterClosed = errors.New("rate limiter closed")
	// ErrRateLimitUnavailable: o gateway não conseguiu uma vaga porque o limitador não está disponível.
	ErrRateLimitUnavailable = errors.New("rate limit unavailable")
	// ErrAcquireTimedOut: o prazo de espera por uma vaga expirou; nenhuma vaga foi consumida.
	ErrAcquireTimedOut = errors.New("acquire timed out")
	// ErrRateLimitExceeded: modo sem espera (TrySubmit) e não havia vaga na janela atual.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrSubmissionFailed: a vaga foi consumida mas a chamada remota falhou.
	ErrSubmissionFailed = errors.New("submission failed")
)

// SubmissionError carrega a causa da falha do transporte.
// errors.Is(err, ErrSubmissionFailed) é verdadeiro para qualquer SubmissionError.
type SubmissionError struct {
	DocID string
	Cause error
}

func (e *SubmissionError) Error() string {
	if e.DocID != "" {
		return fmt.Sprintf("%s: doc %s: %v", ErrSubmissionFailed, e.DocID, e.Cause)
	}
	return fmt.Sprintf("%s: %v", ErrSubmissionFailed, e.Cause)
}

func (e *SubmissionError) Unwrap() error { return e.Cause }

func (e *SubmissionError) Is(target error) bool { return target == ErrSubmissionFailed }

func IsTimeout(err error) bool {
	return errors.Is(err, ErrAcquireTimedOut)
}

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrRateLimitUnavailable) || errors.Is(err, ErrLimiterClosed)
}

func IsSubmissionFailed(err error) bool {
	return errors.Is(err, ErrSubmissionFailed)
}
