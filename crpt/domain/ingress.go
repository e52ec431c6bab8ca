package domain

import "time"

// ClientKey identifica quem está chamando o gateway (header, IP...).
type ClientKey string

// ClientLimiter decide se um cliente pode fazer uma chamada agora.
// Diferente de Limiter, nunca bloqueia: é usado na entrada do gateway para
// recusar clientes abusivos antes que entrem na fila do limitador de saída.
type ClientLimiter interface {
	Allow() bool
}

// ClientLimiterStore obtém o limiter de cada cliente.
type ClientLimiterStore interface {
	Get(ClientKey) ClientLimiter
}

type Decision struct {
	Allowed bool
	// RetryAfter é o valor sugerido em Retry-After quando bloquear.
	RetryAfter time.Duration
}
