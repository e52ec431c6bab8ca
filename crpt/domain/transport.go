package domain

import "context"

// Transport é o colaborador que de fato atravessa a fronteira da rede.
//
// A camada de aplicação só interpreta sucesso/erro; status HTTP, TLS e
// autenticação ficam por conta da implementação.
type Transport interface {
	Post(ctx context.Context, payload []byte, signature string) ([]byte, error)
}

// SubmissionRequest é a unidade de trabalho: um documento mais a assinatura
// fornecida por quem chama. O gateway repassa os dois sem alteração.
type SubmissionRequest struct {
	Document  Document
	Signature string
}
