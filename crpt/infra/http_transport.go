package infra

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"crpt-gateway/crpt/domain"
)

// DefaultCreateDocumentURL é o endpoint de criação de documentos da API remota.
const DefaultCreateDocumentURL = "https://ismp.crpt.ru/api/v3/lk/documents/create"

// SignatureHeader é o header onde vai a assinatura fornecida pelo chamador.
const SignatureHeader = "Signature"

const maxResponseBody = 1 << 20

// StatusError é devolvido quando a API remota responde fora da faixa 2xx.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("upstream responded %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("upstream responded %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), body)
}

// HTTPTransport implementa domain.Transport fazendo POST JSON na API remota.
type HTTPTransport struct {
	client *http.Client
	url    string
	token  string
}

type TransportOption func(*HTTPTransport)

func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *HTTPTransport) { t.client = c }
}

// WithBearerToken adiciona "Authorization: Bearer <token>" a cada chamada.
func WithBearerToken(token string) TransportOption {
	return func(t *HTTPTransport) { t.token = strings.TrimSpace(token) }
}

// WithTimeout define o timeout total de cada chamada do client padrão.
func WithTimeout(d time.Duration) TransportOption {
	return func(t *HTTPTransport) {
		if d > 0 {
			t.client = &http.Client{Timeout: d}
		}
	}
}

var _ domain.Transport = (*HTTPTransport)(nil)

func NewHTTPTransport(url string, opts ...TransportOption) *HTTPTransport {
	if url == "" {
		url = DefaultCreateDocumentURL
	}
	t := &HTTPTransport{
		client: &http.Client{Timeout: 30 * time.Second},
		url:    url,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *HTTPTransport) URL() string { return t.url }

// Post envia o payload já serializado. Erros de rede voltam embrulhados;
// respostas não-2xx voltam como *StatusError.
func (t *HTTPTransport) Post(ctx context.Context, payload []byte, signature string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(SignatureHeader, signature)
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", t.url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}
