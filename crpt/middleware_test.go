package crpt

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crpt-gateway/crpt/infra"
)

func okHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
}

func doPost(h http.Handler, remote string, header map[string]string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "http://gateway/api/v1/documents", nil)
	r.RemoteAddr = remote
	for k, v := range header {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestIngress_AllowsThenRejectsSameClient(t *testing.T) {
	store := infra.NewClientStore(0.02, 1)

	calls := 0
	h := Ingress(IngressOptions{Store: store, AddHeaders: true})(okHandler(&calls))

	w1 := doPost(h, "10.0.0.1:1234", nil)
	if w1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w1.Code)
	}
	if got := w1.Header().Get("X-RateLimit-Key"); got != "10.0.0.1" {
		t.Fatalf("expected X-RateLimit-Key=10.0.0.1, got %q", got)
	}
	if got := w1.Header().Get("X-RateLimit-RPS"); got != "0.02" {
		t.Fatalf("expected X-RateLimit-RPS=0.02, got %q", got)
	}
	if got := w1.Header().Get("X-RateLimit-Burst"); got != "1" {
		t.Fatalf("expected X-RateLimit-Burst=1, got %q", got)
	}

	w2 := doPost(h, "10.0.0.1:4321", nil)
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w2.Code)
	}
	// 1 token a 0.02 rps => ~50s
	if got := w2.Header().Get("Retry-After"); got != "50" {
		t.Fatalf("expected Retry-After=50, got %q", got)
	}
	if calls != 1 {
		t.Fatalf("expected next handler to be called once, got %d", calls)
	}
}

func TestIngress_KeyByHeaderSeparatesClients(t *testing.T) {
	store := infra.NewClientStore(0.02, 1)

	calls := 0
	h := Ingress(IngressOptions{Store: store, KeyHeader: "X-Api-Key"})(okHandler(&calls))

	for _, key := range []string{"k1", "k2"} {
		w := doPost(h, "10.0.0.1:1234", map[string]string{"X-Api-Key": key})
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 for key %s, got %d", key, w.Code)
		}
	}
	if w := doPost(h, "10.0.0.1:1234", map[string]string{"X-Api-Key": "k1"}); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for repeated key k1, got %d", w.Code)
	}
	if store.Len() != 2 {
		t.Fatalf("expected 2 client buckets, got %d", store.Len())
	}
}

func TestIngress_RetryAfterRoundsUp(t *testing.T) {
	calls := 0
	h := Ingress(IngressOptions{
		Store:      fixedStore{allow: false},
		RetryAfter: 2500 * time.Millisecond,
	})(okHandler(&calls))

	w := doPost(h, "10.0.0.1:1234", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "3" {
		t.Fatalf("expected Retry-After=3, got %q", got)
	}
	if calls != 0 {
		t.Fatalf("expected next handler not to be called")
	}
}
