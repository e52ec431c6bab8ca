// upstream-stub imita o endpoint de criação de documentos para testes locais.
// Responde 200 com um id para cada POST que traga o header Signature e loga
// o instante de cada chegada, o que deixa visível o ritmo imposto pelo gateway.
package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	addr := ":8081"
	if v := os.Getenv("STUB_LISTEN_ADDR"); v != "" {
		addr = v
	}
	// STUB_STATUS força um status de erro (ex.: 401, como a API real sem credenciais).
	status := http.StatusOK
	if v := os.Getenv("STUB_STATUS"); v != "" {
		code, err := strconv.Atoi(v)
		if err != nil || code < 100 || code > 599 {
			logger.Error("invalid STUB_STATUS", "value", v)
			os.Exit(1)
		}
		status = code
	}

	var received atomic.Int64
	r := chi.NewRouter()
	r.Post("/api/v3/lk/documents/create", func(w http.ResponseWriter, r *http.Request) {
		n := received.Add(1)
		sig := r.Header.Get("Signature")

		var doc struct {
			DocID   string `json:"doc_id"`
			DocType string `json:"doc_type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil || sig == "" {
			logger.Warn("bad request", "n", n, "signature", sig != "", "error", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		logger.Info("document received", "n", n, "doc_id", doc.DocID, "doc_type", doc.DocType, "at", time.Now().Format(time.RFC3339Nano))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"value": uuid.NewString()})
	})

	logger.Info("upstream stub listening", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
