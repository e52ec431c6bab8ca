package crpt

import (
	"net"
	"net/http"
	"strings"
)

// KeyFunc identifica o cliente de uma requisição para o limite de entrada.
type KeyFunc func(r *http.Request) string

// ClientKeyFunc monta a KeyFunc padrão. Ordem de preferência:
//
//  1. header keyHeader (se configurado e não vazio)
//  2. primeiro IP de X-Forwarded-For (só com trustXFF)
//  3. host de RemoteAddr
func ClientKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}
		if trustXFF {
			first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		return remoteHost(r.RemoteAddr)
	}
}

func remoteHost(addr string) string {
	addr = strings.TrimSpace(addr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	if addr != "" {
		return addr
	}
	return "unknown"
}
