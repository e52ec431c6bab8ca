// Package crpt expõe o gateway de submissão de documentos via net/http.
//
// Camadas:
//
//   - domain: documento, contratos (Limiter, Transport, StatsStore) e erros
//   - application: Gateway (acquire -> post -> resultado) e IngressService
//   - infra: WindowLimiter, HTTPTransport, ClientStore e stats (memória, Redis, Prometheus)
//   - crpt (este pacote): handlers, middleware de entrada por cliente, router chi
//
// Fluxo de um POST /api/v1/documents:
//
//  1. O middleware de entrada extrai a chave do cliente e aplica o token bucket dele
//  2. O handler decodifica o documento e exige o header Signature
//  3. Gateway.Submit espera vaga na janela e chama a API remota
//  4. O erro, se houver, vira status HTTP (429, 502 ou 503)
package crpt
