// Package domain define os tipos e contratos do gateway de submissão de documentos.
//
// Este pacote não depende de net/http nem de bibliotecas de terceiros.
// Aqui ficam o documento trafegado para a API remota, a janela de capacidade
// do limitador, a taxonomia de erros e as interfaces que a camada de
// infraestrutura implementa (Limiter, Transport, StatsStore).
package domain
