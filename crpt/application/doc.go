// Package application contém os casos de uso do gateway: submeter um
// documento respeitando o limitador de saída (Gateway) e decidir se um
// cliente da entrada HTTP pode ser atendido (IngressService).
//
// Ele depende do pacote domain e não conhece net/http.
package application
