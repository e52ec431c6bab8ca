package crpt

import (
	"math"
	"strconv"
	"time"
)

// retryAfterSeconds formata d em segundos inteiros, arredondando para cima
// (mínimo 1).
func retryAfterSeconds(d time.Duration) string {
	s := int(math.Ceil(d.Seconds()))
	if s < 1 {
		s = 1
	}
	return strconv.Itoa(s)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
