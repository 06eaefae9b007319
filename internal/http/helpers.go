package http

import (
	"strconv"
	"strings"

	"processos/internal/core"
)

// formatReais renders an amount the way operators read it, e.g. "R$ 1.234,56".
func formatReais(m core.Money) string {
	cents := m.Cents
	neg := m.IsNegative()
	if neg {
		cents = -cents
	}
	units := strconv.FormatInt(cents/100, 10)

	var b strings.Builder
	for i, r := range units {
		if i > 0 && (len(units)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	s := "R$ " + b.String() + "," + twoDigits(cents%100)
	if neg {
		return "-" + s
	}
	return s
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
