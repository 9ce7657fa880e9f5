package storage

import (
	"fmt"
	"strconv"
	"strings"
)

// literalPrecision is the number of fractional digits in a vector
// literal.
const literalPrecision = 10

// Literal serializes a vector to its bracketed storage literal, e.g.
// "[0.5000000000,0.2500000000]". The format is fixed at ten fractional
// digits and is what crosses the SQL boundary on insert.
func Literal(vector []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'f', literalPrecision, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// ParseLiteral parses a bracketed vector literal back into a vector.
func ParseLiteral(s string) ([]float32, error) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 2 || trimmed[0] != '[' || trimmed[len(trimmed)-1] != ']' {
		return nil, fmt.Errorf("%w: %q", ErrMalformedVector, s)
	}
	body := trimmed[1 : len(trimmed)-1]
	if strings.TrimSpace(body) == "" {
		return []float32{}, nil
	}

	parts := strings.Split(body, ",")
	vector := make([]float32, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("%w: component %d: %v", ErrMalformedVector, i, err)
		}
		vector[i] = float32(v)
	}
	return vector, nil
}
