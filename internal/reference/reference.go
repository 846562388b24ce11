// Package reference produces the human-facing booking codes guests quote
// when they call the restaurant.
package reference

import (
	"math/rand/v2"
	"regexp"
	"strings"
)

const (
	Prefix   = "BF"
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	Length   = 6
)

var pattern = regexp.MustCompile(`^BF[A-Z0-9]{6}$`)

// Generate returns Prefix followed by Length characters drawn uniformly from
// Alphabet. Codes are not checked for collisions.
func Generate() string {
	var sb strings.Builder
	sb.Grow(len(Prefix) + Length)
	sb.WriteString(Prefix)
	for i := 0; i < Length; i++ {
		sb.WriteByte(Alphabet[rand.IntN(len(Alphabet))])
	}
	return sb.String()
}

// Valid reports whether s has the shape of a booking reference.
func Valid(s string) bool {
	return pattern.MatchString(s)
}
