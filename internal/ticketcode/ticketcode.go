// Package ticketcode generates the short human-typable codes printed on tickets.
package ticketcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	Length   = 8
)

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// Generator returns a fresh candidate code. Uniqueness is enforced by storage.
type Generator func() (string, error)

// Generate draws Length symbols uniformly from Alphabet.
func Generate() (string, error) {
	var b strings.Builder
	b.Grow(Length)
	for i := 0; i < Length; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("ticket code: %w", err)
		}
		b.WriteByte(Alphabet[n.Int64()])
	}
	return b.String(), nil
}

// Normalize trims and upper-cases a code typed by a person.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(Alphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
