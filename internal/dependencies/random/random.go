// Package random abstracts random string generation so tests can pin
// generated values, such as account salts.
package random

import (
	"crypto/rand"
	"math/big"
)

// Random generates random strings from a caller-supplied alphabet
type Random interface {
	// String generates a random string of the given length from the given alphabet
	String(length int, alphabet string) string
}

// CryptoRandom implements Random using crypto/rand
type CryptoRandom struct{}

// New creates a new CryptoRandom
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// String generates a random string of the given length from the given alphabet
func (r *CryptoRandom) String(length int, alphabet string) string {
	if length <= 0 || len(alphabet) == 0 {
		return ""
	}
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		result[i] = alphabet[pick(len(alphabet))]
	}
	return string(result)
}

// pick returns a cryptographically random index in [0, n)
func pick(n int) int {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		// crypto/rand never fails on supported platforms
		return 0
	}
	return int(idx.Int64())
}
