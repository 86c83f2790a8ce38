// Package credential implements the legacy game server's password digest
// scheme. The game server authenticates against digests of the form
// md5(md5(plaintext) + salt), both stages lowercase hex. That scheme is
// far too weak by modern standards, but the digests live in a database
// the game server owns, so changing it here would lock every existing
// account out. Treat it as a compatibility contract, not a choice.
package credential

import (
	"crypto/md5" //nolint:gosec // legacy game server compatibility
	"encoding/hex"
	"strings"

	"github.com/mkarls/gatekeeper/internal/dependencies/random"
)

// SaltLength is the number of decimal digits in a generated salt
const SaltLength = 10

const saltAlphabet = "0123456789"

// Hash computes the legacy double-MD5 digest for a plaintext password
// and salt. Deterministic, no side effects, never logs its inputs.
func Hash(plaintext, salt string) string {
	first := md5.Sum([]byte(plaintext))
	inner := hex.EncodeToString(first[:])
	second := md5.Sum([]byte(inner + salt))
	return hex.EncodeToString(second[:])
}

// Matches reports whether plaintext hashes to the stored digest under
// salt. Comparison is case-insensitive over the hex string since some
// legacy rows were stored uppercase.
func Matches(plaintext, salt, storedDigest string) bool {
	return Hash(plaintext, salt) == strings.ToLower(storedDigest)
}

// GenerateSalt produces a salt of independently random decimal digits.
// The legacy scheme only needs it to deter casual guessing.
func GenerateSalt(rnd random.Random) string {
	return rnd.String(SaltLength, saltAlphabet)
}
