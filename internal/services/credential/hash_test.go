package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkarls/gatekeeper/internal/dependencies/mocks"
	"github.com/mkarls/gatekeeper/internal/dependencies/random"
)

func TestHashIsDeterministic(t *testing.T) {
	a := Hash("password123", "1234567890")
	b := Hash("password123", "1234567890")
	assert.Equal(t, a, b)
}

func TestHashKnownVectors(t *testing.T) {
	// Reference values computed independently with md5sum:
	// md5("password123") = 482c811da5d5b4bc6d497ffa98491e38
	// md5("482c...1e38" + "1234567890") = f4578310605d0663397d2ef9071c7a71
	tests := []struct {
		plaintext string
		salt      string
		want      string
	}{
		{"password123", "1234567890", "f4578310605d0663397d2ef9071c7a71"},
		{"correctpass", "1234567890", "8fca29361ea82c7c15bf6e57db5fc756"},
		{"hunter2", "0123456789", "26ecbc4a75cab6a079336a1983b5cc76"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Hash(tt.plaintext, tt.salt), "Hash(%q, %q)", tt.plaintext, tt.salt)
	}
}

func TestHashDiffersForDifferentPasswords(t *testing.T) {
	assert.NotEqual(t, Hash("password1", "1234567890"), Hash("password2", "1234567890"))
}

func TestHashDiffersForDifferentSalts(t *testing.T) {
	assert.NotEqual(t, Hash("password1", "1111111111"), Hash("password1", "2222222222"))
}

func TestMatchesIsCaseInsensitiveOverStoredDigest(t *testing.T) {
	digest := Hash("password123", "1234567890")

	assert.True(t, Matches("password123", "1234567890", digest))
	assert.True(t, Matches("password123", "1234567890", "F4578310605D0663397D2EF9071C7A71"))
	assert.False(t, Matches("wrongpass", "1234567890", digest))
}

func TestGenerateSaltIsTenDecimalDigits(t *testing.T) {
	salt := GenerateSalt(random.New())

	assert.Len(t, salt, SaltLength)
	for _, c := range salt {
		assert.True(t, c >= '0' && c <= '9', "salt contains non-digit %q", c)
	}
}

func TestGenerateSaltUsesInjectedRandom(t *testing.T) {
	rnd := mocks.NewMockRandom()
	rnd.QueueString("1234567890")

	assert.Equal(t, "1234567890", GenerateSalt(rnd))
}
