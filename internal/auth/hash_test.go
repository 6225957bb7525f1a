package auth

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaltedHashDeterministic(t *testing.T) {
	assert.Equal(t, SaltedHash("secret"), SaltedHash("secret"))
	assert.Equal(t, SaltedHash(""), SaltedHash(""))
}

func TestSaltedHashDistinctInputs(t *testing.T) {
	passwords := []string{"secret", "Secret", "secret ", "hunter2", "", "pa55word"}
	seen := make(map[string]string, len(passwords))
	for _, password := range passwords {
		digest := SaltedHash(password)
		for other, otherDigest := range seen {
			assert.NotEqual(t, otherDigest, digest, "collision between %q and %q", other, password)
		}
		seen[password] = digest
	}
}

func TestSaltedHashIsHexSHA256(t *testing.T) {
	digest := SaltedHash("secret")
	require.Len(t, digest, 64)
	_, err := hex.DecodeString(digest)
	require.NoError(t, err)
}
