package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

// passwordSalt is deliberately a fixed constant: login is a single
// exact-match document query against the stored digest, so the same
// password must always produce the same digest.
const passwordSalt = "7e3fca8b-8a86-4830-9eb0-a55a27de2f83"

const hashIterations = 100000

// SaltedHash derives the stored password digest: hex-encoded
// PBKDF2-HMAC-SHA256 over the password with the fixed salt.
func SaltedHash(password string) string {
	digest := pbkdf2.Key([]byte(password), []byte(passwordSalt), hashIterations, sha256.Size, sha256.New)
	return hex.EncodeToString(digest)
}
