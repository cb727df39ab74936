// Package auth provides API-key issuance and API-key HTTP
// authentication for the exchange's trading API, plus JWT and bcrypt
// helpers that no route uses. Built the way the
// agent-facing API generated keys (crypto/rand + hex) and verified
// them via header parsing.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// keyPrefix distinguishes exchange trading keys from any other token
// format a future surface might introduce.
const keyPrefix = "lmsrx_sk_"

// GenerateAPIKey returns a fresh API key and the hash that should be
// stored in place of the key itself. Only the hash is ever persisted,
// in line with the User.APIKeyHash column's contract.
func GenerateAPIKey() (key string, hash string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	key = keyPrefix + hex.EncodeToString(raw)
	return key, HashAPIKey(key), nil
}

// HashAPIKey deterministically hashes an API key for storage and
// lookup comparison.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
