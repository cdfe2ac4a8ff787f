package session

import (
	"crypto/sha256"
	"encoding/hex"
)

// fingerprintLen is the number of hex characters of the secret fingerprint
// kept in a cache key.
const fingerprintLen = 16

// Identity selects which cached session applies. Name is a display label
// (usually the username); Secret is the password or pre-shared token.
type Identity struct {
	Name   string
	Secret string
}

// Key returns the cache key for the identity. The secret only contributes
// through a SHA-256 fingerprint so keys can be logged and persisted.
func (i Identity) Key() string {
	sum := sha256.Sum256([]byte(i.Name + "\x00" + i.Secret))
	return i.Name + "/" + hex.EncodeToString(sum[:])[:fingerprintLen]
}

// String renders the identity without its secret.
func (i Identity) String() string {
	if i.Name == "" {
		return "<anonymous>"
	}
	return i.Name
}
