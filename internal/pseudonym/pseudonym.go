// Package pseudonym maps author handles to stable opaque identifiers.
package pseudonym

import (
	"crypto/sha256"
	"encoding/hex"
)

// Pseudonymizer hashes handles with a fixed secret salt.
type Pseudonymizer struct {
	salt string
}

func New(salt string) *Pseudonymizer {
	return &Pseudonymizer{salt: salt}
}

// ID returns the hex SHA-256 digest of handle followed by the salt.
func (p *Pseudonymizer) ID(handle string) string {
	sum := sha256.Sum256([]byte(handle + p.salt))
	return hex.EncodeToString(sum[:])
}
