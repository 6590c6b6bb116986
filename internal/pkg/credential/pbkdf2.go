package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Hasher hashes new passwords and verifies candidates against stored records.
type Hasher interface {
	// Hash returns an encoded record for the password with a fresh salt.
	Hash(password string) (string, error)

	// Verify reports whether password matches the encoded record.
	// Malformed records never match.
	Verify(encoded, password string) bool
}

// PBKDF2Hasher implements Hasher with PBKDF2-HMAC-SHA256.
type PBKDF2Hasher struct {
	iterations int
}

// NewPBKDF2Hasher creates a hasher writing records with the given iteration count.
// Non-positive values fall back to DefaultIterations and values above
// MaxIterations are capped.
func NewPBKDF2Hasher(iterations int) *PBKDF2Hasher {
	if iterations < 1 {
		iterations = DefaultIterations
	}
	if iterations > MaxIterations {
		iterations = MaxIterations
	}
	return &PBKDF2Hasher{iterations: iterations}
}

// Iterations returns the count written into new records.
func (h *PBKDF2Hasher) Iterations() int {
	return h.iterations
}

// Hash generates a random salt and returns the encoded record.
func (h *PBKDF2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return HashWithSalt(password, salt, h.iterations), nil
}

// Verify reports whether password matches the encoded record.
// The record's own iteration count is used, not the hasher's.
func (h *PBKDF2Hasher) Verify(encoded, password string) bool {
	return Verify(encoded, password)
}

// HashWithSalt derives the key for password and returns the encoded record.
// It is deterministic for a fixed salt and iteration count.
func HashWithSalt(password string, salt []byte, iterations int) string {
	return Record{
		Algorithm:  Algorithm,
		Iterations: iterations,
		Salt:       salt,
		Key:        deriveKey(password, salt, iterations),
	}.String()
}

// Check parses the record and compares the re-derived key with the stored one.
// It returns Match, Mismatch, or the parse failure.
func Check(encoded, password string) Result {
	rec, res := Parse(encoded)
	if res != OK {
		return res
	}

	derived := hex.EncodeToString(deriveKey(password, rec.Salt, rec.Iterations))
	stored := hex.EncodeToString(rec.Key)
	if subtle.ConstantTimeCompare([]byte(derived), []byte(stored)) != 1 {
		return Mismatch
	}
	return Match
}

// Verify reports whether password matches the encoded record.
func Verify(encoded, password string) bool {
	return Check(encoded, password) == Match
}

func deriveKey(password string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, KeySize, sha256.New)
}

// Ensure PBKDF2Hasher implements Hasher.
var _ Hasher = (*PBKDF2Hasher)(nil)
