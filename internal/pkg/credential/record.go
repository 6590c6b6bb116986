// Package credential hashes and verifies passwords using PBKDF2-HMAC-SHA256
// with a versioned, self-describing text encoding:
//
//	pbkdf2_sha256$<iterations>$<salt_hex>$<hash_hex>
//
// The leading algorithm tag lets records written today keep verifying after
// a new algorithm is introduced.
package credential

import (
	"encoding/hex"
	"strconv"
	"strings"
)

const (
	// Algorithm is the tag of records produced by this package.
	Algorithm = "pbkdf2_sha256"

	// DefaultIterations is the iteration count used for new records.
	DefaultIterations = 100000

	// MaxIterations bounds the count accepted from a record, so a corrupt
	// record fails instead of stalling verification.
	MaxIterations = 10000000

	// SaltSize is the length of the random salt in bytes.
	SaltSize = 16

	// KeySize is the length of the derived key in bytes (SHA-256 output size).
	KeySize = 32

	separator   = "$"
	fieldsCount = 4
)

// Result is the outcome of parsing or checking an encoded record.
type Result int

const (
	// OK means the record parsed successfully.
	OK Result = iota
	// Match means the candidate password derives the stored key.
	Match
	// Mismatch means the record is valid but the password is wrong.
	Mismatch
	// Malformed means the record does not have exactly four fields.
	Malformed
	// UnsupportedAlgorithm means the algorithm tag is not Algorithm.
	UnsupportedAlgorithm
	// InvalidIterations means the iteration count is not a positive integer.
	InvalidIterations
	// InvalidSalt means the salt is not valid hex.
	InvalidSalt
	// InvalidHash means the stored key is not valid hex.
	InvalidHash
)

var resultNames = map[Result]string{
	OK:                   "ok",
	Match:                "match",
	Mismatch:             "mismatch",
	Malformed:            "malformed",
	UnsupportedAlgorithm: "unsupported_algorithm",
	InvalidIterations:    "invalid_iterations",
	InvalidSalt:          "invalid_salt",
	InvalidHash:          "invalid_hash",
}

// String returns a short name for logs.
func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return "unknown"
}

// Record is a decoded credential record.
type Record struct {
	Algorithm  string
	Iterations int
	Salt       []byte
	Key        []byte
}

// String encodes the record in its delimited text form.
func (r Record) String() string {
	return strings.Join([]string{
		r.Algorithm,
		strconv.Itoa(r.Iterations),
		hex.EncodeToString(r.Salt),
		hex.EncodeToString(r.Key),
	}, separator)
}

// Parse decodes an encoded record. Every malformed input maps to a distinct
// Result; Parse never panics.
func Parse(encoded string) (Record, Result) {
	fields := strings.Split(encoded, separator)
	if len(fields) != fieldsCount {
		return Record{}, Malformed
	}

	switch fields[0] {
	case Algorithm:
	default:
		return Record{}, UnsupportedAlgorithm
	}

	iterations, err := strconv.Atoi(fields[1])
	if err != nil || iterations < 1 || iterations > MaxIterations {
		return Record{}, InvalidIterations
	}

	salt, err := hex.DecodeString(fields[2])
	if err != nil {
		return Record{}, InvalidSalt
	}

	key, err := hex.DecodeString(fields[3])
	if err != nil {
		return Record{}, InvalidHash
	}

	return Record{
		Algorithm:  fields[0],
		Iterations: iterations,
		Salt:       salt,
		Key:        key,
	}, OK
}
