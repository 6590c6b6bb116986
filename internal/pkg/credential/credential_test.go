package credential

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Low iteration count keeps the suite fast; the format is the same.
const testIterations = 1000

func TestHashWithSalt_KnownVector(t *testing.T) {
	got := HashWithSalt("password", []byte("salt"), 1)
	require.Equal(t,
		"pbkdf2_sha256$1$73616c74$120fb6cffcf8b32c43e7225256c4f837a86548c92ccc35480805987cb70be17b",
		got,
	)

	got = HashWithSalt("password", []byte("salt"), 2)
	require.True(t, strings.HasSuffix(got, "$ae4d0c95af6b46d32d0adff928f06dd02a303f8ef3c251dfd6e2d85a95474c43"))
}

func TestPBKDF2Hasher_RoundTrip(t *testing.T) {
	h := NewPBKDF2Hasher(testIterations)

	for _, pw := range []string{"secret123", "", "ñandú-contraseña", strings.Repeat("x", 512)} {
		encoded, err := h.Hash(pw)
		require.NoError(t, err)
		require.True(t, h.Verify(encoded, pw), "password %q", pw)
		require.False(t, h.Verify(encoded, pw+"!"), "password %q", pw)
	}
}

func TestPBKDF2Hasher_FreshSaltPerHash(t *testing.T) {
	h := NewPBKDF2Hasher(testIterations)

	a, err := h.Hash("secret123")
	require.NoError(t, err)
	b, err := h.Hash("secret123")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.True(t, h.Verify(a, "secret123"))
	require.True(t, h.Verify(b, "secret123"))

	recA, res := Parse(a)
	require.Equal(t, OK, res)
	recB, _ := Parse(b)
	require.Len(t, recA.Salt, SaltSize)
	require.Len(t, recA.Key, KeySize)
	require.NotEqual(t, recA.Salt, recB.Salt)
	require.Equal(t, testIterations, recA.Iterations)
}

func TestPBKDF2Hasher_DefaultIterations(t *testing.T) {
	require.Equal(t, DefaultIterations, NewPBKDF2Hasher(0).Iterations())
	require.Equal(t, DefaultIterations, NewPBKDF2Hasher(-5).Iterations())
	require.Equal(t, 7, NewPBKDF2Hasher(7).Iterations())
	require.Equal(t, MaxIterations, NewPBKDF2Hasher(MaxIterations+1).Iterations())
}

func TestVerify_UsesRecordIterations(t *testing.T) {
	encoded := HashWithSalt("secret123", []byte("0123456789abcdef"), 50)
	// A hasher configured differently still honours the stored count.
	require.True(t, NewPBKDF2Hasher(testIterations).Verify(encoded, "secret123"))
}

func TestCheck_MalformedRecords(t *testing.T) {
	valid := HashWithSalt("secret123", []byte("0123456789abcdef"), 10)
	fields := strings.Split(valid, "$")

	tests := []struct {
		name    string
		encoded string
		want    Result
	}{
		{name: "empty", encoded: "", want: Malformed},
		{name: "too few fields", encoded: "pbkdf2_sha256$10$abcd", want: Malformed},
		{name: "too many fields", encoded: valid + "$extra", want: Malformed},
		{name: "bcrypt record", encoded: "$2a$10$abcdefghijklmnopqrstuv", want: UnsupportedAlgorithm},
		{name: "unknown algorithm", encoded: "pbkdf2_sha1$" + strings.Join(fields[1:], "$"), want: UnsupportedAlgorithm},
		{name: "tag case differs", encoded: "PBKDF2_SHA256$" + strings.Join(fields[1:], "$"), want: UnsupportedAlgorithm},
		{name: "iterations not a number", encoded: strings.Join([]string{fields[0], "ten", fields[2], fields[3]}, "$"), want: InvalidIterations},
		{name: "iterations zero", encoded: strings.Join([]string{fields[0], "0", fields[2], fields[3]}, "$"), want: InvalidIterations},
		{name: "iterations negative", encoded: strings.Join([]string{fields[0], "-3", fields[2], fields[3]}, "$"), want: InvalidIterations},
		{name: "iterations above bound", encoded: strings.Join([]string{fields[0], "10000001", fields[2], fields[3]}, "$"), want: InvalidIterations},
		{name: "iterations near max int", encoded: strings.Join([]string{fields[0], "9223372036854775807", fields[2], fields[3]}, "$"), want: InvalidIterations},
		{name: "iterations overflow", encoded: strings.Join([]string{fields[0], "99999999999999999999", fields[2], fields[3]}, "$"), want: InvalidIterations},
		{name: "salt not hex", encoded: strings.Join([]string{fields[0], fields[1], "zz", fields[3]}, "$"), want: InvalidSalt},
		{name: "salt odd length", encoded: strings.Join([]string{fields[0], fields[1], "abc", fields[3]}, "$"), want: InvalidSalt},
		{name: "hash not hex", encoded: strings.Join([]string{fields[0], fields[1], fields[2], "nothex"}, "$"), want: InvalidHash},
		{name: "truncated hash", encoded: strings.Join([]string{fields[0], fields[1], fields[2], fields[3][:10]}, "$"), want: Mismatch},
		{name: "valid", encoded: valid, want: Match},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				require.Equal(t, tt.want, Check(tt.encoded, "secret123"))
			})
			require.Equal(t, tt.want == Match, Verify(tt.encoded, "secret123"))
		})
	}
}

func TestRecord_StringRoundTrip(t *testing.T) {
	rec := Record{Algorithm: Algorithm, Iterations: 3, Salt: []byte{0xde, 0xad}, Key: []byte{0xbe, 0xef}}
	require.Equal(t, "pbkdf2_sha256$3$dead$beef", rec.String())

	parsed, res := Parse(rec.String())
	require.Equal(t, OK, res)
	require.Equal(t, rec, parsed)
}

func TestResult_String(t *testing.T) {
	require.Equal(t, "unsupported_algorithm", UnsupportedAlgorithm.String())
	require.Equal(t, "unknown", Result(99).String())
}
