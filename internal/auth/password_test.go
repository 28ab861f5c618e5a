package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testArgon2Params keeps hashing cheap in tests.
func testArgon2Params() Argon2Params {
	return Argon2Params{
		MemoryKiB:   8 * 1024,
		Iterations:  1,
		Parallelism: 1,
	}
}

func newTestHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(testArgon2Params())
	require.NoError(t, err)
	return h
}

func TestHash_VerifyRoundTrip(t *testing.T) {
	h := newTestHasher(t)
	ctx := context.Background()

	hash, err := h.Hash(ctx, "Str0ng!Pw")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	assert.True(t, h.Verify(hash, "Str0ng!Pw"))
}

func TestVerify_WrongPassword(t *testing.T) {
	h := newTestHasher(t)

	hash, err := h.Hash(context.Background(), "Str0ng!Pw")
	require.NoError(t, err)

	assert.False(t, h.Verify(hash, "Wr0ng!Pwd"))
}

func TestHash_SamePasswordDistinctHashes(t *testing.T) {
	h := newTestHasher(t)
	ctx := context.Background()

	hash1, err := h.Hash(ctx, "Str0ng!Pw")
	require.NoError(t, err)
	hash2, err := h.Hash(ctx, "Str0ng!Pw")
	require.NoError(t, err)

	// Random salt makes every hash unique; both still verify.
	assert.NotEqual(t, hash1, hash2)
	assert.True(t, h.Verify(hash1, "Str0ng!Pw"))
	assert.True(t, h.Verify(hash2, "Str0ng!Pw"))
}

func TestVerify_MalformedHash_ReturnsFalseNotError(t *testing.T) {
	h := newTestHasher(t)

	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"garbage", "not-a-hash"},
		{"wrong algorithm", "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"},
		{"truncated", "$argon2id$v=19$m=8192"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, h.Verify(tt.hash, "Str0ng!Pw"))
		})
	}
}

func TestNewPasswordHasher_RejectsMisconfiguration(t *testing.T) {
	_, err := NewPasswordHasher(Argon2Params{MemoryKiB: 1024, Iterations: 1, Parallelism: 1})
	assert.Error(t, err)

	_, err = NewPasswordHasher(Argon2Params{MemoryKiB: 8 * 1024, Iterations: 0, Parallelism: 1})
	assert.Error(t, err)

	_, err = NewPasswordHasher(Argon2Params{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 0})
	assert.Error(t, err)
}

func TestHash_CanceledContext(t *testing.T) {
	h := newTestHasher(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Hash(ctx, "Str0ng!Pw")
	assert.Error(t, err)
}
