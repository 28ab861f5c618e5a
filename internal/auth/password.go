package auth

import (
	"context"
	"fmt"
	"runtime"

	"github.com/alexedwards/argon2id"
	"golang.org/x/sync/semaphore"
)

// Argon2Params holds the tunable cost parameters for Argon2id hashing.
type Argon2Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
}

// DefaultArgon2Params returns the recommended cost parameters (64 MiB, one
// pass, lanes matching typical core counts).
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		MemoryKiB:   64 * 1024,
		Iterations:  1,
		Parallelism: 4,
	}
}

// PasswordHasher hashes and verifies passwords with Argon2id. A weighted
// semaphore bounds the number of concurrent hash computations so a burst of
// registrations cannot monopolize the scheduler; waiting honors context
// cancellation.
type PasswordHasher struct {
	params *argon2id.Params
	sem    *semaphore.Weighted
}

// NewPasswordHasher creates a hasher with the given cost parameters.
// Returns an error on misconfiguration so a bad deployment fails at startup
// rather than on the first registration.
func NewPasswordHasher(p Argon2Params) (*PasswordHasher, error) {
	if p.MemoryKiB < 8*1024 {
		return nil, fmt.Errorf("argon2 memory cost too low: %d KiB (minimum 8192)", p.MemoryKiB)
	}
	if p.Iterations < 1 {
		return nil, fmt.Errorf("argon2 time cost must be at least 1, got %d", p.Iterations)
	}
	if p.Parallelism < 1 {
		return nil, fmt.Errorf("argon2 parallelism must be at least 1, got %d", p.Parallelism)
	}

	maxConcurrent := int64(runtime.GOMAXPROCS(0))
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	return &PasswordHasher{
		params: &argon2id.Params{
			Memory:      p.MemoryKiB,
			Iterations:  p.Iterations,
			Parallelism: p.Parallelism,
			SaltLength:  16,
			KeyLength:   32,
		},
		sem: semaphore.NewWeighted(maxConcurrent),
	}, nil
}

// Hash derives an Argon2id hash of the plaintext. The returned string is the
// standard $argon2id$... encoding carrying algorithm parameters and salt, so
// verification needs no side-channel state.
func (h *PasswordHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire hashing slot: %w", err)
	}
	defer h.sem.Release(1)

	hash, err := argon2id.CreateHash(plaintext, h.params)
	if err != nil {
		return "", fmt.Errorf("argon2id hash: %w", err)
	}
	return hash, nil
}

// Verify reports whether plaintext matches the encoded hash. Malformed
// hashes, algorithm mismatches, and plain non-matches all return false;
// the cases are deliberately not distinguished to avoid oracle leaks.
func (h *PasswordHasher) Verify(hash, plaintext string) bool {
	match, err := argon2id.ComparePasswordAndHash(plaintext, hash)
	if err != nil {
		return false
	}
	return match
}
