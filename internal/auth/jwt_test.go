package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-testing"

func TestIssuePair_BothTokensVerify(t *testing.T) {
	m := NewTokenManager(testSecret, 5*time.Minute, time.Hour)

	pair, err := m.IssuePair("user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	accessClaims, err := m.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", accessClaims.UserID)

	refreshClaims, err := m.Verify(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", refreshClaims.UserID)
}

func TestIssuePair_IndependentExpiry(t *testing.T) {
	m := NewTokenManager(testSecret, 5*time.Minute, time.Hour)

	pair, err := m.IssuePair("user-1")
	require.NoError(t, err)

	accessClaims, err := m.Verify(pair.AccessToken)
	require.NoError(t, err)
	refreshClaims, err := m.Verify(pair.RefreshToken)
	require.NoError(t, err)

	assert.True(t, refreshClaims.ExpiresAt.After(accessClaims.ExpiresAt.Time))
}

func TestVerify_ExpiredToken(t *testing.T) {
	// Negative TTL simulates the clock moving past expiry.
	m := NewTokenManager(testSecret, -time.Second, -time.Second)

	pair, err := m.IssuePair("user-1")
	require.NoError(t, err)

	_, err = m.Verify(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)

	_, err = m.Verify(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_CorruptedToken(t *testing.T) {
	m := NewTokenManager(testSecret, 5*time.Minute, time.Hour)

	pair, err := m.IssuePair("user-1")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"truncated", pair.AccessToken[:len(pair.AccessToken)/2]},
		{"tampered signature", pair.AccessToken[:len(pair.AccessToken)-4] + "AAAA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.token)
			assert.ErrorIs(t, err, ErrTokenInvalid)
			assert.NotErrorIs(t, err, ErrTokenExpired)
		})
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer := NewTokenManager(testSecret, 5*time.Minute, time.Hour)
	verifier := NewTokenManager("a-different-secret", 5*time.Minute, time.Hour)

	pair, err := issuer.IssuePair("user-1")
	require.NoError(t, err)

	_, err = verifier.Verify(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_RejectsNonHMACAlgorithm(t *testing.T) {
	m := NewTokenManager(testSecret, 5*time.Minute, time.Hour)

	// alg=none with an empty signature must never validate.
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-1"})
	unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Verify(unsigned)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_MissingUserID(t *testing.T) {
	m := NewTokenManager(testSecret, 5*time.Minute, time.Hour)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(time.Now().UTC().Add(time.Minute)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = m.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokens_AreWellFormedJWTs(t *testing.T) {
	m := NewTokenManager(testSecret, 5*time.Minute, time.Hour)

	pair, err := m.IssuePair("user-1")
	require.NoError(t, err)

	assert.Len(t, strings.Split(pair.AccessToken, "."), 3)
	assert.Len(t, strings.Split(pair.RefreshToken, "."), 3)
}
