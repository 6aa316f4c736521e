package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", 15*time.Minute, 24*time.Hour)
	p := Principal{UserID: uuid.New(), Username: "nimal", Role: RoleCustomer}

	pair, err := m.GenerateTokenPair(p)
	require.NoError(t, err)

	got, err := m.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	got, err = m.ValidateRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestJWTManager_RejectsWrongSubject(t *testing.T) {
	m := NewJWTManager("secret", 15*time.Minute, 24*time.Hour)
	pair, err := m.GenerateTokenPair(Principal{UserID: uuid.New(), Username: "admin", Role: RoleAdmin})
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = m.ValidateRefreshToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RejectsExpiredAndForeignTokens(t *testing.T) {
	m := NewJWTManager("secret", 15*time.Minute, 24*time.Hour)
	issued := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	pair, err := m.GenerateTokenPair(Principal{UserID: uuid.New(), Username: "nimal", Role: RoleCustomer})
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(16 * time.Minute) }
	_, err = m.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewJWTManager("other-secret", 15*time.Minute, 24*time.Hour)
	other.now = func() time.Time { return issued }
	_, err = other.ValidateRefreshToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
