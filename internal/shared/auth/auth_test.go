package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	tm := NewTokenManager("secret", "rsr", time.Hour)

	token, err := tm.Generate(Identity{UserID: "u-1", Email: "a@example.com", Staff: true})
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.True(t, claims.Staff)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenManager("secret", "rsr", time.Hour).Generate(Identity{UserID: "u-1"})
	require.NoError(t, err)

	_, err = NewTokenManager("other", "rsr", time.Hour).Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestVerifyRejectsExpired(t *testing.T) {
	tm := NewTokenManager("secret", "rsr", time.Minute)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := tm.Generate(Identity{UserID: "u-1"})
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.Verify(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestGenerateRequiresSubject(t *testing.T) {
	_, err := NewTokenManager("secret", "rsr", time.Hour).Generate(Identity{})
	assert.Error(t, err)
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.NoError(t, CheckPassword(hash, "hunter22"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrPasswordMismatch)
	assert.ErrorIs(t, CheckPassword("", "hunter22"), ErrPasswordMismatch)
}
