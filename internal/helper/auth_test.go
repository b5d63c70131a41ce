package helper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	auth := SetupAuth("secret")

	token, err := auth.GenerateToken(42, "user@example.com")
	require.NoError(t, err)

	claims, err := auth.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)

	claims, err = auth.VerifyToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
}

func TestGenerateTokenRequiresInputs(t *testing.T) {
	auth := SetupAuth("secret")

	_, err := auth.GenerateToken(0, "user@example.com")
	assert.Error(t, err)
	_, err = auth.GenerateToken(42, "")
	assert.Error(t, err)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	token, err := SetupAuth("secret-a").GenerateToken(42, "user@example.com")
	require.NoError(t, err)

	_, err = SetupAuth("secret-b").VerifyToken(token)
	assert.Error(t, err)
}

func TestVerifyTokenRejectsEmpty(t *testing.T) {
	auth := SetupAuth("secret")
	_, err := auth.VerifyToken("")
	assert.Error(t, err)
	_, err = auth.VerifyToken("Bearer ")
	assert.Error(t, err)
}

func TestInviteTokenRoundTrip(t *testing.T) {
	auth := SetupAuth("secret")

	token, exp, err := auth.GenerateInviteToken("new@example.com", time.Hour)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	email, err := auth.VerifyInviteToken(token)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", email)
}

func TestInviteTokenIsNotAnAccessToken(t *testing.T) {
	auth := SetupAuth("secret")

	// an access token must not pass as an invitation
	access, err := auth.GenerateToken(42, "user@example.com")
	require.NoError(t, err)
	_, err = auth.VerifyInviteToken(access)
	assert.Error(t, err)

	// and an invitation must not carry an identity
	invite, _, err := auth.GenerateInviteToken("new@example.com", time.Hour)
	require.NoError(t, err)
	claims, err := auth.VerifyToken(invite)
	if err == nil {
		assert.Zero(t, claims.UserID)
	}
}

func TestVerifyPassword(t *testing.T) {
	auth := SetupAuth("secret")

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.DefaultCost)
	require.NoError(t, err)

	assert.NoError(t, auth.VerifyPassword("hunter22", string(hash)))
	assert.Error(t, auth.VerifyPassword("wrong", string(hash)))
}
