package jwt

import (
	"testing"
	"time"

	"nutrition-intake/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	svc := NewJWTService(config.SessionConfig{Secret: "test-secret", Expiry: time.Hour})

	token, err := svc.GenerateSessionToken("sess-1", "returning", true, "abc-123-XYZ")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "returning", claims.Mode)
	assert.True(t, claims.RecoveryMode)
	assert.Equal(t, "abc-123-XYZ", claims.ConfirmedUserID)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	issuer := NewJWTService(config.SessionConfig{Secret: "one", Expiry: time.Hour})
	verifier := NewJWTService(config.SessionConfig{Secret: "two", Expiry: time.Hour})

	token, err := issuer.GenerateSessionToken("sess-1", "new", false, "")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewJWTService(config.SessionConfig{Secret: "test-secret", Expiry: -time.Minute})

	token, err := svc.GenerateSessionToken("sess-1", "new", false, "")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}
