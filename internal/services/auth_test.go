package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthService_TokenRoundTrip(t *testing.T) {
	req := require.New(t)
	svc := NewAuthService(nil, "test-secret")

	token, err := svc.GenerateToken(42, "alice")
	req.NoError(err)
	req.NotEmpty(token)

	userID, username, err := svc.ValidateToken(token)
	req.NoError(err)
	req.Equal(uint(42), userID)
	req.Equal("alice", username)
}

func TestAuthService_ValidateToken_WrongSecret(t *testing.T) {
	req := require.New(t)
	issuer := NewAuthService(nil, "secret-one")
	verifier := NewAuthService(nil, "secret-two")

	token, err := issuer.GenerateToken(1, "alice")
	req.NoError(err)

	_, _, err = verifier.ValidateToken(token)
	req.Error(err)
}

func TestAuthService_ValidateToken_Garbage(t *testing.T) {
	req := require.New(t)
	svc := NewAuthService(nil, "test-secret")

	_, _, err := svc.ValidateToken("not-a-token")
	req.Error(err)

	_, _, err = svc.ValidateToken("")
	req.Error(err)
}
