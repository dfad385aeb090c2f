package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	j := New("secret")

	tok, err := j.Sign("user-1", time.Hour)
	require.NoError(t, err)

	uid, err := j.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tok, err := New("secret-a").Sign("user-1", time.Hour)
	require.NoError(t, err)

	_, err = New("secret-b").Verify(tok)
	assert.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	j := New("secret")
	tok, err := j.Sign("user-1", -time.Minute)
	require.NoError(t, err)

	_, err = j.Verify(tok)
	assert.Error(t, err)
}

func TestVerifyRejectsForeignIssuer(t *testing.T) {
	// same secret, but minted by some other service
	claims := jwt.MapClaims{
		"sub": "user-1",
		"iss": "other-service",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = New("secret").Verify(tok)
	assert.Error(t, err)
}

func TestVerifyRejectsNonHS256(t *testing.T) {
	// alg=none style tokens must never pass, even with a valid issuer
	claims := jwt.MapClaims{
		"sub": "user-1",
		"iss": "code-collab",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = New("secret").Verify(tok)
	assert.Error(t, err)
}

func TestSignRejectsEmptyUID(t *testing.T) {
	_, err := New("secret").Sign("", time.Hour)
	assert.Error(t, err)
}

func TestUserContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "anon", UserID(ctx))

	ctx = WithUser(ctx, "user-9")
	assert.Equal(t, "user-9", UserID(ctx))
}
