package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func accessClaims(memberID, nickname string, ttl time.Duration) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "baedalfriend",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		MemberID: memberID,
		Nickname: nickname,
		Type:     "access",
	}
}

func TestValidateToken(t *testing.T) {
	v, err := NewValidator(testSecret, "baedalfriend")
	require.NoError(t, err)

	tokenString := signToken(t, testSecret, accessClaims("u1", "friend", time.Hour))

	ident, err := v.Validate(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "u1", ident.MemberID)
	assert.Equal(t, "friend", ident.Nickname)
}

func TestValidateExpiredToken(t *testing.T) {
	v, err := NewValidator(testSecret, "")
	require.NoError(t, err)

	tokenString := signToken(t, testSecret, accessClaims("u1", "friend", -time.Hour))

	_, err = v.Validate(tokenString)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateWrongSecret(t *testing.T) {
	v, err := NewValidator(testSecret, "")
	require.NoError(t, err)

	tokenString := signToken(t, "other-secret", accessClaims("u1", "friend", time.Hour))

	_, err = v.Validate(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRefreshTokenRejected(t *testing.T) {
	v, err := NewValidator(testSecret, "")
	require.NoError(t, err)

	claims := accessClaims("u1", "friend", time.Hour)
	claims.Type = "refresh"
	tokenString := signToken(t, testSecret, claims)

	_, err = v.Validate(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateWrongIssuer(t *testing.T) {
	v, err := NewValidator(testSecret, "baedalfriend")
	require.NoError(t, err)

	claims := accessClaims("u1", "friend", time.Hour)
	claims.Issuer = "someone-else"
	tokenString := signToken(t, testSecret, claims)

	_, err = v.Validate(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateMissingMemberID(t *testing.T) {
	v, err := NewValidator(testSecret, "")
	require.NoError(t, err)

	tokenString := signToken(t, testSecret, accessClaims("", "friend", time.Hour))

	_, err = v.Validate(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewValidatorEmptySecret(t *testing.T) {
	_, err := NewValidator("", "")
	assert.Error(t, err)
}
