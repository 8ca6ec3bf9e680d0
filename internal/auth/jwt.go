package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims are the access-token claims issued by the member service. The
// relay only consumes them; issuance and refresh live elsewhere.
type Claims struct {
	jwt.RegisteredClaims
	MemberID string `json:"member_id"`
	Nickname string `json:"nickname"`
	Type     string `json:"type"` // "access" or "refresh"
}

// Identity is the authenticated sender attached to a connection.
type Identity struct {
	MemberID string
	Nickname string
}

// Validator validates access tokens with the shared HMAC secret.
type Validator struct {
	secret []byte
	issuer string
}

// NewValidator creates a token validator. issuer is optional; when set,
// the token's iss claim must match.
func NewValidator(secret, issuer string) (*Validator, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &Validator{secret: []byte(secret), issuer: issuer}, nil
}

// Validate parses and verifies the token and returns the sender identity.
func (v *Validator) Validate(tokenString string) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != "" && claims.Type != "access" {
		return nil, fmt.Errorf("%w: not an access token", ErrInvalidToken)
	}
	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, fmt.Errorf("%w: unexpected issuer", ErrInvalidToken)
	}
	if claims.MemberID == "" {
		return nil, fmt.Errorf("%w: missing member id", ErrInvalidToken)
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, ErrExpiredToken
	}

	return &Identity{
		MemberID: claims.MemberID,
		Nickname: claims.Nickname,
	}, nil
}
