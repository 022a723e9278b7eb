package jwt

import (
	"context"
	"errors"
	"strings"
	"time"

	"microloan/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = domain.ErrTokenExpired
	ErrTokenInvalid = domain.ErrTokenInvalid
)

// Claims represents the identity token claims
type Claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// GenerateAccessToken issues a signed identity token. Used by tests and local tooling,
// production tokens come from the identity provider.
func GenerateAccessToken(email, secret, issuer string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:         email,
		EmailVerified: true,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   email,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAccessToken validates an identity token and returns claims
func ValidateAccessToken(tokenString, secret, issuer string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Email == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Verifier verifies bearer credentials and yields the principal email
type Verifier struct {
	secret string
	issuer string
}

// NewVerifier creates a new token verifier
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: secret, issuer: issuer}
}

// Verify returns the verified, lower-cased email carried by token
func (v *Verifier) Verify(_ context.Context, token string) (string, error) {
	claims, err := ValidateAccessToken(token, v.secret, v.issuer)
	if err != nil {
		return "", err
	}
	return strings.ToLower(claims.Email), nil
}
