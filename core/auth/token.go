// Package auth turns bearer tokens into requester identities.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gatedfm/core/errs"
	"gatedfm/model"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload. The subject is the requester id.
type Claims struct {
	Admin bool `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies HS256 tokens with a shared secret.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Enabled reports whether a secret is configured.
func (c *Codec) Enabled() bool { return len(c.secret) > 0 }

// GenerateToken mints a token for requesterID valid for ttl from now.
func (c *Codec) GenerateToken(requesterID string, admin bool, ttl time.Duration, now time.Time) (string, error) {
	if !c.Enabled() {
		return "", errors.New("JWT secret not configured")
	}
	if requesterID == "" {
		return "", errors.New("requester id is required")
	}
	claims := Claims{
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   requesterID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a token. Every failure wraps errs.ErrUnauthorized.
func (c *Codec) ParseToken(tokenString string) (*Claims, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("token presented but no secret configured: %w", errs.ErrUnauthorized)
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w: %w", errs.ErrUnauthorized, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid token: %w", errs.ErrUnauthorized)
	}
	return claims, nil
}

// TokenFromRequest reads a bearer token from the Authorization header, or
// from the token query parameter for players that cannot set headers.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	return r.URL.Query().Get("token")
}

// Requester identifies the caller of r. No token means anonymous; a token
// that fails verification is an error rather than a silent downgrade.
func (c *Codec) Requester(r *http.Request) (model.Requester, error) {
	tok := TokenFromRequest(r)
	if tok == "" {
		return model.Requester{}, nil
	}
	claims, err := c.ParseToken(tok)
	if err != nil {
		return model.Requester{}, err
	}
	return model.Requester{ID: claims.Subject, Admin: claims.Admin}, nil
}
