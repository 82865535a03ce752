package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"gatedfm/core/errs"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	c := NewCodec("test-secret")
	tok, err := c.GenerateToken("alice", true, time.Hour, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	claims, err := c.ParseToken(tok)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "alice" || !claims.Admin {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseTokenRejects(t *testing.T) {
	c := NewCodec("test-secret")
	expired, _ := c.GenerateToken("alice", false, time.Minute, time.Now().Add(-time.Hour))
	foreign, _ := NewCodec("other-secret").GenerateToken("alice", true, time.Hour, time.Now())
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "alice"}).
		SignedString([]byte("test-secret"))
	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := map[string]string{
		"expired":      expired,
		"wrong secret": foreign,
		"no expiry":    noExpiry,
		"alg none":     unsigned,
		"garbage":      "not.a.token",
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := c.ParseToken(tok); !errors.Is(err, errs.ErrUnauthorized) {
				t.Errorf("err = %v, want ErrUnauthorized", err)
			}
		})
	}

	if _, err := NewCodec("").ParseToken(foreign); !errors.Is(err, errs.ErrUnauthorized) {
		t.Errorf("disabled codec accepted a token: %v", err)
	}
}

func TestRequester(t *testing.T) {
	c := NewCodec("test-secret")
	tok, _ := c.GenerateToken("bob", false, time.Hour, time.Now())

	r := httptest.NewRequest("GET", "/stream/p/0", nil)
	if got, err := c.Requester(r); err != nil || got.ID != "" {
		t.Errorf("anonymous = %+v, %v", got, err)
	}

	r.Header.Set("Authorization", "Bearer "+tok)
	if got, err := c.Requester(r); err != nil || got.ID != "bob" || got.Admin {
		t.Errorf("header = %+v, %v", got, err)
	}

	r = httptest.NewRequest("GET", "/stream/p/0?token="+tok, nil)
	if got, err := c.Requester(r); err != nil || got.ID != "bob" {
		t.Errorf("query = %+v, %v", got, err)
	}

	r = httptest.NewRequest("GET", "/stream/p/0?token=bogus", nil)
	if _, err := c.Requester(r); !errors.Is(err, errs.ErrUnauthorized) {
		t.Errorf("bogus token err = %v", err)
	}
}
