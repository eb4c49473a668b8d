package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/draftkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, err := GenerateToken("author-123", secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	got, err := AuthorFromToken(tok, secret)
	if err != nil {
		t.Fatalf("AuthorFromToken error: %v", err)
	}
	if got != "author-123" {
		t.Fatalf("author mismatch: got %q", got)
	}
}

func TestAuthorFromToken_Invalid(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")

	expired, err := GenerateToken("u1", secret, -time.Second)
	if err != nil {
		t.Fatal(err)
	}
	foreign, err := GenerateToken("u1", []byte("other"), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{AuthorID: "u1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	anonymous, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}

	tests := map[string]string{
		"expired":      expired,
		"wrong secret": foreign,
		"alg none":     none,
		"no author":    anonymous,
		"garbage":      "not-a-jwt",
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := AuthorFromToken(tok, secret); !errors.Is(err, common.ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestAuthorFromToken_SubjectFallback(t *testing.T) {
	t.Parallel()

	secret := []byte("s")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "sub-1"},
	}).SignedString(secret)
	if err != nil {
		t.Fatal(err)
	}

	got, err := AuthorFromToken(tok, secret)
	if err != nil || got != "sub-1" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestAuthorFromHeader(t *testing.T) {
	t.Parallel()

	secret := []byte("s")
	tok, err := GenerateToken("u9", secret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if a := AuthorFromHeader(common.BearerPrefix+tok, secret); a == nil || *a != "u9" {
		t.Fatalf("expected u9, got %v", a)
	}
	if a := AuthorFromHeader(common.BearerPrefix+tok, nil); a != nil {
		t.Fatalf("attribution must be off without a secret")
	}
	if a := AuthorFromHeader(tok, secret); a != nil {
		t.Fatalf("missing bearer prefix must be ignored")
	}
	if a := AuthorFromHeader("", secret); a != nil {
		t.Fatalf("empty header must be ignored")
	}
	if a := AuthorFromHeader(common.BearerPrefix+"junk", secret); a != nil {
		t.Fatalf("invalid token must be ignored")
	}
}
