// Package auth resolves the author of a change from an optional bearer token.
// Tokens are only used for attribution; requests without one are accepted.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/draftkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the standard claims plus the author id. Subject is used
// when AuthorID is empty.
type Claims struct {
	jwt.RegisteredClaims
	AuthorID string `json:"authorId,omitempty"`
}

func GenerateToken(authorID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		AuthorID: authorID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// AuthorFromToken validates an HS256 token and returns its author id.
// Every failure matches common.ErrInvalidToken.
func AuthorFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	author := claims.AuthorID
	if author == "" {
		author = claims.Subject
	}
	if author == "" {
		return "", fmt.Errorf("%w: no author claim", common.ErrInvalidToken)
	}
	return author, nil
}

// AuthorFromHeader extracts the author from an Authorization header value.
// It returns nil when attribution is off (empty secret), the header is absent
// or the token does not verify.
func AuthorFromHeader(header string, secretKey []byte) *string {
	if len(secretKey) == 0 || !strings.HasPrefix(header, common.BearerPrefix) {
		return nil
	}
	author, err := AuthorFromToken(strings.TrimPrefix(header, common.BearerPrefix), secretKey)
	if err != nil {
		return nil
	}
	return &author
}
