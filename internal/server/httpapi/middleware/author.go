package middleware

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dmitrijs2005/draftkeeper/internal/common"
	"github.com/dmitrijs2005/draftkeeper/internal/server/auth"
)

type authorKey struct{}

// Author resolves the optional bearer token into an author id. Requests
// without a valid token pass through anonymously.
type Author struct {
	secret []byte
}

func NewAuthor(secret []byte) *Author {
	return &Author{secret: secret}
}

func (a *Author) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		author := auth.AuthorFromHeader(ctx.Header(common.AuthorizationHeaderName), a.secret)
		if author != nil {
			ctx = huma.WithValue(ctx, authorKey{}, *author)
		}
		next(ctx)
	}
}

// AuthorID returns the author of the request or nil.
func AuthorID(ctx context.Context) *string {
	id, ok := ctx.Value(authorKey{}).(string)
	if !ok {
		return nil
	}
	return &id
}
