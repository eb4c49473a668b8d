// Package repomanager vends the content store repositories for a backend and
// runs units of work against them, transactionally when the backend allows.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/draftkeeper/internal/server/repositories/contents"
	"github.com/dmitrijs2005/draftkeeper/internal/server/repositories/projects"
	"github.com/dmitrijs2005/draftkeeper/internal/server/repositories/versions"
)

// Repositories is a set of repositories sharing one handle: either the
// backend's default connection or an open transaction.
type Repositories struct {
	Contents contents.Repository
	Versions versions.Repository
	Projects projects.Repository
}

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	// Repositories returns repositories bound to the default, non-transactional handle.
	Repositories() Repositories
	// WithTx runs fn against repositories bound to a new transaction, committing
	// when fn returns nil and rolling back otherwise. When the backend refuses to
	// start a transaction the returned error matches common.ErrTxUnsupported.
	WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
