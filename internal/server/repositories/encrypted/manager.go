// Package encrypted puts the envelope cipher in front of any backend: the
// sensitive fields of contents and versions (name and body) are sealed on
// the way in and opened on the way out, so stores only ever see ciphertext.
package encrypted

import (
	"context"

	"github.com/dmitrijs2005/draftkeeper/internal/cryptox"
	"github.com/dmitrijs2005/draftkeeper/internal/server/repositories/repomanager"
)

// Manager decorates a repomanager.RepositoryManager.
type Manager struct {
	inner  repomanager.RepositoryManager
	cipher *cryptox.Cipher
}

func NewManager(inner repomanager.RepositoryManager, c *cryptox.Cipher) *Manager {
	return &Manager{inner: inner, cipher: c}
}

func (m *Manager) wrap(repos repomanager.Repositories) repomanager.Repositories {
	return repomanager.Repositories{
		Contents: &contentsRepo{inner: repos.Contents, cipher: m.cipher},
		Versions: &versionsRepo{inner: repos.Versions, cipher: m.cipher},
		Projects: repos.Projects,
	}
}

func (m *Manager) RunMigrations(ctx context.Context) error {
	return m.inner.RunMigrations(ctx)
}

func (m *Manager) Repositories() repomanager.Repositories {
	return m.wrap(m.inner.Repositories())
}

func (m *Manager) WithTx(ctx context.Context, fn func(ctx context.Context, repos repomanager.Repositories) error) error {
	return m.inner.WithTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		return fn(ctx, m.wrap(repos))
	})
}

func (m *Manager) Ping(ctx context.Context) error {
	return m.inner.Ping(ctx)
}

func (m *Manager) Close(ctx context.Context) error {
	return m.inner.Close(ctx)
}
