// Package memstore is an in-process backend for the content store. It can run
// with or without transaction support; without it, WithTx behaves like a
// standalone document database and refuses to start a transaction.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/draftkeeper/internal/common"
	"github.com/dmitrijs2005/draftkeeper/internal/server/models"
	"github.com/dmitrijs2005/draftkeeper/internal/server/repositories/repomanager"
)

type contentKey struct {
	contentID string
	projectID string
}

type storedVersion struct {
	seq int64
	v   models.ContentVersion
}

type state struct {
	contents map[contentKey]models.Content
	versions []storedVersion
	projects map[string]models.Project
	seq      int64
}

func newState() *state {
	return &state{
		contents: make(map[contentKey]models.Content),
		projects: make(map[string]models.Project),
	}
}

func (s *state) clone() *state {
	c := &state{
		contents: make(map[contentKey]models.Content, len(s.contents)),
		versions: make([]storedVersion, len(s.versions)),
		projects: make(map[string]models.Project, len(s.projects)),
		seq:      s.seq,
	}
	for k, v := range s.contents {
		c.contents[k] = v
	}
	copy(c.versions, s.versions)
	for k, v := range s.projects {
		c.projects[k] = v
	}
	return c
}

// store couples a state with the lock guarding it. Inside a transaction the
// manager lock is already held and mu is nil.
type store struct {
	mu *sync.Mutex
	st *state
}

func (s *store) lock() func() {
	if s.mu == nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// Manager implements repomanager.RepositoryManager in memory.
type Manager struct {
	mu            sync.Mutex
	st            *state
	transactional bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithoutTransactions makes WithTx fail with common.ErrTxUnsupported.
func WithoutTransactions() Option {
	return func(m *Manager) { m.transactional = false }
}

// WithProjects registers existing projects, standing in for the service that
// owns them.
func WithProjects(ids ...string) Option {
	return func(m *Manager) {
		for _, id := range ids {
			m.st.projects[id] = models.Project{ID: id}
		}
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{st: newState(), transactional: true}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Manager) RunMigrations(context.Context) error {
	return nil
}

func (m *Manager) bind(s *store) repomanager.Repositories {
	return repomanager.Repositories{
		Contents: &contentsRepo{s},
		Versions: &versionsRepo{s},
		Projects: &projectsRepo{s},
	}
}

func (m *Manager) Repositories() repomanager.Repositories {
	return m.bind(&store{mu: &m.mu, st: m.st})
}

// WithTx serializes transactions against all other access, runs fn on a copy
// of the data and publishes the copy only when fn succeeds.
func (m *Manager) WithTx(ctx context.Context, fn func(ctx context.Context, repos repomanager.Repositories) error) error {
	if !m.transactional {
		return fmt.Errorf("%w: memory store runs without transactions", common.ErrTxUnsupported)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.st.clone()
	if err := fn(ctx, m.bind(&store{st: work})); err != nil {
		return err
	}
	*m.st = *work
	return nil
}

func (m *Manager) Close(context.Context) error {
	return nil
}

func (m *Manager) Ping(context.Context) error {
	return nil
}
