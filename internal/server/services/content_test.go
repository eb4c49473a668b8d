package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dmitrijs2005/draftkeeper/internal/common"
	"github.com/dmitrijs2005/draftkeeper/internal/logging"
	"github.com/dmitrijs2005/draftkeeper/internal/server/models"
	"github.com/dmitrijs2005/draftkeeper/internal/server/repositories/memstore"
	"github.com/dmitrijs2005/draftkeeper/internal/server/repositories/projects"
	"github.com/dmitrijs2005/draftkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/draftkeeper/internal/server/repositories/versions"
	"github.com/dmitrijs2005/draftkeeper/internal/server/retention"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// tickingClock advances one second per call so snapshots never share a timestamp.
func tickingClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newService(m repomanager.RepositoryManager, ceiling int) *ContentService {
	s := NewContentService(m, retention.NewPolicy(ceiling), discardLogger())
	s.now = tickingClock()
	return s
}

var storeModes = []struct {
	name     string
	opts     []memstore.Option
	wantPath Path
}{
	{name: "transactional", wantPath: PathTransaction},
	{name: "standalone", opts: []memstore.Option{memstore.WithoutTransactions()}, wantPath: PathFallback},
}

func TestCreateContent(t *testing.T) {
	m := memstore.NewManager(memstore.WithProjects("p1"))
	s := newService(m, 10)
	ctx := context.Background()

	c, err := s.CreateContent(ctx, CreateContentInput{ContentID: "n1", ProjectID: "p1", Body: "A"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultContentName, c.Name)
	assert.Equal(t, models.DefaultContentCategory, c.Category)

	_, err = s.CreateContent(ctx, CreateContentInput{ContentID: "n1", ProjectID: "p1", Body: "other"})
	require.ErrorIs(t, err, common.ErrorConflict)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.NotNil(t, conflict.Existing)
	assert.Equal(t, "A", conflict.Existing.Body)

	_, err = s.CreateContent(ctx, CreateContentInput{ContentID: "n1", ProjectID: "p2"})
	require.NoError(t, err)

	p, err := m.Repositories().Projects.FindOne(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, c.UpdatedAt, p.UpdatedAt)
}

func TestValidation(t *testing.T) {
	m := memstore.NewManager()
	s := newService(m, 10)
	ctx := context.Background()

	_, err := s.CreateContent(ctx, CreateContentInput{ProjectID: "p1"})
	require.ErrorIs(t, err, common.ErrorValidation)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "contentId", ve.Field)

	_, err = s.ReplaceContent(ctx, "n1", "", models.ContentPatch{}, ReplaceOptions{})
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Revert(ctx, "n1", "p1", "", nil)
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.ListContents(ctx, "")
	require.ErrorIs(t, err, common.ErrorValidation)

	list, err := m.Repositories().Contents.Find(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReplaceContent_SnapshotsPreviousState(t *testing.T) {
	for _, mode := range storeModes {
		t.Run(mode.name, func(t *testing.T) {
			m := memstore.NewManager(mode.opts...)
			s := newService(m, 10)
			ctx := context.Background()

			_, err := s.CreateContent(ctx, CreateContentInput{ContentID: "n1", ProjectID: "p1", Name: "first", Body: "A"})
			require.NoError(t, err)

			res, err := s.ReplaceContent(ctx, "n1", "p1", models.ContentPatch{Body: ptr("B")}, ReplaceOptions{AuthorID: ptr("u1")})
			require.NoError(t, err)
			assert.Equal(t, mode.wantPath, res.Path)
			assert.Equal(t, "B", res.Content.Body)
			assert.Equal(t, "first", res.Content.Name)
			require.NotNil(t, res.Retention)
			assert.Equal(t, int64(1), res.Retention.Counted)

			page, err := s.ListVersions(ctx, "n1", "p1", 0, 0)
			require.NoError(t, err)
			assert.Equal(t, int64(1), page.Total)
			require.Len(t, page.Items, 1)
			v := page.Items[0]
			assert.Equal(t, "A", v.Body)
			assert.Equal(t, "first", v.Name)
			assert.Equal(t, "u1", *v.AuthorID)
			assert.Equal(t, models.ReasonReplace, v.Meta["reason"])
		})
	}
}

func TestReplaceContent_CreatesMissingWithoutSnapshot(t *testing.T) {
	m := memstore.NewManager(memstore.WithProjects("p1"))
	s := newService(m, 10)
	ctx := context.Background()

	res, err := s.ReplaceContent(ctx, "n1", "p1", models.ContentPatch{Body: ptr("x")}, ReplaceOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultContentName, res.Content.Name)
	assert.Equal(t, "x", res.Content.Body)

	n, err := m.Repositories().Versions.Count(ctx, "n1", "p1")
	require.NoError(t, err)
	assert.Zero(t, n)

	p, err := m.Repositories().Projects.FindOne(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, res.Content.UpdatedAt, p.UpdatedAt)

	_, err = m.Repositories().Projects.FindOne(ctx, "p2")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestReplaceContent_SkipVersion(t *testing.T) {
	for _, mode := range storeModes {
		t.Run(mode.name, func(t *testing.T) {
			m := memstore.NewManager(mode.opts...)
			s := newService(m, 10)
			ctx := context.Background()

			_, err := s.CreateContent(ctx, CreateContentInput{ContentID: "n1", ProjectID: "p1", Body: "A"})
			require.NoError(t, err)

			res, err := s.ReplaceContent(ctx, "n1", "p1", models.ContentPatch{Body: ptr("B")}, ReplaceOptions{SkipVersion: true})
			require.NoError(t, err)
			assert.Nil(t, res.Retention)
			assert.Equal(t, "B", res.Content.Body)

			n, err := m.Repositories().Versions.Count(ctx, "n1", "p1")
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestReplaceContent_RetentionKeepsMostRecent(t *testing.T) {
	for _, mode := range storeModes {
		t.Run(mode.name, func(t *testing.T) {
			const ceiling = 3
			m := memstore.NewManager(mode.opts...)
			s := newService(m, ceiling)
			ctx := context.Background()

			_, err := s.CreateContent(ctx, CreateContentInput{ContentID: "n1", ProjectID: "p1", Body: "b0"})
			require.NoError(t, err)

			for i := 1; i <= 6; i++ {
				_, err := s.ReplaceContent(ctx, "n1", "p1", models.ContentPatch{Body: ptr(fmt.Sprintf("b%d", i))}, ReplaceOptions{})
				require.NoError(t, err)
			}

			page, err := s.ListVersions(ctx, "n1", "p1", 0, 0)
			require.NoError(t, err)
			assert.Equal(t, int64(ceiling), page.Total)

			bodies := make([]string, 0, len(page.Items))
			for _, v := range page.Items {
				bodies = append(bodies, v.Body)
			}
			assert.Equal(t, []string{"b5", "b4", "b3"}, bodies)
		})
	}
}

func TestRevert_RoundTrip(t *testing.T) {
	for _, mode := range storeModes {
		t.Run(mode.name, func(t *testing.T) {
			m := memstore.NewManager(mode.opts...)
			s := newService(m, 10)
			ctx := context.Background()

			_, err := s.CreateContent(ctx, CreateContentInput{ContentID: "n1", ProjectID: "p1", Body: "A"})
			require.NoError(t, err)
			_, err = s.ReplaceContent(ctx, "n1", "p1", models.ContentPatch{Body: ptr("B")}, ReplaceOptions{})
			require.NoError(t, err)

			page, err := s.ListVersions(ctx, "n1", "p1", 0, 0)
			require.NoError(t, err)
			require.Len(t, page.Items, 1)
			target := page.Items[0]

			res, err := s.Revert(ctx, "n1", "p1", target.VersionID, ptr("u2"))
			require.NoError(t, err)
			assert.Equal(t, mode.wantPath, res.Path)
			assert.Equal(t, "A", res.Content.Body)

			page, err = s.ListVersions(ctx, "n1", "p1", 0, 0)
			require.NoError(t, err)
			require.Len(t, page.Items, 2)
			newest := page.Items[0]
			assert.Equal(t, "B", newest.Body)
			assert.Equal(t, models.ReasonRevert, newest.Meta["reason"])
			assert.Equal(t, target.VersionID, newest.Meta["revertedTo"])
			assert.Equal(t, "u2", *newest.AuthorID)

			got, err := s.GetVersion(ctx, "n1", "p1", target.VersionID)
			require.NoError(t, err)
			assert.Equal(t, "A", got.Body)
		})
	}
}

func TestRevert_NotFoundLeavesStateUnchanged(t *testing.T) {
	for _, mode := range storeModes {
		t.Run(mode.name, func(t *testing.T) {
			m := memstore.NewManager(mode.opts...)
			s := newService(m, 10)
			ctx := context.Background()

			_, err := s.CreateContent(ctx, CreateContentInput{ContentID: "n1", ProjectID: "p1", Body: "A"})
			require.NoError(t, err)
			_, err = s.ReplaceContent(ctx, "n1", "p1", models.ContentPatch{Body: ptr("B")}, ReplaceOptions{})
			require.NoError(t, err)

			_, err = s.Revert(ctx, "n1", "p1", "missing", nil)
			require.ErrorIs(t, err, common.ErrorNotFound)
			assert.False(t, errors.Is(err, common.ErrorPersistence))

			c, err := s.GetContent(ctx, "n1", "p1")
			require.NoError(t, err)
			assert.Equal(t, "B", c.Body)

			n, err := m.Repositories().Versions.Count(ctx, "n1", "p1")
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
		})
	}
}

func TestRevert_MaterializesMissingContent(t *testing.T) {
	m := memstore.NewManager()
	s := newService(m, 10)
	ctx := context.Background()

	v := &models.ContentVersion{ContentID: "n1", ProjectID: "p1", Name: "old", Category: "db", Body: "kept", CreatedAt: time.Now()}
	require.NoError(t, m.Repositories().Versions.Create(ctx, v))

	res, err := s.Revert(ctx, "n1", "p1", v.VersionID, nil)
	require.NoError(t, err)
	assert.Equal(t, "old", res.Content.Name)
	assert.Equal(t, "db", res.Content.Category)
	assert.Equal(t, "kept", res.Content.Body)

	n, err := m.Repositories().Versions.Count(ctx, "n1", "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPathsAreObservablyEquivalent(t *testing.T) {
	type endState struct {
		Content  *models.Content
		Versions []*models.ContentVersion
	}

	play := func(t *testing.T, opts ...memstore.Option) endState {
		m := memstore.NewManager(opts...)
		s := newService(m, 2)
		ctx := context.Background()

		_, err := s.CreateContent(ctx, CreateContentInput{ContentID: "n1", ProjectID: "p1", Name: "doc", Body: "A"})
		require.NoError(t, err)
		for _, body := range []string{"B", "C", "D"} {
			_, err := s.ReplaceContent(ctx, "n1", "p1", models.ContentPatch{Body: ptr(body)}, ReplaceOptions{})
			require.NoError(t, err)
		}
		_, err = s.ReplaceContent(ctx, "n1", "p1", models.ContentPatch{Body: ptr("E")}, ReplaceOptions{SkipVersion: true})
		require.NoError(t, err)

		c, err := s.GetContent(ctx, "n1", "p1")
		require.NoError(t, err)
		page, err := s.ListVersions(ctx, "n1", "p1", 0, 0)
		require.NoError(t, err)
		return endState{Content: c, Versions: page.Items}
	}

	tx := play(t)
	standalone := play(t, memstore.WithoutTransactions())

	if diff := cmp.Diff(tx, standalone, cmpopts.IgnoreFields(models.ContentVersion{}, "VersionID")); diff != "" {
		t.Fatalf("paths diverge (-tx +standalone):\n%s", diff)
	}
}

func TestListVersions_Paging(t *testing.T) {
	m := memstore.NewManager()
	s := newService(m, 10)
	ctx := context.Background()

	_, err := s.CreateContent(ctx, CreateContentInput{ContentID: "n1", ProjectID: "p1", Body: "b0"})
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		_, err := s.ReplaceContent(ctx, "n1", "p1", models.ContentPatch{Body: ptr(fmt.Sprintf("b%d", i))}, ReplaceOptions{})
		require.NoError(t, err)
	}

	tests := []struct {
		name        string
		limit, skip int
		want        []string
	}{
		{name: "default", want: []string{"b2", "b1", "b0"}},
		{name: "negative limit clamps to one", limit: -4, want: []string{"b2"}},
		{name: "negative skip ignored", limit: 2, skip: -1, want: []string{"b2", "b1"}},
		{name: "skip", limit: 2, skip: 2, want: []string{"b0"}},
		{name: "large limit", limit: 1000, want: []string{"b2", "b1", "b0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.ListVersions(ctx, "n1", "p1", tt.limit, tt.skip)
			require.NoError(t, err)
			assert.Equal(t, int64(3), page.Total)
			got := make([]string, 0, len(page.Items))
			for _, v := range page.Items {
				got = append(got, v.Body)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// --- fault injection ---

// faultyManager wraps repositories so selected writes fail, either only
// inside transactions or everywhere.
type faultyManager struct {
	*memstore.Manager
	failTouchInTx   bool
	failVersionOnce bool
	failed          bool
}

type failingTouch struct{ projects.Repository }

func (failingTouch) Touch(context.Context, string, time.Time) error {
	return errors.New("write conflict")
}

type failingVersionCreate struct {
	versions.Repository
	m *faultyManager
}

func (r failingVersionCreate) Create(ctx context.Context, v *models.ContentVersion) error {
	if r.m.failVersionOnce && !r.m.failed {
		r.m.failed = true
		return errors.New("disk full")
	}
	return r.Repository.Create(ctx, v)
}

func (f *faultyManager) Repositories() repomanager.Repositories {
	repos := f.Manager.Repositories()
	repos.Versions = failingVersionCreate{Repository: repos.Versions, m: f}
	return repos
}

func (f *faultyManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos repomanager.Repositories) error) error {
	return f.Manager.WithTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		if f.failTouchInTx {
			repos.Projects = failingTouch{repos.Projects}
		}
		repos.Versions = failingVersionCreate{Repository: repos.Versions, m: f}
		return fn(ctx, repos)
	})
}

func TestReplaceContent_AbortedTransactionFallsBack(t *testing.T) {
	m := &faultyManager{Manager: memstore.NewManager(), failTouchInTx: true}
	s := newService(m, 10)
	ctx := context.Background()

	_, err := s.CreateContent(ctx, CreateContentInput{ContentID: "n1", ProjectID: "p1", Body: "A"})
	require.NoError(t, err)

	res, err := s.ReplaceContent(ctx, "n1", "p1", models.ContentPatch{Body: ptr("B")}, ReplaceOptions{})
	require.NoError(t, err)
	assert.Equal(t, PathFallback, res.Path)
	assert.Equal(t, "B", res.Content.Body)

	// the aborted attempt left nothing behind
	n, err := m.Repositories().Versions.Count(ctx, "n1", "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestReplaceContent_FallbackFailureIsPersistenceError(t *testing.T) {
	inner := memstore.NewManager(memstore.WithoutTransactions())
	m := &faultyManager{Manager: inner, failVersionOnce: true}
	s := newService(m, 10)
	ctx := context.Background()

	_, err := s.CreateContent(ctx, CreateContentInput{ContentID: "n1", ProjectID: "p1", Body: "A"})
	require.NoError(t, err)

	_, err = s.ReplaceContent(ctx, "n1", "p1", models.ContentPatch{Body: ptr("B")}, ReplaceOptions{})
	require.ErrorIs(t, err, common.ErrorPersistence)
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "replace", pe.Op)
	assert.Equal(t, stepSnapshot, pe.Step)
	assert.EqualError(t, pe.Err, "disk full")

	c, err := s.GetContent(ctx, "n1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "A", c.Body)
}

func TestTrimFailureDoesNotFailMutation(t *testing.T) {
	m := memstore.NewManager(memstore.WithoutTransactions())
	s := NewContentService(m, retention.NewPolicy(1, retention.WithArchiver(archiverFunc(func() error {
		return errors.New("bucket gone")
	}))), discardLogger())
	s.now = tickingClock()
	ctx := context.Background()

	_, err := s.CreateContent(ctx, CreateContentInput{ContentID: "n1", ProjectID: "p1", Body: "A"})
	require.NoError(t, err)
	for _, body := range []string{"B", "C"} {
		res, err := s.ReplaceContent(ctx, "n1", "p1", models.ContentPatch{Body: ptr(body)}, ReplaceOptions{})
		require.NoError(t, err)
		assert.Equal(t, body, res.Content.Body)
	}

	res, err := s.ReplaceContent(ctx, "n1", "p1", models.ContentPatch{Body: ptr("D")}, ReplaceOptions{})
	require.NoError(t, err)
	require.NotNil(t, res.Retention)
	require.Error(t, res.Retention.Err)
	assert.Zero(t, res.Retention.Deleted)
}

type archiverFunc func() error

func (f archiverFunc) Archive(context.Context, string, string, []*models.ContentVersion) error {
	return f()
}
