package encrypted

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/draftkeeper/internal/common"
	"github.com/dmitrijs2005/draftkeeper/internal/cryptox"
	"github.com/dmitrijs2005/draftkeeper/internal/server/models"
	"github.com/dmitrijs2005/draftkeeper/internal/server/repositories/memstore"
	"github.com/dmitrijs2005/draftkeeper/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ repomanager.RepositoryManager = (*Manager)(nil)

func ptr(s string) *string { return &s }

func setup(t *testing.T, enabled bool) (*Manager, *memstore.Manager) {
	t.Helper()
	inner := memstore.NewManager()
	c := cryptox.NewCipher(cryptox.Options{Enabled: enabled, Key: "test-key"}, nil)
	return NewManager(inner, c), inner
}

func TestContents_StoredAsCiphertext(t *testing.T) {
	m, inner := setup(t, true)
	ctx := context.Background()
	now := time.Now()

	c := &models.Content{ContentID: "c1", ProjectID: "p1", Name: "Secret plan", Category: "page", Body: "step one", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, m.Repositories().Contents.Create(ctx, c))

	assert.Equal(t, "Secret plan", c.Name, "caller's record must not be modified")

	raw, err := inner.Repositories().Contents.FindOne(ctx, "c1", "p1")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret plan", raw.Name)
	assert.NotEqual(t, "step one", raw.Body)
	assert.Equal(t, "page", raw.Category, "category is not sensitive")

	got, err := m.Repositories().Contents.FindOne(ctx, "c1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "Secret plan", got.Name)
	assert.Equal(t, "step one", got.Body)

	list, err := m.Repositories().Contents.Find(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "step one", list[0].Body)
}

func TestContents_UpsertSealsPatchOnly(t *testing.T) {
	m, inner := setup(t, true)
	ctx := context.Background()

	_, err := m.Repositories().Contents.Upsert(ctx, "c1", "p1", models.ContentPatch{Name: ptr("n1"), Body: ptr("b1")}, time.Now())
	require.NoError(t, err)

	body := "b2"
	patch := models.ContentPatch{Body: &body}
	got, err := m.Repositories().Contents.Upsert(ctx, "c1", "p1", patch, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "n1", got.Name)
	assert.Equal(t, "b2", got.Body)
	assert.Equal(t, "b2", body, "caller's patch must not be modified")

	raw, err := inner.Repositories().Contents.FindOne(ctx, "c1", "p1")
	require.NoError(t, err)
	assert.NotEqual(t, "b2", raw.Body)
}

func TestContents_LegacyPlaintextIsReadable(t *testing.T) {
	m, inner := setup(t, true)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, inner.Repositories().Contents.Create(ctx, &models.Content{ContentID: "c1", ProjectID: "p1", Name: "old", Body: "plain", CreatedAt: now, UpdatedAt: now}))

	got, err := m.Repositories().Contents.FindOne(ctx, "c1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "old", got.Name)
	assert.Equal(t, "plain", got.Body)
}

func TestVersions_RoundTrip(t *testing.T) {
	m, inner := setup(t, true)
	ctx := context.Background()

	v := &models.ContentVersion{ContentID: "c1", ProjectID: "p1", Name: "n", Body: "b", CreatedAt: time.Now()}
	require.NoError(t, m.Repositories().Versions.Create(ctx, v))
	require.NotEmpty(t, v.VersionID)
	assert.Equal(t, "b", v.Body)

	raw, err := inner.Repositories().Versions.FindOne(ctx, "c1", "p1", v.VersionID)
	require.NoError(t, err)
	assert.NotEqual(t, "b", raw.Body)

	got, err := m.Repositories().Versions.FindOne(ctx, "c1", "p1", v.VersionID)
	require.NoError(t, err)
	assert.Equal(t, "b", got.Body)

	list, err := m.Repositories().Versions.List(ctx, "c1", "p1", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "n", list[0].Name)

	oldest, err := m.Repositories().Versions.Oldest(ctx, "c1", "p1", 1)
	require.NoError(t, err)
	require.Len(t, oldest, 1)
	assert.Equal(t, "n", oldest[0].Name)

	n, err := m.Repositories().Versions.Count(ctx, "c1", "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	deleted, err := m.Repositories().Versions.DeleteByIDs(ctx, []string{v.VersionID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestDisabledCipher_StoresPlaintext(t *testing.T) {
	m, inner := setup(t, false)
	ctx := context.Background()

	_, err := m.Repositories().Contents.Upsert(ctx, "c1", "p1", models.ContentPatch{Body: ptr("visible")}, time.Now())
	require.NoError(t, err)

	raw, err := inner.Repositories().Contents.FindOne(ctx, "c1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "visible", raw.Body)
}

func TestWithTx_WrapsTransactionalRepos(t *testing.T) {
	m, inner := setup(t, true)
	ctx := context.Background()

	err := m.WithTx(ctx, func(ctx context.Context, repos repomanager.Repositories) error {
		_, err := repos.Contents.Upsert(ctx, "c1", "p1", models.ContentPatch{Body: ptr("in tx")}, time.Now())
		return err
	})
	require.NoError(t, err)

	raw, err := inner.Repositories().Contents.FindOne(ctx, "c1", "p1")
	require.NoError(t, err)
	assert.NotEqual(t, "in tx", raw.Body)

	require.NoError(t, m.RunMigrations(ctx))
	require.NoError(t, m.Close(ctx))
}

type exhaustedEntropy struct{}

func (exhaustedEntropy) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func setupFailingCipher(t *testing.T) (*Manager, *memstore.Manager) {
	t.Helper()
	inner := memstore.NewManager()
	c := cryptox.NewCipher(cryptox.Options{Enabled: true, Key: "test-key", Rand: exhaustedEntropy{}}, nil)
	return NewManager(inner, c), inner
}

func TestSealFailure_NothingStored(t *testing.T) {
	m, inner := setupFailingCipher(t)
	ctx := context.Background()
	now := time.Now()

	err := m.Repositories().Contents.Create(ctx, &models.Content{ContentID: "c1", ProjectID: "p1", Name: "n", Body: "secret", CreatedAt: now, UpdatedAt: now})
	assert.ErrorIs(t, err, common.ErrorCrypto)

	_, err = m.Repositories().Contents.Upsert(ctx, "c2", "p1", models.ContentPatch{Body: ptr("secret")}, now)
	assert.ErrorIs(t, err, common.ErrorCrypto)

	err = m.Repositories().Versions.Create(ctx, &models.ContentVersion{ContentID: "c1", ProjectID: "p1", Name: "n", Body: "secret", CreatedAt: now})
	assert.ErrorIs(t, err, common.ErrorCrypto)

	raw := inner.Repositories()
	list, err := raw.Contents.Find(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, list, "no plaintext row may reach the store")
	n, err := raw.Versions.Count(ctx, "c1", "p1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
