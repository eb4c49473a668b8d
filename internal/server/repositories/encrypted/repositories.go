package encrypted

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/draftkeeper/internal/cryptox"
	"github.com/dmitrijs2005/draftkeeper/internal/server/models"
	"github.com/dmitrijs2005/draftkeeper/internal/server/repositories/contents"
	"github.com/dmitrijs2005/draftkeeper/internal/server/repositories/versions"
)

type contentsRepo struct {
	inner  contents.Repository
	cipher *cryptox.Cipher
}

func (r *contentsRepo) open(c *models.Content) *models.Content {
	if c != nil {
		r.cipher.OpenFields(&c.Name, &c.Body)
	}
	return c
}

func (r *contentsRepo) FindOne(ctx context.Context, contentID, projectID string) (*models.Content, error) {
	c, err := r.inner.FindOne(ctx, contentID, projectID)
	if err != nil {
		return nil, err
	}
	return r.open(c), nil
}

func (r *contentsRepo) Find(ctx context.Context, projectID string) ([]*models.Content, error) {
	list, err := r.inner.Find(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for _, c := range list {
		r.open(c)
	}
	return list, nil
}

func (r *contentsRepo) Create(ctx context.Context, c *models.Content) error {
	sealed := *c
	if err := r.cipher.SealFields(&sealed.Name, &sealed.Body); err != nil {
		return fmt.Errorf("seal content: %w", err)
	}
	return r.inner.Create(ctx, &sealed)
}

func (r *contentsRepo) Upsert(ctx context.Context, contentID, projectID string, patch models.ContentPatch, now time.Time) (*models.Content, error) {
	sealed := patch
	sealed.Name = copyString(patch.Name)
	sealed.Body = copyString(patch.Body)
	if err := r.cipher.SealFields(sealed.Name, sealed.Body); err != nil {
		return nil, fmt.Errorf("seal content: %w", err)
	}

	c, err := r.inner.Upsert(ctx, contentID, projectID, sealed, now)
	if err != nil {
		return nil, err
	}
	return r.open(c), nil
}

type versionsRepo struct {
	inner  versions.Repository
	cipher *cryptox.Cipher
}

func (r *versionsRepo) open(v *models.ContentVersion) *models.ContentVersion {
	if v != nil {
		r.cipher.OpenFields(&v.Name, &v.Body)
	}
	return v
}

func (r *versionsRepo) Create(ctx context.Context, v *models.ContentVersion) error {
	sealed := *v
	if err := r.cipher.SealFields(&sealed.Name, &sealed.Body); err != nil {
		return fmt.Errorf("seal version: %w", err)
	}
	if err := r.inner.Create(ctx, &sealed); err != nil {
		return err
	}
	v.VersionID = sealed.VersionID
	return nil
}

func (r *versionsRepo) FindOne(ctx context.Context, contentID, projectID, versionID string) (*models.ContentVersion, error) {
	v, err := r.inner.FindOne(ctx, contentID, projectID, versionID)
	if err != nil {
		return nil, err
	}
	return r.open(v), nil
}

func (r *versionsRepo) List(ctx context.Context, contentID, projectID string, limit, skip int) ([]*models.ContentVersion, error) {
	list, err := r.inner.List(ctx, contentID, projectID, limit, skip)
	if err != nil {
		return nil, err
	}
	for _, v := range list {
		r.open(v)
	}
	return list, nil
}

func (r *versionsRepo) Count(ctx context.Context, contentID, projectID string) (int64, error) {
	return r.inner.Count(ctx, contentID, projectID)
}

func (r *versionsRepo) Oldest(ctx context.Context, contentID, projectID string, n int64) ([]*models.ContentVersion, error) {
	list, err := r.inner.Oldest(ctx, contentID, projectID, n)
	if err != nil {
		return nil, err
	}
	for _, v := range list {
		r.open(v)
	}
	return list, nil
}

func (r *versionsRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	return r.inner.DeleteByIDs(ctx, ids)
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	s := *p
	return &s
}
