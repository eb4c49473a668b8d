package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/draftkeeper/internal/common"
	"github.com/dmitrijs2005/draftkeeper/internal/server/models"
	"github.com/google/uuid"
)

type contentsRepo struct {
	s *store
}

func (r *contentsRepo) FindOne(_ context.Context, contentID, projectID string) (*models.Content, error) {
	defer r.s.lock()()

	c, ok := r.s.st.contents[contentKey{contentID, projectID}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

func (r *contentsRepo) Find(_ context.Context, projectID string) ([]*models.Content, error) {
	defer r.s.lock()()

	result := make([]*models.Content, 0)
	for _, c := range r.s.st.contents {
		if c.ProjectID == projectID {
			c := c
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ContentID < result[j].ContentID
	})
	return result, nil
}

func (r *contentsRepo) Create(_ context.Context, c *models.Content) error {
	defer r.s.lock()()

	key := contentKey{c.ContentID, c.ProjectID}
	if _, ok := r.s.st.contents[key]; ok {
		return common.ErrorConflict
	}
	stored := *c
	if c.Icon != nil {
		icon := *c.Icon
		stored.Icon = &icon
	}
	r.s.st.contents[key] = stored
	return nil
}

func (r *contentsRepo) Upsert(_ context.Context, contentID, projectID string, patch models.ContentPatch, now time.Time) (*models.Content, error) {
	defer r.s.lock()()

	key := contentKey{contentID, projectID}
	c, ok := r.s.st.contents[key]
	if !ok {
		c = models.Content{
			ContentID: contentID,
			ProjectID: projectID,
			Name:      models.DefaultContentName,
			Category:  models.DefaultContentCategory,
			CreatedAt: now,
		}
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Category != nil {
		c.Category = *patch.Category
	}
	if patch.Body != nil {
		c.Body = *patch.Body
	}
	if patch.Icon != nil {
		icon := *patch.Icon
		c.Icon = &icon
	}
	c.UpdatedAt = now

	r.s.st.contents[key] = c
	return &c, nil
}

type versionsRepo struct {
	s *store
}

func (r *versionsRepo) Create(_ context.Context, v *models.ContentVersion) error {
	defer r.s.lock()()

	v.VersionID = uuid.NewString()
	r.s.st.seq++
	r.s.st.versions = append(r.s.st.versions, storedVersion{seq: r.s.st.seq, v: *v})
	return nil
}

func (r *versionsRepo) FindOne(_ context.Context, contentID, projectID, versionID string) (*models.ContentVersion, error) {
	defer r.s.lock()()

	for _, sv := range r.s.st.versions {
		if sv.v.VersionID == versionID && sv.v.ContentID == contentID && sv.v.ProjectID == projectID {
			v := sv.v
			return &v, nil
		}
	}
	return nil, common.ErrorNotFound
}

// node returns the versions of one content node ordered oldest first.
func (r *versionsRepo) node(contentID, projectID string) []storedVersion {
	var out []storedVersion
	for _, sv := range r.s.st.versions {
		if sv.v.ContentID == contentID && sv.v.ProjectID == projectID {
			out = append(out, sv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].v.CreatedAt.Equal(out[j].v.CreatedAt) {
			return out[i].v.CreatedAt.Before(out[j].v.CreatedAt)
		}
		return out[i].seq < out[j].seq
	})
	return out
}

func (r *versionsRepo) List(_ context.Context, contentID, projectID string, limit, skip int) ([]*models.ContentVersion, error) {
	defer r.s.lock()()

	all := r.node(contentID, projectID)
	result := make([]*models.ContentVersion, 0)
	for i := len(all) - 1 - skip; i >= 0 && len(result) < limit; i-- {
		v := all[i].v
		result = append(result, &v)
	}
	return result, nil
}

func (r *versionsRepo) Count(_ context.Context, contentID, projectID string) (int64, error) {
	defer r.s.lock()()

	return int64(len(r.node(contentID, projectID))), nil
}

func (r *versionsRepo) Oldest(_ context.Context, contentID, projectID string, n int64) ([]*models.ContentVersion, error) {
	defer r.s.lock()()

	all := r.node(contentID, projectID)
	result := make([]*models.ContentVersion, 0)
	for i := 0; i < len(all) && int64(len(result)) < n; i++ {
		v := all[i].v
		result = append(result, &v)
	}
	return result, nil
}

func (r *versionsRepo) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	defer r.s.lock()()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := r.s.st.versions[:0:0]
	var deleted int64
	for _, sv := range r.s.st.versions {
		if _, ok := drop[sv.v.VersionID]; ok {
			deleted++
			continue
		}
		kept = append(kept, sv)
	}
	r.s.st.versions = kept
	return deleted, nil
}

type projectsRepo struct {
	s *store
}

func (r *projectsRepo) Touch(_ context.Context, projectID string, at time.Time) error {
	defer r.s.lock()()

	if _, ok := r.s.st.projects[projectID]; ok {
		r.s.st.projects[projectID] = models.Project{ID: projectID, UpdatedAt: at}
	}
	return nil
}

func (r *projectsRepo) FindOne(_ context.Context, projectID string) (*models.Project, error) {
	defer r.s.lock()()

	p, ok := r.s.st.projects[projectID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &p, nil
}
