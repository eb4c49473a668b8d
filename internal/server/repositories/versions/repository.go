// Package versions stores immutable content snapshots.
package versions

import (
	"context"

	"github.com/dmitrijs2005/draftkeeper/internal/server/models"
)

type Repository interface {
	// Create stores v and assigns v.VersionID.
	Create(ctx context.Context, v *models.ContentVersion) error
	// FindOne returns common.ErrorNotFound for unknown or foreign version ids.
	FindOne(ctx context.Context, contentID, projectID, versionID string) (*models.ContentVersion, error)
	// List pages the history newest first.
	List(ctx context.Context, contentID, projectID string, limit, skip int) ([]*models.ContentVersion, error)
	Count(ctx context.Context, contentID, projectID string) (int64, error)
	// Oldest returns up to n snapshots, oldest first, creation order breaking ties.
	Oldest(ctx context.Context, contentID, projectID string, n int64) ([]*models.ContentVersion, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}
