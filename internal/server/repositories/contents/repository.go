// Package contents stores the current state of content nodes. Implementations
// are plain persistence: values are written and read exactly as given, so an
// encryption layer (see package encrypted) sits in front of them.
package contents

import (
	"context"
	"time"

	"github.com/dmitrijs2005/draftkeeper/internal/server/models"
)

type Repository interface {
	// FindOne returns common.ErrorNotFound when no such content exists.
	FindOne(ctx context.Context, contentID, projectID string) (*models.Content, error)
	// Find lists the contents of a project ordered by creation time.
	Find(ctx context.Context, projectID string) ([]*models.Content, error)
	// Create inserts c, or fails with common.ErrorConflict if the key is taken.
	Create(ctx context.Context, c *models.Content) error
	// Upsert applies patch to the content keyed by (contentID, projectID),
	// creating it with insert defaults when absent, and returns the stored row.
	Upsert(ctx context.Context, contentID, projectID string, patch models.ContentPatch, now time.Time) (*models.Content, error)
}
