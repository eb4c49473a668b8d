// Package projects maintains the parent aggregate's modification time.
package projects

import (
	"context"
	"time"

	"github.com/dmitrijs2005/draftkeeper/internal/server/models"
)

type Repository interface {
	// Touch sets the project's updatedAt. Projects are owned elsewhere; an
	// unknown project is left alone and Touch returns nil.
	Touch(ctx context.Context, projectID string, at time.Time) error
	FindOne(ctx context.Context, projectID string) (*models.Project, error)
}
