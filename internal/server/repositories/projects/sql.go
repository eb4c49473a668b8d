package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/draftkeeper/internal/common"
	"github.com/dmitrijs2005/draftkeeper/internal/dbx"
	"github.com/dmitrijs2005/draftkeeper/internal/server/models"
)

// SQLRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) Touch(ctx context.Context, projectID string, at time.Time) error {
	query := `UPDATE projects SET updated_at = $1 WHERE id = $2`

	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), r.dialect.Time(at), projectID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) FindOne(ctx context.Context, projectID string) (*models.Project, error) {
	query := `SELECT id, updated_at FROM projects WHERE id = $1`

	var (
		p       models.Project
		updated dbx.Timestamp
	)
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), projectID).Scan(&p.ID, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	p.UpdatedAt = updated.Time
	return &p, nil
}
