package contents

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

const contentColumns = `content_id, project_id, name, category, body, icon, created_at, updated_at`

// SQLRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

// NewSQLRepository constructs a repository bound to the given DBTX.
func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (*models.Content, error) {
	var (
		c                models.Content
		icon             sql.NullString
		created, updated dbx.Timestamp
	)
	if err := row.Scan(&c.ContentID, &c.ProjectID, &c.Name, &c.Category, &c.Body, &icon, &created, &updated); err != nil {
		return nil, err
	}
	if icon.Valid {
		c.Icon = &icon.String
	}
	c.CreatedAt = created.Time
	c.UpdatedAt = updated.Time
	return &c, nil
}

func (r *SQLRepository) FindOne(ctx context.Context, contentID, projectID string) (*models.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents
		WHERE content_id = $1 AND project_id = $2`

	c, err := scanContent(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), contentID, projectID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *SQLRepository) Find(ctx context.Context, projectID string) ([]*models.Content, error) {
	query := `SELECT ` + contentColumns + ` FROM contents
		WHERE project_id = $1
		ORDER BY created_at ASC, content_id ASC`

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to select contents: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Content, 0)
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Create relies on ON CONFLICT DO NOTHING so duplicate keys surface as zero
// affected rows on every dialect.
func (r *SQLRepository) Create(ctx context.Context, c *models.Content) error {
	query := `INSERT INTO contents (` + contentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (content_id, project_id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		c.ContentID, c.ProjectID, c.Name, c.Category, c.Body, nullable(c.Icon),
		r.dialect.Time(c.CreatedAt), r.dialect.Time(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorConflict
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *SQLRepository) Upsert(ctx context.Context, contentID, projectID string, patch models.ContentPatch, now time.Time) (*models.Content, error) {
	query := `INSERT INTO contents (` + contentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (content_id, project_id) DO UPDATE SET
			name = COALESCE($9, contents.name),
			category = COALESCE($10, contents.category),
			body = COALESCE($11, contents.body),
			icon = COALESCE($12, contents.icon),
			updated_at = EXCLUDED.updated_at
		RETURNING ` + contentColumns

	ts := r.dialect.Time(now)
	row := r.db.QueryRowContext(ctx, r.dialect.Rebind(query),
		contentID, projectID,
		valueOr(patch.Name, models.DefaultContentName),
		valueOr(patch.Category, models.DefaultContentCategory),
		valueOr(patch.Body, ""),
		nullable(patch.Icon),
		ts, ts,
		nullable(patch.Name), nullable(patch.Category), nullable(patch.Body), nullable(patch.Icon),
	)

	c, err := scanContent(row)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func nullable(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valueOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}
