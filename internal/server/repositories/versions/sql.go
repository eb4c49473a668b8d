package versions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/draftkeeper/internal/common"
	"github.com/dmitrijs2005/draftkeeper/internal/dbx"
	"github.com/dmitrijs2005/draftkeeper/internal/server/models"
)

const versionColumns = `id, content_id, project_id, name, category, body, author_id, meta, created_at`

// SQLRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
// Version ids are the decimal form of the table's serial key.
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

func scanVersion(row rowScanner) (*models.ContentVersion, error) {
	var (
		v       models.ContentVersion
		id      int64
		author  sql.NullString
		meta    sql.NullString
		created dbx.Timestamp
	)
	if err := row.Scan(&id, &v.ContentID, &v.ProjectID, &v.Name, &v.Category, &v.Body, &author, &meta, &created); err != nil {
		return nil, err
	}
	v.VersionID = strconv.FormatInt(id, 10)
	if author.Valid {
		v.AuthorID = &author.String
	}
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &v.Meta); err != nil {
			return nil, fmt.Errorf("decode meta: %w", err)
		}
	}
	v.CreatedAt = created.Time
	return &v, nil
}

func (r *SQLRepository) Create(ctx context.Context, v *models.ContentVersion) error {
	var meta any
	if len(v.Meta) > 0 {
		b, err := json.Marshal(v.Meta)
		if err != nil {
			return fmt.Errorf("encode meta: %w", err)
		}
		meta = string(b)
	}

	query := `INSERT INTO content_versions (content_id, project_id, name, category, body, author_id, meta, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var id int64
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query),
		v.ContentID, v.ProjectID, v.Name, v.Category, v.Body, nullable(v.AuthorID), meta, r.dialect.Time(v.CreatedAt),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	v.VersionID = strconv.FormatInt(id, 10)
	return nil
}

func (r *SQLRepository) FindOne(ctx context.Context, contentID, projectID, versionID string) (*models.ContentVersion, error) {
	id, err := strconv.ParseInt(versionID, 10, 64)
	if err != nil {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + versionColumns + ` FROM content_versions
		WHERE id = $1 AND content_id = $2 AND project_id = $3`

	v, err := scanVersion(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), id, contentID, projectID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *SQLRepository) List(ctx context.Context, contentID, projectID string, limit, skip int) ([]*models.ContentVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM content_versions
		WHERE content_id = $1 AND project_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`

	return r.query(ctx, query, contentID, projectID, limit, skip)
}

func (r *SQLRepository) Count(ctx context.Context, contentID, projectID string) (int64, error) {
	query := `SELECT COUNT(*) FROM content_versions WHERE content_id = $1 AND project_id = $2`

	var n int64
	if err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), contentID, projectID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) Oldest(ctx context.Context, contentID, projectID string, n int64) ([]*models.ContentVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM content_versions
		WHERE content_id = $1 AND project_id = $2
		ORDER BY created_at ASC, id ASC
		LIMIT $3`

	return r.query(ctx, query, contentID, projectID, n)
}

func (r *SQLRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	args := make([]any, 0, len(ids))
	for _, s := range ids {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		args = append(args, id)
	}
	if len(args) == 0 {
		return 0, nil
	}

	query := `DELETE FROM content_versions WHERE id IN (` + dbx.Placeholders(1, len(args)) + `)`

	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) query(ctx context.Context, query string, args ...any) ([]*models.ContentVersion, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select versions: %w", err)
	}
	defer rows.Close()

	result := make([]*models.ContentVersion, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullable(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
