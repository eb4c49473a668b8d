// Package retention keeps the snapshot history of a content node bounded.
package retention

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/draftkeeper/internal/logging"
	"github.com/dmitrijs2005/draftkeeper/internal/server/models"
	"github.com/dmitrijs2005/draftkeeper/internal/server/repositories/versions"
)

// DefaultCeiling is used when a non-positive ceiling is configured.
const DefaultCeiling = 50

// Archiver receives snapshots right before they are trimmed.
type Archiver interface {
	Archive(ctx context.Context, contentID, projectID string, vs []*models.ContentVersion) error
}

// Result describes what one Trim call did. Err is informational: trimming
// never fails the mutation that triggered it.
type Result struct {
	Counted  int64 `json:"counted"`
	Deleted  int64 `json:"deleted"`
	Archived int   `json:"archived"`
	Err      error `json:"-"`
}

type Policy struct {
	ceiling  int64
	archiver Archiver
	logger   logging.Logger
}

type Option func(*Policy)

// WithArchiver uploads trimmed snapshots before they are deleted.
func WithArchiver(a Archiver) Option {
	return func(p *Policy) { p.archiver = a }
}

func WithLogger(l logging.Logger) Option {
	return func(p *Policy) { p.logger = l.With("module", "retention") }
}

func NewPolicy(ceiling int, opts ...Option) *Policy {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	p := &Policy{ceiling: int64(ceiling)}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Policy) Ceiling() int {
	return int(p.ceiling)
}

// Trim deletes the oldest snapshots of (contentID, projectID) beyond the
// ceiling. repo decides the scope: a transaction-bound repository trims
// inside that transaction.
func (p *Policy) Trim(ctx context.Context, repo versions.Repository, contentID, projectID string) Result {
	var res Result

	count, err := repo.Count(ctx, contentID, projectID)
	if err != nil {
		res.Err = fmt.Errorf("count versions: %w", err)
		p.report(ctx, contentID, projectID, res)
		return res
	}
	res.Counted = count

	excess := count - p.ceiling
	if excess <= 0 {
		return res
	}

	oldest, err := repo.Oldest(ctx, contentID, projectID, excess)
	if err != nil {
		res.Err = fmt.Errorf("select oldest versions: %w", err)
		p.report(ctx, contentID, projectID, res)
		return res
	}

	if p.archiver != nil && len(oldest) > 0 {
		if err := p.archiver.Archive(ctx, contentID, projectID, oldest); err != nil {
			res.Err = fmt.Errorf("archive versions: %w", err)
			p.report(ctx, contentID, projectID, res)
			return res
		}
		res.Archived = len(oldest)
	}

	ids := make([]string, 0, len(oldest))
	for _, v := range oldest {
		ids = append(ids, v.VersionID)
	}

	deleted, err := repo.DeleteByIDs(ctx, ids)
	res.Deleted = deleted
	if err != nil {
		res.Err = fmt.Errorf("delete versions: %w", err)
		p.report(ctx, contentID, projectID, res)
		return res
	}

	if p.logger != nil {
		p.logger.Debug(ctx, "versions trimmed", "contentId", contentID, "projectId", projectID,
			"counted", res.Counted, "deleted", res.Deleted)
	}
	return res
}

func (p *Policy) report(ctx context.Context, contentID, projectID string, res Result) {
	if p.logger == nil {
		return
	}
	p.logger.Warn(ctx, "retention trim failed", "contentId", contentID, "projectId", projectID,
		"counted", res.Counted, "deleted", res.Deleted, "error", res.Err)
}
