// Package services contains the content store's business logic:
// ContentService validates requests and coordinates the compound writes of
// replace and revert over any repomanager backend.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/draftkeeper/internal/common"
	"github.com/dmitrijs2005/draftkeeper/internal/logging"
	"github.com/dmitrijs2005/draftkeeper/internal/server/models"
	"github.com/dmitrijs2005/draftkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/draftkeeper/internal/server/retention"
)

// Paging bounds for ListVersions.
const (
	DefaultVersionsLimit = 50
	MaxVersionsLimit     = 200
)

// Mutation steps, reported in PersistenceError.Step.
const (
	stepReadVersion   = "read version"
	stepReadContent   = "read content"
	stepSnapshot      = "create version"
	stepUpsertContent = "upsert content"
	stepTouchProject  = "touch project"
)

type CreateContentInput struct {
	ContentID string
	ProjectID string
	Name      string
	Category  string
	Body      string
	Icon      *string
}

type ReplaceOptions struct {
	// SkipVersion suppresses the snapshot and the retention trim.
	SkipVersion bool
	AuthorID    *string
}

// VersionPage is one page of a node's history, newest first.
type VersionPage struct {
	Items []*models.ContentVersion `json:"items"`
	Total int64                    `json:"total"`
}

type ContentService struct {
	manager   repomanager.RepositoryManager
	retention *retention.Policy
	logger    logging.Logger
	once      *logging.OnceReporter
	now       func() time.Time
}

func NewContentService(m repomanager.RepositoryManager, policy *retention.Policy, logger logging.Logger) *ContentService {
	l := logger.With("module", "content")
	return &ContentService{
		manager:   m,
		retention: policy,
		logger:    l,
		once:      logging.NewOnceReporter(l),
		now:       time.Now,
	}
}

func requireIDs(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return &ValidationError{Field: pairs[i]}
		}
	}
	return nil
}

// CreateContent stores a new node. A taken (contentId, projectId) pair yields
// a ConflictError carrying the stored record.
func (s *ContentService) CreateContent(ctx context.Context, in CreateContentInput) (*models.Content, error) {
	if err := requireIDs("contentId", in.ContentID, "projectId", in.ProjectID); err != nil {
		return nil, err
	}
	if in.Name == "" {
		in.Name = models.DefaultContentName
	}
	if in.Category == "" {
		in.Category = models.DefaultContentCategory
	}

	now := s.now().UTC()
	c := &models.Content{
		ContentID: in.ContentID,
		ProjectID: in.ProjectID,
		Name:      in.Name,
		Category:  in.Category,
		Body:      in.Body,
		Icon:      in.Icon,
		CreatedAt: now,
		UpdatedAt: now,
	}

	repos := s.manager.Repositories()
	if err := repos.Contents.Create(ctx, c); err != nil {
		if errors.Is(err, common.ErrorConflict) {
			existing, findErr := repos.Contents.FindOne(ctx, in.ContentID, in.ProjectID)
			if findErr != nil {
				s.logger.Warn(ctx, "conflicting content could not be read", "contentId", in.ContentID, "projectId", in.ProjectID, "error", findErr)
			}
			return nil, &ConflictError{Existing: existing}
		}
		return nil, fmt.Errorf("create content: %w", err)
	}

	if err := repos.Projects.Touch(ctx, in.ProjectID, now); err != nil {
		s.logger.Warn(ctx, "project touch failed", "projectId", in.ProjectID, "error", err)
	}
	return c, nil
}

func (s *ContentService) GetContent(ctx context.Context, contentID, projectID string) (*models.Content, error) {
	if err := requireIDs("contentId", contentID, "projectId", projectID); err != nil {
		return nil, err
	}
	return s.manager.Repositories().Contents.FindOne(ctx, contentID, projectID)
}

func (s *ContentService) ListContents(ctx context.Context, projectID string) ([]*models.Content, error) {
	if err := requireIDs("projectId", projectID); err != nil {
		return nil, err
	}
	return s.manager.Repositories().Contents.Find(ctx, projectID)
}

// ReplaceContent writes patch over the node, creating it when absent. Unless
// opts.SkipVersion is set the previous state is snapshotted first and the
// history is trimmed afterwards.
func (s *ContentService) ReplaceContent(ctx context.Context, contentID, projectID string, patch models.ContentPatch, opts ReplaceOptions) (*MutationResult, error) {
	if err := requireIDs("contentId", contentID, "projectId", projectID); err != nil {
		return nil, err
	}

	return s.run(ctx, "replace", func(ctx context.Context, repos repomanager.Repositories) (mutationOutput, error) {
		now := s.now().UTC()

		current, err := s.readCurrent(ctx, repos, contentID, projectID)
		if err != nil {
			return mutationOutput{}, err
		}

		if current != nil && !opts.SkipVersion {
			meta := map[string]any{"reason": models.ReasonReplace}
			if err := s.snapshot(ctx, repos, current, opts.AuthorID, meta, now); err != nil {
				return mutationOutput{}, err
			}
		}

		out, err := s.write(ctx, repos, contentID, projectID, patch, now)
		if err != nil {
			return mutationOutput{}, err
		}

		if !opts.SkipVersion {
			out.retention = s.trim(ctx, repos, contentID, projectID)
		}
		return out, nil
	})
}

// Revert restores the node to the given version. The state being replaced
// is snapshotted first, so a revert never loses history.
func (s *ContentService) Revert(ctx context.Context, contentID, projectID, versionID string, authorID *string) (*MutationResult, error) {
	if err := requireIDs("contentId", contentID, "projectId", projectID, "versionId", versionID); err != nil {
		return nil, err
	}

	return s.run(ctx, "revert", func(ctx context.Context, repos repomanager.Repositories) (mutationOutput, error) {
		now := s.now().UTC()

		target, err := repos.Versions.FindOne(ctx, contentID, projectID, versionID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return mutationOutput{}, fmt.Errorf("version %s: %w", versionID, common.ErrorNotFound)
			}
			return mutationOutput{}, atStep(stepReadVersion, err)
		}

		current, err := s.readCurrent(ctx, repos, contentID, projectID)
		if err != nil {
			return mutationOutput{}, err
		}

		if current != nil {
			meta := map[string]any{"reason": models.ReasonRevert, "revertedTo": versionID}
			if err := s.snapshot(ctx, repos, current, authorID, meta, now); err != nil {
				return mutationOutput{}, err
			}
		}

		out, err := s.write(ctx, repos, contentID, projectID, target.RestorePatch(), now)
		if err != nil {
			return mutationOutput{}, err
		}
		out.retention = s.trim(ctx, repos, contentID, projectID)
		return out, nil
	})
}

// ListVersions pages a node's history. limit is clamped to
// [1, MaxVersionsLimit] with 0 meaning DefaultVersionsLimit.
func (s *ContentService) ListVersions(ctx context.Context, contentID, projectID string, limit, skip int) (*VersionPage, error) {
	if err := requireIDs("contentId", contentID, "projectId", projectID); err != nil {
		return nil, err
	}
	switch {
	case limit == 0:
		limit = DefaultVersionsLimit
	case limit < 1:
		limit = 1
	case limit > MaxVersionsLimit:
		limit = MaxVersionsLimit
	}
	if skip < 0 {
		skip = 0
	}

	repo := s.manager.Repositories().Versions
	items, err := repo.List(ctx, contentID, projectID, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	total, err := repo.Count(ctx, contentID, projectID)
	if err != nil {
		return nil, fmt.Errorf("count versions: %w", err)
	}
	return &VersionPage{Items: items, Total: total}, nil
}

func (s *ContentService) GetVersion(ctx context.Context, contentID, projectID, versionID string) (*models.ContentVersion, error) {
	if err := requireIDs("contentId", contentID, "projectId", projectID, "versionId", versionID); err != nil {
		return nil, err
	}
	return s.manager.Repositories().Versions.FindOne(ctx, contentID, projectID, versionID)
}

// readCurrent returns nil without error for a node that does not exist yet.
func (s *ContentService) readCurrent(ctx context.Context, repos repomanager.Repositories, contentID, projectID string) (*models.Content, error) {
	c, err := repos.Contents.FindOne(ctx, contentID, projectID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, atStep(stepReadContent, err)
	}
	return c, nil
}

func (s *ContentService) snapshot(ctx context.Context, repos repomanager.Repositories, c *models.Content, authorID *string, meta map[string]any, now time.Time) error {
	v := models.SnapshotOf(c, authorID, meta)
	v.CreatedAt = now
	if err := repos.Versions.Create(ctx, v); err != nil {
		return atStep(stepSnapshot, err)
	}
	return nil
}

func (s *ContentService) write(ctx context.Context, repos repomanager.Repositories, contentID, projectID string, patch models.ContentPatch, now time.Time) (mutationOutput, error) {
	c, err := repos.Contents.Upsert(ctx, contentID, projectID, patch, now)
	if err != nil {
		return mutationOutput{}, atStep(stepUpsertContent, err)
	}
	if err := repos.Projects.Touch(ctx, projectID, now); err != nil {
		return mutationOutput{}, atStep(stepTouchProject, err)
	}
	return mutationOutput{content: c}, nil
}

func (s *ContentService) trim(ctx context.Context, repos repomanager.Repositories, contentID, projectID string) *retention.Result {
	if s.retention == nil {
		return nil
	}
	res := s.retention.Trim(ctx, repos.Versions, contentID, projectID)
	return &res
}
