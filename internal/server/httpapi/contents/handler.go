// Package contents exposes the content service over HTTP.
package contents

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dmitrijs2005/draftkeeper/internal/logging"
	"github.com/dmitrijs2005/draftkeeper/internal/server/httpapi/middleware"
	"github.com/dmitrijs2005/draftkeeper/internal/server/models"
	"github.com/dmitrijs2005/draftkeeper/internal/server/services"
)

type Servicer interface {
	CreateContent(ctx context.Context, in services.CreateContentInput) (*models.Content, error)
	GetContent(ctx context.Context, contentID, projectID string) (*models.Content, error)
	ListContents(ctx context.Context, projectID string) ([]*models.Content, error)
	ReplaceContent(ctx context.Context, contentID, projectID string, patch models.ContentPatch, opts services.ReplaceOptions) (*services.MutationResult, error)
	ListVersions(ctx context.Context, contentID, projectID string, limit, skip int) (*services.VersionPage, error)
	GetVersion(ctx context.Context, contentID, projectID, versionID string) (*models.ContentVersion, error)
	Revert(ctx context.Context, contentID, projectID, versionID string, authorID *string) (*services.MutationResult, error)
}

type Handler struct {
	service    Servicer
	log        logging.Logger
	middleware huma.Middlewares
}

func NewHandler(service Servicer, log logging.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log.With("component", "contents_api"),
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.createOp(), h.create)
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.getOp(), h.get)
	huma.Register(api, h.replaceOp(), h.replace)
	huma.Register(api, h.listVersionsOp(), h.listVersions)
	huma.Register(api, h.getVersionOp(), h.getVersion)
	huma.Register(api, h.revertOp(), h.revert)
}

func (h *Handler) create(ctx context.Context, input *createInput) (*contentOutput, error) {
	c, err := h.service.CreateContent(ctx, services.CreateContentInput{
		ContentID: input.Body.ContentID,
		ProjectID: input.ProjectID,
		Name:      input.Body.Name,
		Category:  input.Body.Category,
		Body:      input.Body.Body,
		Icon:      input.Body.Icon,
	})
	if err != nil {
		return nil, h.toHTTPError(ctx, err)
	}
	return &contentOutput{Body: c}, nil
}

func (h *Handler) list(ctx context.Context, input *listInput) (*listOutput, error) {
	items, err := h.service.ListContents(ctx, input.ProjectID)
	if err != nil {
		return nil, h.toHTTPError(ctx, err)
	}
	return &listOutput{Body: items}, nil
}

func (h *Handler) get(ctx context.Context, input *getInput) (*contentOutput, error) {
	c, err := h.service.GetContent(ctx, input.ContentID, input.ProjectID)
	if err != nil {
		return nil, h.toHTTPError(ctx, err)
	}
	return &contentOutput{Body: c}, nil
}

func (h *Handler) replace(ctx context.Context, input *replaceInput) (*mutationOutput, error) {
	patch := models.ContentPatch{
		Name:     input.Body.Name,
		Category: input.Body.Category,
		Body:     input.Body.Body,
		Icon:     input.Body.Icon,
	}
	res, err := h.service.ReplaceContent(ctx, input.ContentID, input.ProjectID, patch, services.ReplaceOptions{
		SkipVersion: input.SkipVersion,
		AuthorID:    middleware.AuthorID(ctx),
	})
	if err != nil {
		return nil, h.toHTTPError(ctx, err)
	}
	return &mutationOutput{Body: toMutationResponse(res)}, nil
}

func (h *Handler) listVersions(ctx context.Context, input *listVersionsInput) (*versionsOutput, error) {
	page, err := h.service.ListVersions(ctx, input.ContentID, input.ProjectID, input.Limit, input.Skip)
	if err != nil {
		return nil, h.toHTTPError(ctx, err)
	}
	return &versionsOutput{Body: page}, nil
}

func (h *Handler) getVersion(ctx context.Context, input *versionInput) (*versionOutput, error) {
	v, err := h.service.GetVersion(ctx, input.ContentID, input.ProjectID, input.VersionID)
	if err != nil {
		return nil, h.toHTTPError(ctx, err)
	}
	return &versionOutput{Body: v}, nil
}

func (h *Handler) revert(ctx context.Context, input *versionInput) (*mutationOutput, error) {
	res, err := h.service.Revert(ctx, input.ContentID, input.ProjectID, input.VersionID, middleware.AuthorID(ctx))
	if err != nil {
		return nil, h.toHTTPError(ctx, err)
	}
	return &mutationOutput{Body: toMutationResponse(res)}, nil
}
