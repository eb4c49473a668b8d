package contents

import (
	"github.com/dmitrijs2005/draftkeeper/internal/server/models"
	"github.com/dmitrijs2005/draftkeeper/internal/server/services"
)

type createInput struct {
	ProjectID string `path:"projectId" doc:"Project id"`
	Body      createRequest
}

type createRequest struct {
	ContentID string  `json:"contentId" minLength:"1" doc:"Caller-assigned content id"`
	Name      string  `json:"name,omitempty" doc:"Defaults to Untitled"`
	Category  string  `json:"category,omitempty" doc:"Defaults to page"`
	Body      string  `json:"body,omitempty"`
	Icon      *string `json:"icon,omitempty"`
}

type contentOutput struct {
	Body *models.Content
}

type listInput struct {
	ProjectID string `path:"projectId" doc:"Project id"`
}

type listOutput struct {
	Body []*models.Content
}

type getInput struct {
	ProjectID string `path:"projectId" doc:"Project id"`
	ContentID string `path:"contentId" doc:"Content id, unique within the project"`
}

type replaceInput struct {
	ProjectID   string `path:"projectId" doc:"Project id"`
	ContentID   string `path:"contentId" doc:"Content id, unique within the project"`
	SkipVersion bool   `query:"skipVersion" doc:"Do not snapshot the previous state"`
	Body        replaceRequest
}

type replaceRequest struct {
	Name     *string `json:"name,omitempty"`
	Category *string `json:"category,omitempty"`
	Body     *string `json:"body,omitempty"`
	Icon     *string `json:"icon,omitempty"`
}

type mutationOutput struct {
	Body mutationResponse
}

type mutationResponse struct {
	Content   *models.Content    `json:"content"`
	Path      services.Path      `json:"path" doc:"transaction or fallback"`
	Retention *retentionResponse `json:"retention,omitempty"`
}

type retentionResponse struct {
	Counted  int64  `json:"counted"`
	Deleted  int64  `json:"deleted"`
	Archived int    `json:"archived"`
	Error    string `json:"error,omitempty"`
}

type listVersionsInput struct {
	ProjectID string `path:"projectId" doc:"Project id"`
	ContentID string `path:"contentId" doc:"Content id, unique within the project"`
	Limit     int    `query:"limit" doc:"Page size, 1..200, 50 when omitted"`
	Skip      int    `query:"skip" doc:"Versions to skip"`
}

type versionsOutput struct {
	Body *services.VersionPage
}

type versionInput struct {
	ProjectID string `path:"projectId" doc:"Project id"`
	ContentID string `path:"contentId" doc:"Content id, unique within the project"`
	VersionID string `path:"versionId"`
}

type versionOutput struct {
	Body *models.ContentVersion
}

// trimFailed replaces the trim error in responses; the cause is logged by the
// retention policy.
const trimFailed = "trim failed"

func toMutationResponse(res *services.MutationResult) mutationResponse {
	out := mutationResponse{Content: res.Content, Path: res.Path}
	if r := res.Retention; r != nil {
		out.Retention = &retentionResponse{Counted: r.Counted, Deleted: r.Deleted, Archived: r.Archived}
		if r.Err != nil {
			out.Retention.Error = trimFailed
		}
	}
	return out
}
