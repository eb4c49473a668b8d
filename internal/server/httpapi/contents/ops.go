package contents

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

const (
	contentsPath = "/api/v1/projects/{projectId}/contents"
	contentPathT = contentsPath + "/{contentId}"
	versionsPath = contentPathT + "/versions"
)

func (h *Handler) createOp() huma.Operation {
	return huma.Operation{
		OperationID:   "contents-create",
		Method:        http.MethodPost,
		Path:          contentsPath,
		Summary:       "Create content",
		Description:   "Fails with 409 and the stored record when the content id is taken in this project.",
		Tags:          []string{"contents"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   h.middleware,
	}
}

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "contents-list",
		Method:      http.MethodGet,
		Path:        contentsPath,
		Summary:     "List contents of a project",
		Tags:        []string{"contents"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) getOp() huma.Operation {
	return huma.Operation{
		OperationID: "contents-get",
		Method:      http.MethodGet,
		Path:        contentPathT,
		Summary:     "Get current content",
		Tags:        []string{"contents"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) replaceOp() huma.Operation {
	return huma.Operation{
		OperationID: "contents-replace",
		Method:      http.MethodPut,
		Path:        contentPathT,
		Summary:     "Replace content",
		Description: "Creates the content when absent. The previous state is kept as a version unless skipVersion is set.",
		Tags:        []string{"contents"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) listVersionsOp() huma.Operation {
	return huma.Operation{
		OperationID: "versions-list",
		Method:      http.MethodGet,
		Path:        versionsPath,
		Summary:     "List versions, newest first",
		Tags:        []string{"versions"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) getVersionOp() huma.Operation {
	return huma.Operation{
		OperationID: "versions-get",
		Method:      http.MethodGet,
		Path:        versionsPath + "/{versionId}",
		Summary:     "Get one version",
		Tags:        []string{"versions"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) revertOp() huma.Operation {
	return huma.Operation{
		OperationID: "versions-revert",
		Method:      http.MethodPost,
		Path:        versionsPath + "/{versionId}/revert",
		Summary:     "Revert content to a version",
		Tags:        []string{"versions"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}
