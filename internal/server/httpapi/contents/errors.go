package contents

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dmitrijs2005/draftkeeper/internal/common"
	"github.com/dmitrijs2005/draftkeeper/internal/server/models"
	"github.com/dmitrijs2005/draftkeeper/internal/server/services"
)

// conflictError is the 409 body: the usual message plus the stored record.
type conflictError struct {
	Status   int             `json:"status"`
	Title    string          `json:"title"`
	Detail   string          `json:"detail"`
	Existing *models.Content `json:"existing,omitempty"`
}

func (e *conflictError) Error() string  { return e.Detail }
func (e *conflictError) GetStatus() int { return e.Status }

func (h *Handler) toHTTPError(ctx context.Context, err error) error {
	var (
		conflict   *services.ConflictError
		validation *services.ValidationError
	)
	switch {
	case errors.As(err, &validation):
		return huma.Error422UnprocessableEntity(validation.Error())
	case errors.As(err, &conflict):
		return &conflictError{
			Status:   http.StatusConflict,
			Title:    http.StatusText(http.StatusConflict),
			Detail:   conflict.Error(),
			Existing: conflict.Existing,
		}
	case errors.Is(err, common.ErrorNotFound):
		return huma.Error404NotFound("not found")
	default:
		h.log.Error(ctx, "request failed", "error", err)
		return huma.Error500InternalServerError("internal error")
	}
}
