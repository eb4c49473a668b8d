// Package health serves the HTTP liveness endpoint.
package health

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dmitrijs2005/draftkeeper/internal/logging"
)

type Handler struct {
	log        logging.Logger
	middleware huma.Middlewares
}

func NewHandler(log logging.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.healthCheckOp(), h.healthCheck)
}

func (h *Handler) healthCheck(ctx context.Context, _ *Input) (*Output, error) {
	h.log.Debug(ctx, "health check request received")

	return &Output{Body: Response{Status: "OK"}}, nil
}
