// Package httpapi assembles the HTTP API of the content store.
//
//	GET  /api/v1/health
//	POST /api/v1/projects/{projectId}/contents
//	GET  /api/v1/projects/{projectId}/contents
//	GET  /api/v1/projects/{projectId}/contents/{contentId}
//	PUT  /api/v1/projects/{projectId}/contents/{contentId}?skipVersion=
//	GET  /api/v1/projects/{projectId}/contents/{contentId}/versions?limit=&skip=
//	GET  /api/v1/projects/{projectId}/contents/{contentId}/versions/{versionId}
//	POST /api/v1/projects/{projectId}/contents/{contentId}/versions/{versionId}/revert
package httpapi

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/dmitrijs2005/draftkeeper/internal/logging"
	"github.com/dmitrijs2005/draftkeeper/internal/server/httpapi/contents"
	"github.com/dmitrijs2005/draftkeeper/internal/server/httpapi/health"
	"github.com/dmitrijs2005/draftkeeper/internal/server/httpapi/middleware"
	"github.com/go-chi/chi/v5"
)

// New returns a router serving every operation. jwtSecret enables author
// attribution; nil leaves all changes anonymous.
func New(svc contents.Servicer, log logging.Logger, jwtSecret []byte) *chi.Mux {
	mux := chi.NewMux()

	config := huma.DefaultConfig("DraftKeeper API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}
	api := humachi.New(mux, config)

	loggerMW := middleware.NewLogger(log)
	authorMW := middleware.NewAuthor(jwtSecret)

	health.NewHandler(log, huma.Middlewares{loggerMW.Middleware()}).SetupRoutes(api)
	contents.NewHandler(svc, log, huma.Middlewares{loggerMW.Middleware(), authorMW.Middleware()}).SetupRoutes(api)

	return mux
}
