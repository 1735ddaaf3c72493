package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/modules"
	"github.com/panelkit/panelkit/internal/platform/httpx"
	roleshttp "github.com/panelkit/panelkit/internal/roles/http"
	"github.com/panelkit/panelkit/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Gate           auth.Gate
	AuthHandler    *auth.Handler
	RolesHandler   *roleshttp.Handler
	ModulesHandler *modules.Handler
	UsersHandler   *users.Handler
}

// NewRouter constructs the chi.Router. Everything except login sits behind
// the authentication gate; per-module guards are mounted by each handler.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(params.Gate.Authenticate)
		r.Route("/roles", func(r chi.Router) {
			params.RolesHandler.MountRoutes(r)
		})
		r.Route("/modules", func(r chi.Router) {
			params.ModulesHandler.MountRoutes(r)
		})
		r.Route("/users", func(r chi.Router) {
			params.UsersHandler.MountRoutes(r)
		})
	})

	return r
}
