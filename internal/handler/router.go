package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/datachat/internal/config"
	"github.com/zhouzirui/datachat/internal/handler/api"
	"github.com/zhouzirui/datachat/internal/handler/live"
	"github.com/zhouzirui/datachat/internal/handler/page"
	middlewarePkg "github.com/zhouzirui/datachat/internal/middleware"
	"github.com/zhouzirui/datachat/internal/service/session"
	"github.com/zhouzirui/datachat/internal/service/surface"
	"github.com/zhouzirui/datachat/internal/view"
	"github.com/zhouzirui/datachat/pkg/utils"
)

// NewRouter wires HTTP routes to the session store and the page renderer.
func NewRouter(store *session.Store, renderer *view.Renderer, sessionCfg config.SessionConfig, uploadCfg config.UploadConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": store.Len(),
		})
	})

	surfaceSvc := surface.NewService(store)

	r.Group(func(r chi.Router) {
		r.Use(middlewarePkg.Session(store, sessionCfg.CookieName))

		page.New(surfaceSvc, renderer, uploadCfg.MaxBytes).RegisterRoutes(r)
		live.New(surfaceSvc, renderer).RegisterRoutes(r)

		r.Route("/api", func(apiRouter chi.Router) {
			api.New(surfaceSvc, uploadCfg.MaxBytes).RegisterRoutes(apiRouter)
		})
	})

	return r
}
