package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/campopack/campopack-web/internal/contact"
	"github.com/campopack/campopack-web/internal/content"
	"github.com/campopack/campopack-web/internal/observability"
	"github.com/campopack/campopack-web/internal/pages"
	"github.com/campopack/campopack-web/internal/shared"
	"github.com/campopack/campopack-web/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Site           *content.Site
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics
	Pages          *pages.Handler
	Contact        *contact.Handler
}

// NewRouter constructs the chi.Router serving the site.
func NewRouter(params RouterParams) http.Handler {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	stack := MiddlewareStack(MiddlewareConfig{
		Logger:         logger,
		Config:         params.Config,
		Site:           params.Site,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	})
	r.Use(stack.Edge...)
	if params.Config == nil || !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		// Assets skip sessions and CSRF.
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	r.Group(func(r chi.Router) {
		r.Use(stack.Pages...)
		if params.Pages != nil {
			params.Pages.MountRoutes(r)
		}
		if params.Contact != nil {
			r.Route(contact.Path, params.Contact.MountRoutes)
		}
	})

	if params.Pages != nil {
		r.NotFound(params.Pages.NotFound)
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
// Assets are embedded in the binary and only change on deploy.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
