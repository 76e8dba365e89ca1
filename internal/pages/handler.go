// Package pages serves the static brochure pages: home, product sheet, the
// legal documents and the not-found page.
package pages

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campopack/campopack-web/internal/content"
	"github.com/campopack/campopack-web/internal/shared"
	"github.com/campopack/campopack-web/internal/view"
)

// NotFoundRedirectSeconds is the countdown before the not-found page returns
// the visitor home.
const NotFoundRedirectSeconds = 3

// Handler renders content driven pages.
type Handler struct {
	logger    *slog.Logger
	templates *view.Engine
	site      *content.Site
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, templates *view.Engine, site *content.Site) *Handler {
	return &Handler{logger: logger, templates: templates, site: site}
}

// MountRoutes registers every page on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/producto", h.product)
	for _, slug := range content.LegalSlugs {
		r.Get("/"+slug, h.legal(slug))
	}
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "pages/home.html", content.PageHome, nil, nil)
}

func (h *Handler) product(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "pages/product.html", content.PageProduct, nil, nil)
}

func (h *Handler) legal(slug string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, ok := h.site.LegalDoc(slug)
		if !ok {
			h.NotFound(w, r)
			return
		}
		h.render(w, r, http.StatusOK, "pages/legal.html", slug, doc, nil)
	}
}

// NotFound renders the 404 page, which sends the visitor home after a short
// countdown.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "pages/not_found.html", content.PageNotFound, nil,
		&view.Refresh{Seconds: NotFoundRedirectSeconds, URL: "/"})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, page string, data any, refresh *view.Refresh) {
	td := view.TemplateData{
		Meta:        h.site.Page(page),
		CurrentPath: r.URL.Path,
		Refresh:     refresh,
		Data:        data,
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		td.Flash = sess.PopFlash()
	}
	if err := h.templates.Render(w, status, name, td); err != nil {
		shared.LoggerFromContext(r.Context(), h.logger).Error("render failed", slog.String("page", page), slog.Any("error", err))
	}
}
