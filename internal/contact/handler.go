// Package contact serves the quote request page. Each visitor's draft lives in
// their session between requests; every request rebuilds an inquiry.Controller
// from it, applies the visitor's action and stores the result back.
package contact

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/campopack/campopack-web/internal/content"
	"github.com/campopack/campopack-web/internal/inquiry"
	"github.com/campopack/campopack-web/internal/platform/httpx"
	"github.com/campopack/campopack-web/internal/shared"
	"github.com/campopack/campopack-web/internal/view"
)

const (
	// SessionKey stores the inquiry snapshot in the visitor session.
	SessionKey = "inquiry"
	// Path is where the page is mounted.
	Path = "/contacto"
)

// Handler serves GET and POST on the contact page.
type Handler struct {
	logger      *slog.Logger
	templates   *view.Engine
	site        *content.Site
	relay       inquiry.Relay
	validator   *inquiry.Validator
	csrf        *shared.CSRFManager
	observe     func(inquiry.Outcome)
	clock       func() time.Time
	rejectDelay time.Duration
	submitLimit int
}

// Option customises a Handler.
type Option func(*Handler)

// WithObserver receives every submission outcome.
func WithObserver(fn func(inquiry.Outcome)) Option {
	return func(h *Handler) { h.observe = fn }
}

// WithClock overrides time.Now for rejection timing.
func WithClock(fn func() time.Time) Option {
	return func(h *Handler) { h.clock = fn }
}

// WithRejectDelay overrides how long validation errors stay visible.
func WithRejectDelay(d time.Duration) Option {
	return func(h *Handler) { h.rejectDelay = d }
}

// WithSubmitLimit caps submissions per client IP per minute. Zero disables the
// limit.
func WithSubmitLimit(perMinute int) Option {
	return func(h *Handler) { h.submitLimit = perMinute }
}

// NewHandler builds the contact page handler.
func NewHandler(logger *slog.Logger, templates *view.Engine, site *content.Site, relay inquiry.Relay, csrf *shared.CSRFManager, opts ...Option) *Handler {
	h := &Handler{
		logger:    logger,
		templates: templates,
		site:      site,
		relay:     relay,
		validator: inquiry.NewValidator(site.ProductTypeTags()),
		csrf:      csrf,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// MountRoutes registers the page on r.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
	if h.submitLimit > 0 {
		r.With(httprate.Limit(h.submitLimit, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(h.limited),
		)).Post("/", h.submit)
		return
	}
	r.Post("/", h.submit)
}

// PageData feeds pages/contact.html.
type PageData struct {
	Draft        inquiry.Inquiry
	State        inquiry.State
	Violations   []inquiry.Violation
	FieldErrors  map[string]string
	Messages     content.ContactMessages
	ProductTypes []content.ProductType
}

// Result is the JSON body returned to clients that submit with
// Accept: application/json.
type Result struct {
	State   inquiry.State `json:"state"`
	Message string        `json:"message"`
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := shared.LoggerFromContext(ctx, h.logger)
	sess := shared.SessionFromContext(ctx)
	if sess == nil {
		logger.Error("contact page without session")
		view.RenderFallback(w, h.site)
		return
	}
	token, err := h.csrf.EnsureToken(ctx, sess)
	if err != nil {
		logger.Error("ensure csrf token", slog.Any("error", err))
		view.RenderFallback(w, h.site)
		return
	}

	ctrl := h.controller(ctx, sess)
	state := ctrl.State()
	violations := ctrl.Violations()
	data := PageData{
		Draft:        ctrl.Draft(),
		State:        state,
		Violations:   violations,
		FieldErrors:  fieldErrors(violations),
		Messages:     h.site.Contact.Messages,
		ProductTypes: h.site.ProductTypes,
	}

	var refresh *view.Refresh
	switch state {
	case inquiry.StateAccepted:
		// The confirmation is shown once.
		ctrl.Acknowledge()
	case inquiry.StateRejected:
		refresh = &view.Refresh{Seconds: ceilSeconds(ctrl.RejectionRemaining()), URL: Path}
	}
	h.save(ctx, sess, ctrl)

	if err := h.templates.Render(w, http.StatusOK, "pages/contact.html", view.TemplateData{
		Meta:        h.site.Page(content.PageContact),
		CSRFToken:   token,
		Flash:       sess.PopFlash(),
		CurrentPath: Path,
		Refresh:     refresh,
		Data:        data,
	}); err != nil {
		logger.Error("render failed", slog.String("page", "contact"), slog.Any("error", err))
	}
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := shared.LoggerFromContext(ctx, h.logger)
	sess := shared.SessionFromContext(ctx)
	if sess == nil {
		h.fail(w, r, shared.ErrSessionUnavailable)
		return
	}
	if err := r.ParseForm(); err != nil {
		logger.Warn("parse inquiry form", slog.Any("error", err))
		if httpx.WantsJSON(r) {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed form body")
			return
		}
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	ctrl := h.controller(ctx, sess)
	for _, field := range inquiry.Fields {
		if values, ok := r.PostForm[field]; ok && len(values) > 0 {
			ctrl.UpdateField(field, values[0])
		}
	}

	// The relay call is bounded by its own timeout; a visitor navigating away
	// must not cut a delivery in half.
	err := ctrl.Submit(context.WithoutCancel(ctx))
	switch {
	case err == nil:
		logger.Info("inquiry relayed", slog.String("product", r.PostForm.Get(inquiry.FieldProductType)))
	case errors.Is(err, inquiry.ErrSubmitInProgress):
		logger.Info("duplicate inquiry submit ignored")
	default:
		if te, ok := inquiry.IsTransportError(err); ok {
			logger.Warn("inquiry relay failed", slog.Int("status", te.StatusCode), slog.Any("error", te.Cause))
		}
	}

	if httpx.WantsJSON(r) {
		h.respondJSON(ctx, w, sess, ctrl, err)
		return
	}
	h.save(ctx, sess, ctrl)
	http.Redirect(w, r, Path, http.StatusSeeOther)
}

func (h *Handler) respondJSON(ctx context.Context, w http.ResponseWriter, sess *shared.Session, ctrl *inquiry.Controller, err error) {
	messages := h.site.Contact.Messages
	if ve, ok := inquiry.IsValidationError(err); ok {
		h.save(ctx, sess, ctrl)
		httpx.ProblemWithErrors(w, http.StatusUnprocessableEntity, "Validation Failed", messages.Rejected, ve.Violations)
		return
	}
	if errors.Is(err, inquiry.ErrSubmitInProgress) {
		h.save(ctx, sess, ctrl)
		httpx.Problem(w, http.StatusConflict, "Submission In Progress", messages.Submitting)
		return
	}
	if err != nil {
		h.save(ctx, sess, ctrl)
		httpx.Problem(w, http.StatusBadGateway, "Relay Failed", messages.Failed)
		return
	}
	ctrl.Acknowledge()
	h.save(ctx, sess, ctrl)
	httpx.JSON(w, http.StatusOK, Result{State: inquiry.StateAccepted, Message: messages.Accepted})
}

func (h *Handler) limited(w http.ResponseWriter, r *http.Request) {
	shared.LoggerFromContext(r.Context(), h.logger).Warn("inquiry submit rate limited")
	if httpx.WantsJSON(r) {
		httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "")
		return
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "warning", Message: "Demasiados envíos. Intenta nuevamente en un minuto."})
	}
	http.Redirect(w, r, Path, http.StatusSeeOther)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	shared.LoggerFromContext(r.Context(), h.logger).Error("contact request failed", slog.Any("error", err))
	if httpx.WantsJSON(r) {
		httpx.RespondError(w, err)
		return
	}
	view.RenderFallback(w, h.site)
}

func (h *Handler) controller(ctx context.Context, sess *shared.Session) *inquiry.Controller {
	ctrl := inquiry.NewController(h.relay, h.validator, inquiry.Options{
		Key:         sess.ID,
		RejectDelay: h.rejectDelay,
		Clock:       h.clock,
		Observe:     h.observe,
	})
	var snap inquiry.Snapshot
	found, err := sess.GetJSON(SessionKey, &snap)
	if err != nil {
		shared.LoggerFromContext(ctx, h.logger).Warn("discarding unreadable inquiry snapshot", slog.Any("error", err))
		sess.Delete(SessionKey)
		return ctrl
	}
	if found {
		ctrl.Restore(snap)
	}
	return ctrl
}

func (h *Handler) save(ctx context.Context, sess *shared.Session, ctrl *inquiry.Controller) {
	snap := ctrl.Snapshot()
	if snap.State == inquiry.StateIdle && snap.Draft.IsEmpty() {
		sess.Delete(SessionKey)
		return
	}
	if err := sess.SetJSON(SessionKey, snap); err != nil {
		shared.LoggerFromContext(ctx, h.logger).Error("store inquiry snapshot", slog.Any("error", err))
	}
}

func fieldErrors(violations []inquiry.Violation) map[string]string {
	if len(violations) == 0 {
		return nil
	}
	out := make(map[string]string, len(violations))
	for _, v := range violations {
		out[v.Field] = v.Message
	}
	return out
}

func ceilSeconds(d time.Duration) int {
	secs := int(d / time.Second)
	if d%time.Second > 0 {
		secs++
	}
	if secs < 1 {
		secs = 1
	}
	return secs
}
