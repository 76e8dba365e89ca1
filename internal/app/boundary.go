package app

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/campopack/campopack-web/internal/content"
	"github.com/campopack/campopack-web/internal/shared"
	"github.com/campopack/campopack-web/internal/view"
)

// Boundary recovers panics raised while serving a request and answers with the
// fallback page. A response that has already started is left as it is. The
// process keeps serving.
func Boundary(logger *slog.Logger, site *content.Site) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				shared.LoggerFromContext(r.Context(), logger).Error("panic recovered",
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
				)
				if r.Header.Get("Connection") == "Upgrade" || ww.Status() != 0 {
					return
				}
				view.RenderFallback(w, site)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
