package perf

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campopack/campopack-web/internal/content"
	"github.com/campopack/campopack-web/internal/pages"
	"github.com/campopack/campopack-web/internal/view"
	_ "github.com/campopack/campopack-web/testing"
)

func newPageRouter(tb testing.TB) http.Handler {
	tb.Helper()
	site, err := content.Load(content.DefaultVariant)
	if err != nil {
		tb.Fatalf("load content: %v", err)
	}
	templates, err := view.NewEngine(site)
	if err != nil {
		tb.Fatalf("parse templates: %v", err)
	}
	handler := pages.NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), templates, site)
	r := chi.NewRouter()
	handler.MountRoutes(r)
	r.NotFound(handler.NotFound)
	return r
}

func TestPageRenderLatencyTargets(t *testing.T) {
	router := newPageRouter(t)
	scenarios := []struct {
		path      string
		threshold time.Duration
	}{
		{path: "/", threshold: 100 * time.Millisecond},
		{path: "/producto", threshold: 100 * time.Millisecond},
		{path: "/no-existe", threshold: 100 * time.Millisecond},
	}

	for _, scenario := range scenarios {
		samples := make([]time.Duration, 0, 20)
		for i := 0; i < 20; i++ {
			start := time.Now()
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, scenario.path, nil))
			samples = append(samples, time.Since(start))
			if rr.Code >= http.StatusInternalServerError {
				t.Fatalf("%s: unexpected status %d", scenario.path, rr.Code)
			}
		}
		if p95 := percentile95(samples); p95 > scenario.threshold {
			t.Fatalf("%s render latency regression: p95=%s threshold=%s", scenario.path, p95, scenario.threshold)
		}
	}
}

func BenchmarkHomePage(b *testing.B) {
	router := newPageRouter(b)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	}
}

func BenchmarkProductPage(b *testing.B) {
	router := newPageRouter(b)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/producto", nil))
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
