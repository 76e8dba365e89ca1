package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/campopack/campopack-web/internal/content"
	"github.com/campopack/campopack-web/internal/shared"
	"github.com/campopack/campopack-web/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
	site      *content.Site
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Meta        content.PageMeta
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	Site        *content.Site
	Year        int
	// Refresh, when set, is emitted as a meta refresh header.
	Refresh *Refresh
	Data    any
}

// Refresh describes a client side redirect after a delay.
type Refresh struct {
	Seconds int
	URL     string
}

// NewEngine parses templates at build-time.
func NewEngine(site *content.Site) (*Engine, error) {
	tpl, err := template.New("root").Funcs(funcMap()).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl, site: site}, nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"isActive": func(current, href string) bool {
			if href == "/" {
				return current == "/"
			}
			return current == href || strings.HasPrefix(current, href+"/")
		},
	}
}

// Site returns the content the engine renders by default.
func (e *Engine) Site() *content.Site {
	if e == nil {
		return nil
	}
	return e.site
}

// Render executes a named template into a buffer and writes it with status.
// When execution fails nothing of the partial output is sent; the fallback
// page is written with status 500 instead and the error is returned.
func (e *Engine) Render(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		RenderFallback(w, nil)
		return fmt.Errorf("template engine not initialised")
	}
	if data.Site == nil {
		data.Site = e.site
	}
	if data.Year == 0 {
		data.Year = time.Now().Year()
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		RenderFallback(w, data.Site)
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
