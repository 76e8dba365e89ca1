package view

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/campopack/campopack-web/internal/content"
)

// fallbackTemplate does not share anything with the parsed template set, so it
// still renders when the page templates are what failed.
var fallbackTemplate = template.Must(template.New("fallback").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body class="fallback">
<main>
<h1>{{.Title}}</h1>
<p>{{.Body}}</p>
<p><a href="">{{.Action}}</a></p>
</main>
</body>
</html>
`))

// RenderFallback writes the error page with status 500.
func RenderFallback(w http.ResponseWriter, site *content.Site) {
	var buf bytes.Buffer
	if err := fallbackTemplate.Execute(&buf, site.FallbackCopy()); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h := w.Header()
	h.Del("Content-Length")
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = buf.WriteTo(w)
}
