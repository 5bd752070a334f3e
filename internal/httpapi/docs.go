package httpapi

import (
	"embed"
	"net/http"
)

//go:embed openapi.json docs.html
var docsFS embed.FS

// docsHandler serves the hand-written OpenAPI document and a minimal
// documentation shell under /api/docs. Generating the OpenAPI document
// itself is out of scope (spec.md §1's "OpenAPI document generator" is an
// external collaborator) — this is a static artifact, not a generated one.
func docsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && r.URL.Path != "" {
			http.NotFound(w, r)
			return
		}
		b, _ := docsFS.ReadFile("docs.html")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(b)
	})
	mux.HandleFunc("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		b, _ := docsFS.ReadFile("openapi.json")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
	})
	return mux
}
