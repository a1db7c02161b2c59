// Package handler contains the HTTP handlers of the catch log.
//
// Handlers parse requests, call the service and write responses. They hold
// no business rules: owner checks and date defaults live in internal/service.
package handler

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
)

// StaticHandler serves the frontend: two fixed pages plus an asset mount.
// Files are read from disk on every request; nothing is templated.
type StaticHandler struct {
	dir    string
	logger *slog.Logger
}

// NewStaticHandler serves files from dir.
func NewStaticHandler(dir string, logger *slog.Logger) *StaticHandler {
	return &StaticHandler{dir: dir, logger: logger}
}

// HandleIndex serves index.html for GET / and GET /index.html.
func (h *StaticHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, "index.html")
}

// HandleCharts serves charts.html.
func (h *StaticHandler) HandleCharts(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, "charts.html")
}

// Assets returns a file server over the frontend directory, to be mounted
// under a prefix that the caller strips, e.g. /static/.
func (h *StaticHandler) Assets() http.Handler {
	return http.FileServer(http.Dir(h.dir))
}

// serveFile writes one file. http.ServeFile is avoided because it
// redirects any path ending in /index.html to its directory.
func (h *StaticHandler) serveFile(w http.ResponseWriter, r *http.Request, name string) {
	path := filepath.Join(h.dir, name)

	f, err := os.Open(path)
	if err != nil {
		h.logger.Error("frontend file unavailable",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// ServeContent sniffs the type from the extension and handles
	// If-Modified-Since and Range for us.
	http.ServeContent(w, r, name, info.ModTime(), f)
}
