package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// Prober performs the liveness read.
type Prober interface {
	Probe(ctx context.Context) (int, error)
}

// KeepaliveResponse is the body of GET /keepalive. Rows is set on success,
// Error on failure.
type KeepaliveResponse struct {
	OK    bool   `json:"ok"`
	Rows  *int   `json:"supabase_rows,omitempty"`
	Error string `json:"error,omitempty"`
}

// KeepaliveHandler pings the record store so a hosted store that suspends
// when idle stays warm. An external scheduler is expected to call it.
type KeepaliveHandler struct {
	prober Prober
	logger *slog.Logger
}

// NewKeepaliveHandler creates a KeepaliveHandler that probes through prober.
func NewKeepaliveHandler(prober Prober, logger *slog.Logger) *KeepaliveHandler {
	return &KeepaliveHandler{prober: prober, logger: logger}
}

// HandleKeepalive always answers 200. A failed probe is reported in the
// body only, so a cold or broken store never shows up as an error status
// to whoever is pinging.
//
// HTTP: GET /keepalive
// 200:  {"ok":true,"supabase_rows":1}
// 200:  {"ok":false,"error":"..."}
func (h *KeepaliveHandler) HandleKeepalive(w http.ResponseWriter, r *http.Request) {
	n, err := h.prober.Probe(r.Context())
	if err != nil {
		h.logger.Warn("keepalive probe failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusOK, KeepaliveResponse{OK: false, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, KeepaliveResponse{OK: true, Rows: &n})
}
