package api

import (
	"log/slog"
	"net/http"

	"github.com/MikeSquared-Agency/Funding/internal/store"
)

type AdminHandler struct {
	engine Engine
	source store.Store
	logger *slog.Logger
}

func NewAdminHandler(e Engine, src store.Store, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{engine: e, source: src, logger: logger}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Stats())
}

// Reload re-reads the snapshot source and swaps it in.
func (h *AdminHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no snapshot source configured"})
		return
	}
	if err := h.engine.Reload(r.Context(), h.source); err != nil {
		h.logger.Error("snapshot reload failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.logger.Info("snapshot reloaded")
	writeJSON(w, http.StatusOK, h.engine.Stats())
}
