package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/MikeSquared-Agency/Funding/internal/policy"
	"github.com/MikeSquared-Agency/Funding/internal/scenario"
)

type ScenariosHandler struct {
	engine Engine
	logger *slog.Logger
}

func NewScenariosHandler(e Engine, logger *slog.Logger) *ScenariosHandler {
	return &ScenariosHandler{engine: e, logger: logger}
}

// Create evaluates one reform. Configuration errors are 400, undefined
// results 422.
func (h *ScenariosHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req policy.Params
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	ev, err := h.engine.Evaluate(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, ev)
	case scenario.IsConfigError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case scenario.IsDegenerate(err):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		h.logger.Error("scenario evaluation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

// writeJSON encodes v before writing status. Encode failures are 500s.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"internal error"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}
