package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/Funding/internal/policy"
	"github.com/MikeSquared-Agency/Funding/internal/scenario"
)

type CatalogueHandler struct {
	engine Engine
}

func NewCatalogueHandler(e Engine) *CatalogueHandler {
	return &CatalogueHandler{engine: e}
}

type ProgramInfo struct {
	Key    string         `json:"key"`
	Label  string         `json:"label"`
	Kind   policy.Kind    `json:"kind"`
	Levels []policy.Level `json:"levels"`
}

type CatalogueResponse struct {
	Benefits []ProgramInfo  `json:"benefits"`
	Taxes    []ProgramInfo  `json:"taxes"`
	Groups   []policy.Group `json:"groups"`
	Levels   []policy.Level `json:"levels"`
}

func (h *CatalogueHandler) Geographies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Geographies())
}

func (h *CatalogueHandler) Programs(w http.ResponseWriter, r *http.Request) {
	resp := CatalogueResponse{
		Groups: policy.Groups(),
		Levels: []policy.Level{policy.LevelFederal, policy.LevelState},
	}
	for _, p := range policy.Programs() {
		info := ProgramInfo{Key: p.String(), Label: p.Label(), Kind: p.Kind(), Levels: p.Levels()}
		if p.Kind() == policy.KindBenefit {
			resp.Benefits = append(resp.Benefits, info)
		} else {
			resp.Taxes = append(resp.Taxes, info)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CatalogueHandler) Baseline(w http.ResponseWriter, r *http.Request) {
	geo := chi.URLParam(r, "geography")
	v, err := h.engine.Baseline(geo)
	if errors.Is(err, scenario.ErrUnknownGeography) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown geography"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, v)
}
