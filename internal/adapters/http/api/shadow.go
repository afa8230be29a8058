// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"fmt"
	"net/http"
	"time"
)

// ShadowHandler handles shadow calculation requests.
type ShadowHandler struct {
	deps Dependencies
}

// NewShadowHandler creates a new shadow handler.
func NewShadowHandler(deps Dependencies) *ShadowHandler {
	return &ShadowHandler{deps: deps}
}

// HandleCalculateShadow handles GET /calculate-shadow requests.
// The optional "at" query parameter selects the instant to compute for and
// must be RFC3339. Without it the current time is used.
func (h *ShadowHandler) HandleCalculateShadow(w http.ResponseWriter, r *http.Request) {
	const op = "api.calculate_shadow"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	var at time.Time
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request",
				fmt.Errorf("%s: %w: invalid at; must be RFC3339", op, ErrBadRequest))
			return
		}
		at = parsed
	}

	report, err := h.deps.CalculateShadow(r.Context(), at)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error",
			fmt.Errorf("%s: %w: %w", op, ErrCompute, err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}
