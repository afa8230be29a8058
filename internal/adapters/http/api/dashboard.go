// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"io/fs"
	"net/http"
	"time"
)

// dashboardHandler handles dashboard requests
type dashboardHandler struct{}

// newdashboardHandler creates a new dashboard handler
func newdashboardHandler() *dashboardHandler {
	return &dashboardHandler{}
}

// HandleDashboard handles GET /dashboard requests.
// Returns an HTML page that scrapes /healthz and /stats client-side and
// visualizes the shadow pipeline.
func (h *dashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	// Serve embedded dashboard page
	// (http.ServeFileFS needs Go 1.22; this is its 1.21 equivalent)
	data, err := fs.ReadFile(dashboardFS, "dashboard.html")
	if err != nil {
		http.Error(w, "dashboard unavailable", http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, "dashboard.html", time.Time{}, bytes.NewReader(data))
}
