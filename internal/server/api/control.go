package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/mudra/internal/session"
)

// Controller is the session surface the dashboard drives.
type Controller interface {
	Start() error
	Stop()
	ToggleMouse() bool
	Snapshot() session.Snapshot
}

// ControlHandler serves session state and lifecycle commands.
type ControlHandler struct {
	ctl Controller
}

// NewControlHandler creates a ControlHandler for ctl.
func NewControlHandler(ctl Controller) *ControlHandler {
	return &ControlHandler{ctl: ctl}
}

type mouseResponse struct {
	MouseEnabled bool `json:"mouseEnabled"`
}

// State handles GET /api/state.
func (h *ControlHandler) State(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, h.ctl.Snapshot())
}

// Start handles POST /api/session/start.
func (h *ControlHandler) Start(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := h.ctl.Start(); err != nil {
		if errors.Is(err, session.ErrCameraUnavailable) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.ctl.Snapshot())
}

// Stop handles POST /api/session/stop.
func (h *ControlHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	h.ctl.Stop()
	writeJSON(w, http.StatusOK, h.ctl.Snapshot())
}

// ToggleMouse handles POST /api/mouse/toggle.
func (h *ControlHandler) ToggleMouse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, mouseResponse{MouseEnabled: h.ctl.ToggleMouse()})
}
