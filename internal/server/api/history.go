package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/mudra/internal/store"
)

// History limits.
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// HistoryHandler lists recorded sessions and gesture events.
type HistoryHandler struct {
	store *store.Store
}

// NewHistoryHandler creates a HistoryHandler backed by s.
func NewHistoryHandler(s *store.Store) *HistoryHandler {
	return &HistoryHandler{store: s}
}

type historyResponse struct {
	Events   []*store.Event     `json:"events"`
	Counts   []store.LabelCount `json:"counts"`
	Sessions []*store.Session   `json:"sessions"`
}

// ServeHTTP handles GET /api/history?limit=N.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxHistoryLimit)
	}

	ctx := r.Context()
	var (
		resp historyResponse
		err  error
	)
	if sessionID := r.URL.Query().Get("session"); sessionID != "" {
		resp.Events, err = h.store.Events().ListBySession(ctx, sessionID)
	} else {
		resp.Events, err = h.store.Events().Recent(ctx, limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	if resp.Counts, err = h.store.Events().CountByLabel(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count events")
		return
	}
	if resp.Sessions, err = h.store.Sessions().List(ctx, limit); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
