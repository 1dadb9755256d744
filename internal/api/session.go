package api

import (
	"log/slog"
	"net/http"

	"github.com/Sajidcodes/perplexity/internal/session"
)

// sessionHandler serves read-only session metadata.
type sessionHandler struct {
	lister session.Lister
	logger *slog.Logger
}

// list handles GET /api/sessions.
func (h *sessionHandler) list(w http.ResponseWriter, r *http.Request) {
	infos, err := h.lister.List(r.Context())
	if err != nil {
		h.logger.Error("listing sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "list_failed", "failed to list sessions", h.logger)
		return
	}

	if infos == nil {
		infos = []session.Info{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": infos})
}
