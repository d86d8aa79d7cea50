package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/inschoolz/engine/internal/domain"
)

// ─── Admin Settings ─────────────────────────────────────────────────────────

// handleGetSettings returns the effective settings: the stored
// document decoded over the defaults, exactly as the engine sees it.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Get())
}

// handlePutSettings replaces the settings document and drops the
// cache so the next award reads the new rates.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Reject documents that do not decode; a partial document is
	// fine, unknown fields are not.
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	var probe domain.SystemSettings
	if err := dec.Decode(&probe); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings document: "+err.Error())
		return
	}

	if err := s.db.SaveSettingsDoc(body); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.settings.Invalidate()

	writeJSON(w, http.StatusOK, s.settings.Get())
}
