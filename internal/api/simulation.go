package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/marketmock/nsesim/internal/engine"
)

// handleGetSettings returns a snapshot of the current simulation settings.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": s.ctrl.Get()})
}

// handlePutSettings applies a partial settings update. Out-of-bound fields
// are silently ignored; the response carries the resulting settings.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var u engine.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings payload")
		return
	}
	applied := s.ctrl.Apply(u)
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": applied})
}

// handleReset reseeds all simulated state from the catalog. Settings are
// left untouched.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.store.Reset(time.Now())
	s.log.Info("simulation state reset")
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Simulation reset"})
}
