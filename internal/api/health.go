package api

import "net/http"

// handleHealthz reports liveness and verifies the store is reachable.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.GetJobStats(r.Context()); err != nil {
		s.logger.Error("health check store probe failed", "error", err)
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
