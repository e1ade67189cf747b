package api

import (
	"net/http"

	"radiosim/internal/scenes"
)

func (s *Server) handleListScenes(w http.ResponseWriter, r *http.Request) {
	list, err := scenes.List(s.assetsDir)
	if err != nil {
		s.logger.Error("list scenes", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list scenes")
		return
	}

	s.writeJSON(w, http.StatusOK, list)
}
