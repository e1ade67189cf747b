package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"radiosim/internal/model"
	"radiosim/internal/store"
)

const maxBodySize = 1 << 20 // 1 MB

// createJobRequest is the JSON body for POST /jobs.
type createJobRequest struct {
	Config model.JobConfig `json:"config"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// Honor a client-supplied id, otherwise mint one.
	id := req.Config.JobID
	if id == "" {
		id = model.NewID()
		req.Config.JobID = id
	}

	now := time.Now().UTC()
	j := &model.Job{
		ID:        id,
		Status:    model.StatusPending,
		Progress:  0,
		Config:    req.Config,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The store enforces id uniqueness, so racing duplicate creates resolve
	// to exactly one winner.
	if err := s.store.CreateJob(r.Context(), j); err != nil {
		if errors.Is(err, store.ErrExists) {
			s.writeError(w, http.StatusConflict, "job id already exists")
			return
		}
		s.logger.Error("create job", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	// Fire-and-forget push to the worker; the poller is the fallback if the
	// worker is unreachable, so creation never waits on it.
	if s.dispatcher != nil {
		go s.dispatcher.Push(context.WithoutCancel(r.Context()), j.Config)
	}

	s.writeJSON(w, http.StatusCreated, j)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	j, err := s.store.GetJob(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if err != nil {
		s.logger.Error("get job", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get job")
		return
	}

	s.writeJSON(w, http.StatusOK, j)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.ListJobs(r.Context())
	if err != nil {
		s.logger.Error("list jobs", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	if jobs == nil {
		jobs = []*model.Job{}
	}

	s.writeJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var upd model.JobUpdate
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.store.UpdateJob(r.Context(), id, upd); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.logger.Error("update job", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to update job")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "job updated"})
}

func (s *Server) handleClaimJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := s.store.ClaimJob(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	if errors.Is(err, store.ErrNotPending) {
		s.writeError(w, http.StatusConflict, "job is not pending")
		return
	}
	if err != nil {
		s.logger.Error("claim job", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to claim job")
		return
	}

	j, err := s.store.GetJob(r.Context(), id)
	if err != nil {
		s.logger.Error("get claimed job", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to retrieve job")
		return
	}

	s.writeJSON(w, http.StatusOK, j)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.store.DeleteJob(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.logger.Error("delete job", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to delete job")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"message": "job deleted"})
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
