package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/skelgen/internal/pipeline"
	"github.com/dgallion1/skelgen/internal/store"
	"github.com/go-chi/chi/v5"
)

var resultParts = []string{pipeline.PartSkeleton, pipeline.PartContent}

// handleJobResult serves a stored render of a job. Results outlive the job
// record, so the job itself need not be known.
func (s *Server) handleJobResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	part := chi.URLParam(r, "part")
	if part != pipeline.PartSkeleton && part != pipeline.PartContent {
		jsonError(w, "part must be skeleton or content", http.StatusBadRequest)
		return
	}

	data, err := s.orchestrator.Result(r.Context(), jobID, part)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "result not found", http.StatusNotFound)
			return
		}
		s.log.Error("result read failed", "job_id", jobID, "part", part, "error", err)
		jsonError(w, "failed to read result", http.StatusServiceUnavailable)
		return
	}
	writeRendered(w, "html", "", data)
}

// handleDeleteJobResult removes every stored render of a job.
func (s *Server) handleDeleteJobResult(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	st := s.orchestrator.Store()

	deleted := 0
	for _, part := range resultParts {
		existed, err := st.Delete(r.Context(), store.ResultKey(jobID, part))
		if err != nil {
			s.log.Error("result delete failed", "job_id", jobID, "part", part, "error", err)
			code := http.StatusInternalServerError
			if store.IsRetryable(err) {
				code = http.StatusServiceUnavailable
			}
			jsonError(w, "failed to delete result", code)
			return
		}
		if existed {
			deleted++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":  jobID,
		"deleted": deleted,
	})
}
