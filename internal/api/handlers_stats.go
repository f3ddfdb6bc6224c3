package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleTransformStats(w http.ResponseWriter, r *http.Request) {
	if s.recorder == nil {
		jsonError(w, "transform stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"center_marker": s.orchestrator.Transformer().CenterMarker(),
		"queue_depth":   s.orchestrator.QueueDepth(),
		"latency":       s.recorder.Latency().Snapshot(),
	})
}
