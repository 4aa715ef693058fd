package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"models": map[string]string{
			"structure":  s.cfg.StructureModel,
			"extraction": s.cfg.ExtractionModel,
		},
		"stats": s.stats.Snapshot(),
	})
}
