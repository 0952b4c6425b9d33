package api

import (
	"net/http"
)

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.chat == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	resp := map[string]any{
		"model": s.cfg.AnthropicModel,
		"stats": s.chat.Stats().Snapshot(),
	}
	if s.imports != nil {
		resp["import_queue_depth"] = s.imports.QueueDepth()
	}
	writeJSON(w, http.StatusOK, resp)
}
