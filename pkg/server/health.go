package server

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	Timestamp   string `json:"timestamp"`
}

// handleHealth handles the liveness probe endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(HealthResponse{
		Status:      "healthy",
		Connections: s.manager.Count(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}
