package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	clusters, loadedAt := s.snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(s.startTime).Round(time.Second).String(),
		"clusters":  len(clusters),
		"loaded_at": loadedAt,
	})
}

func (s *Server) handleListClusters(w http.ResponseWriter, r *http.Request) {
	clusters, _ := s.snapshot()
	if clusters == nil {
		// No report yet, or an empty one. Either way the contract is a
		// JSON array.
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, clusters)
}

func (s *Server) handleGetCluster(w http.ResponseWriter, r *http.Request) {
	clusterID := chi.URLParam(r, "clusterID")

	clusters, _ := s.snapshot()
	for i := range clusters {
		if clusters[i].ClusterID == clusterID {
			writeJSON(w, http.StatusOK, clusters[i])
			return
		}
	}

	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "cluster not found: " + clusterID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
