package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/atlasjobs/harvester/pkg/jobstore"
	"github.com/atlasjobs/harvester/pkg/pipeline"
)

// StatsResponse is the wire shape of GET /api/stats.
type StatsResponse struct {
	TotalJobs int `json:"total_jobs"`
	Employers int `json:"employers"`
}

// StatsHandler reports store-wide totals.
func StatsHandler(store *jobstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		total, employers, err := store.Totals(r.Context())
		if err != nil {
			logger.Error("stats query failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, StatsResponse{TotalJobs: total, Employers: employers})
	}
}

// ProgressHandler exposes the crawl resume checkpoint. An absent
// checkpoint reads as an empty one.
func ProgressHandler(progress *pipeline.ProgressFile, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := progress.Load()
		if err != nil {
			logger.Error("progress read failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "progress unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
