package v1alpha1

import (
	"net/http"

	"github.com/recruitly/screening-engine/internal/handlers/v1alpha1/mappers"
	"github.com/recruitly/screening-engine/pkg/log"
)

// (GET /health)
func (h *ServiceHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// (GET /api/v1/stats)
func (h *ServiceHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	logger := log.NewDebugLogger("info_handler").WithContext(r.Context()).Operation("get_stats").Build()

	stats, err := h.stats.Statistics(r.Context())
	if err != nil {
		logger.Error(err).Log()
		respondError(w, r, err, "get statistics")
		return
	}

	respond(w, r, http.StatusOK, mappers.StatsToApi(stats))
}
