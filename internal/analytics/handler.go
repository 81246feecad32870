package analytics

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// Handler serves the aggregated question and ingestion statistics.
type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator) *Handler {
	return &Handler{
		aggregator: aggregator,
		logger:     slog.Default().With("component", "analytics-handler"),
	}
}

// Stats serves GET /api/analytics. The optional top parameter trims the
// question and not-found term lists.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	top := topQueryCount
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > topQueryCount {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "top must be an integer between 0 and " + strconv.Itoa(topQueryCount),
			})
			return
		}
		top = n
	}

	stats := h.aggregator.Stats()
	stats.TopQuestions = truncate(stats.TopQuestions, top)
	stats.NotFoundTerms = truncate(stats.NotFoundTerms, top)
	h.writeJSON(w, http.StatusOK, stats)
}

func truncate(counts []QueryCount, n int) []QueryCount {
	if len(counts) > n {
		return counts[:n]
	}
	return counts
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to write analytics response", "error", err)
	}
}
