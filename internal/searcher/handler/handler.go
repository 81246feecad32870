package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/docqa/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/logger"
)

// maxAskBody bounds the JSON body of a question.
const maxAskBody = 1 << 20

// AskRequest is the body of POST /api/ask. Filename is accepted for client
// compatibility; questions are always answered from the live document.
type AskRequest struct {
	Question string `json:"question"`
	Filename string `json:"filename,omitempty"`
}

type Handler struct {
	searcher       *searcher.Searcher
	cache          *cache.AnswerCache
	maxQuestionLen int
	logger         *slog.Logger
}

// New builds the question handler. answerCache may be nil when caching is
// disabled.
func New(s *searcher.Searcher, answerCache *cache.AnswerCache, maxQuestionLen int) *Handler {
	return &Handler{
		searcher:       s,
		cache:          answerCache,
		maxQuestionLen: maxQuestionLen,
		logger:         slog.Default().With("component", "search-handler"),
	}
}

func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req AskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAskBody)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if q, truncated := validator.TruncateQuestion(req.Question, h.maxQuestionLen); truncated {
		log.Warn("question truncated", "length", len(req.Question), "max", h.maxQuestionLen)
		req.Question = q
	}

	ans, err := h.searcher.Ask(ctx, req.Question)
	if err != nil {
		log.Error("answering failed", "question", req.Question, "error", err)
		h.writeError(w, http.StatusInternalServerError, "answering failed")
		return
	}
	log.Info("question answered",
		"kind", ans.Kind,
		"returned", ans.Returned,
		"cache_hit", ans.CacheHit,
		"filename", req.Filename,
	)
	h.writeJSON(w, http.StatusOK, ans)
}

// Document reports which document is currently indexed.
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.searcher.Document())
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	stats := h.cache.Stats(r.Context())
	total := stats.Hits + stats.Misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     stats.Hits,
		"misses":   stats.Misses,
		"total":    total,
		"keys":     stats.Keys,
		"breaker":  stats.Breaker,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	deleted, err := h.cache.Invalidate(r.Context())
	if err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"status": "invalidated", "keys_deleted": deleted})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
