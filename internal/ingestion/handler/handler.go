package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/docqa/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/docqa/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/logger"
)

// multipartOverhead is the slack allowed on top of the file limit for the
// multipart envelope.
const multipartOverhead = 1 << 20

type Handler struct {
	publisher *publisher.Publisher
	fieldName string
	maxBytes  int64
	logger    *slog.Logger
}

func New(pub *publisher.Publisher, fieldName string, maxBytes int64) *Handler {
	if fieldName == "" {
		fieldName = "pdf"
	}
	return &Handler{
		publisher: pub,
		fieldName: fieldName,
		maxBytes:  maxBytes,
		logger:    slog.Default().With("component", "ingestion-handler"),
	}
}

// Upload accepts a multipart file, extracts and indexes it, and replaces the
// live document on success.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, apperrors.ErrPayloadTooLarge.Error())
			return
		}
		h.writeError(w, http.StatusBadRequest, "expected a multipart form upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(h.fieldName)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "missing file field '"+h.fieldName+"'")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Error("reading upload failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"message": ingestion.MessageFailed})
		return
	}
	if h.maxBytes > 0 && int64(len(data)) > h.maxBytes {
		h.writeError(w, http.StatusRequestEntityTooLarge, apperrors.ErrPayloadTooLarge.Error())
		return
	}
	if err := validator.ValidateUpload(header.Filename, int64(len(data)), h.maxBytes); err != nil {
		h.writeValidationError(w, err)
		return
	}

	resp, err := h.publisher.Upload(ctx, header.Filename, data)
	if err != nil {
		log.Error("upload processing failed",
			"file", header.Filename,
			"size", len(data),
			"error", err,
		)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"message": ingestion.MessageFailed})
		return
	}
	log.Info("upload processed",
		"file", resp.File,
		"sufficient", resp.Sufficient,
		"units", resp.Units,
		"version", resp.Version,
	)
	h.writeJSON(w, http.StatusOK, resp)
}

// Documents indexes text submitted as JSON.
func (h *Handler) Documents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	}
	var req ingestion.DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, apperrors.ErrPayloadTooLarge.Error())
			return
		}
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validator.ValidateDocumentRequest(&req, h.maxBytes); err != nil {
		h.writeValidationError(w, err)
		return
	}

	resp, err := h.publisher.Submit(ctx, &req)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		log.Error("document indexing failed",
			"source", req.Source,
			"error", err,
			"status_code", statusCode,
		)
		h.writeError(w, statusCode, "document indexing failed")
		return
	}
	log.Info("document submitted",
		"source", req.Source,
		"sufficient", resp.Sufficient,
		"units", resp.Units,
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeValidationError(w http.ResponseWriter, err error) {
	var validationErr *validator.ValidationError
	if errors.As(err, &validationErr) {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
		return
	}
	h.writeError(w, http.StatusBadRequest, err.Error())
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
