// Package validator checks request input before it reaches the engine and
// reports per-field problems.
package validator

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/docqa/internal/ingestion"
)

const (
	maxSourceLength   = 255
	maxFilenameLength = 255
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return strings.Join(parts, "; ")
}

type fields map[string]string

func (f fields) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

// ValidateDocumentRequest checks a pre-extracted text submission.
func ValidateDocumentRequest(req *ingestion.DocumentRequest, maxBytes int64) error {
	errs := fields{}
	if len(req.Source) > maxSourceLength {
		errs["source"] = fmt.Sprintf("source must be at most %d characters", maxSourceLength)
	}
	if strings.TrimSpace(req.Text) == "" {
		errs["text"] = "text is required"
	} else if maxBytes > 0 && int64(len(req.Text)) > maxBytes {
		errs["text"] = fmt.Sprintf("text must be at most %d bytes", maxBytes)
	} else if !utf8.ValidString(req.Text) {
		errs["text"] = "text must be valid UTF-8"
	}
	return errs.err()
}

// ValidateUpload checks the multipart file part of an upload.
func ValidateUpload(filename string, size int64, maxBytes int64) error {
	errs := fields{}
	if strings.TrimSpace(filename) == "" {
		errs["filename"] = "filename is required"
	} else if len(filename) > maxFilenameLength {
		errs["filename"] = fmt.Sprintf("filename must be at most %d characters", maxFilenameLength)
	}
	if size == 0 {
		errs["file"] = "file is empty"
	} else if maxBytes > 0 && size > maxBytes {
		errs["file"] = fmt.Sprintf("file must be at most %d bytes", maxBytes)
	}
	return errs.err()
}

// TruncateQuestion cuts question to at most maxLength bytes without splitting
// a UTF-8 sequence, reporting whether it was cut. Questions are never
// rejected; an empty one is answered with a document overview.
func TruncateQuestion(question string, maxLength int) (string, bool) {
	if maxLength <= 0 || len(question) <= maxLength {
		return question, false
	}
	cut := maxLength
	for cut > 0 && !utf8.RuneStart(question[cut]) {
		cut--
	}
	return question[:cut], true
}
