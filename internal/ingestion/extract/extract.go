// Package extract pulls plain text out of uploaded files.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "github.com/Adithya-Monish-Kumar-K/docqa/pkg/errors"
)

// Extractor returns the readable text of a file.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// PlainText treats the payload as UTF-8 text. Invalid sequences are dropped.
type PlainText struct{}

func (PlainText) Extract(_ context.Context, data []byte) (string, error) {
	return strings.ToValidUTF8(string(data), ""), nil
}

// Auto dispatches on content: PDF when the payload carries the PDF header,
// plain text when it is valid UTF-8 without NUL bytes, an error otherwise.
type Auto struct {
	PDF  PDF
	Text PlainText
}

func (a Auto) Extract(ctx context.Context, data []byte) (string, error) {
	switch {
	case IsPDF(data):
		return a.PDF.Extract(ctx, data)
	case utf8.Valid(data) && bytes.IndexByte(data, 0) < 0:
		return a.Text.Extract(ctx, data)
	default:
		return "", fmt.Errorf("%w: unsupported file type", apperrors.ErrExtraction)
	}
}

// IsPDF reports whether data starts with a PDF header, allowing leading
// junk within the first kilobyte as readers do.
func IsPDF(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, []byte("%PDF-"))
}
