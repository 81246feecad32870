package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	apperrors "github.com/Adithya-Monish-Kumar-K/docqa/pkg/errors"
)

// DefaultMaxPages caps how many pages are read from one file.
const DefaultMaxPages = 2000

// PDF extracts the text drawn on each page, decoding through the page fonts'
// encodings and ToUnicode maps. Pages are joined with newlines. Encrypted
// files are rejected.
type PDF struct {
	MaxPages int
}

func (p PDF) Extract(ctx context.Context, data []byte) (text string, err error) {
	if !IsPDF(data) {
		return "", fmt.Errorf("%w: missing PDF header", apperrors.ErrExtraction)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// The reader reports malformed objects by panicking.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: malformed PDF: %v", apperrors.ErrExtraction, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return "", fmt.Errorf("%w: encrypted PDF", apperrors.ErrExtraction)
		}
		return "", fmt.Errorf("%w: %w", apperrors.ErrExtraction, err)
	}
	if !r.Trailer().Key("Encrypt").IsNull() {
		return "", fmt.Errorf("%w: encrypted PDF", apperrors.ErrExtraction)
	}

	limit := p.MaxPages
	if limit <= 0 {
		limit = DefaultMaxPages
	}
	pages := min(r.NumPage(), limit)

	// Fonts are shared across pages; decoding a CMap once is enough.
	fonts := make(map[string]*pdf.Font)
	var out strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := page.Font(name)
				fonts[name] = &f
			}
		}
		pageText, err := page.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %w", apperrors.ErrExtraction, i, err)
		}
		if pageText == "" {
			continue
		}
		if out.Len() > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(pageText)
	}
	return out.String(), nil
}
