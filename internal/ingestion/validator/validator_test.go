package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/docqa/internal/ingestion"
)

func TestValidateDocumentRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     ingestion.DocumentRequest
		field   string
		wantErr bool
	}{
		{"valid", ingestion.DocumentRequest{Source: "notes.txt", Text: "some text"}, "", false},
		{"empty source allowed", ingestion.DocumentRequest{Text: "some text"}, "", false},
		{"blank text", ingestion.DocumentRequest{Text: "  \n "}, "text", true},
		{"too large", ingestion.DocumentRequest{Text: strings.Repeat("a", 11)}, "text", true},
		{"long source", ingestion.DocumentRequest{Source: strings.Repeat("s", 256), Text: "ok"}, "source", true},
		{"invalid utf8", ingestion.DocumentRequest{Text: "ok\xff"}, "text", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocumentRequest(&tt.req, 10)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := ve.Fields[tt.field]; !ok {
				t.Errorf("expected field %q in %v", tt.field, ve.Fields)
			}
		})
	}
}

func TestValidateUpload(t *testing.T) {
	if err := ValidateUpload("a.pdf", 10, 100); err != nil {
		t.Errorf("valid upload rejected: %v", err)
	}
	err := ValidateUpload("", 0, 100)
	var ve *ValidationError
	if !errors.As(err, &ve) || len(ve.Fields) != 2 {
		t.Fatalf("expected filename and file errors, got %v", err)
	}
	if got := ve.Error(); got != "file: file is empty; filename: filename is required" {
		t.Errorf("Error() = %q", got)
	}
	if err := ValidateUpload("a.pdf", 101, 100); err == nil {
		t.Error("oversized upload accepted")
	}
}

func TestTruncateQuestion(t *testing.T) {
	tests := []struct {
		name      string
		question  string
		max       int
		want      string
		truncated bool
	}{
		{"empty", "", 10, "", false},
		{"at limit", strings.Repeat("q", 10), 10, strings.Repeat("q", 10), false},
		{"over limit", strings.Repeat("q", 11), 10, strings.Repeat("q", 10), true},
		{"zero limit disables", strings.Repeat("q", 11), 0, strings.Repeat("q", 11), false},
		{"keeps runes whole", "ab" + "é", 3, "ab", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated := TruncateQuestion(tt.question, tt.max)
			if got != tt.want || truncated != tt.truncated {
				t.Errorf("got (%q, %v), want (%q, %v)", got, truncated, tt.want, tt.truncated)
			}
		})
	}
}
