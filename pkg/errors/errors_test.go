package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"insufficient text is a normal outcome", ErrInsufficientText, http.StatusOK},
		{"not indexed is a normal outcome", fmt.Errorf("ask: %w", ErrNotIndexed), http.StatusOK},
		{"invalid input", fmt.Errorf("decode: %w", ErrInvalidInput), http.StatusBadRequest},
		{"payload too large", ErrPayloadTooLarge, http.StatusRequestEntityTooLarge},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"timeout", ErrTimeout, http.StatusServiceUnavailable},
		{"extraction", fmt.Errorf("%w: bad xref", ErrExtraction), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
		{"app error overrides", New(ErrExtraction, http.StatusUnprocessableEntity, "encrypted"), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusCode(tt.err); got != tt.want {
				t.Errorf("HTTPStatusCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrInvalidInput, http.StatusBadRequest, "question exceeds %d characters", 4096)
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("AppError should unwrap to its sentinel")
	}
	if got, want := err.Error(), "invalid input: question exceeds 4096 characters"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
