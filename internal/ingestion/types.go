// Package ingestion defines the request and response bodies of the document
// upload endpoints.
package ingestion

// Messages returned by the upload endpoints.
const (
	MessageIndexed      = "✅ PDF uploaded & indexed successfully"
	MessageInsufficient = "⚠️ PDF has very little extractable text."
	MessageFailed       = "❌ Failed to process PDF"
)

// DocumentRequest submits already-extracted text.
type DocumentRequest struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// UploadResponse is returned by both upload endpoints.
type UploadResponse struct {
	Message     string `json:"message"`
	File        string `json:"file,omitempty"`
	Sufficient  bool   `json:"sufficient"`
	Units       int    `json:"units"`
	Version     string `json:"version,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
}
