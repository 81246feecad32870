package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const matricesDoc = "Matrices are arrays of numbers arranged in rows and columns. " +
	"A matrix can be added to another matrix of the same size. " +
	"Multiplication of matrices requires matching inner dimensions."

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeDoc(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "matrices.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestAskLocal(t *testing.T) {
	out, err := run(t, "ask", "--file", writeDoc(t, matricesDoc), "How", "do", "you", "add", "matrices?")
	require.NoError(t, err)
	assert.Equal(t, "📘 Answer (from document):\n\n"+
		"• matrices are arrays of numbers arranged in rows and columns\n"+
		"• multiplication of matrices requires matching inner dimensions\n", out)
}

func TestAskLocalJSON(t *testing.T) {
	out, err := run(t, "--json", "ask", "-f", writeDoc(t, matricesDoc), "zebra")
	require.NoError(t, err)
	var ans map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &ans))
	assert.Equal(t, "OVERVIEW", ans["kind"])
}

func TestAskRequiresFile(t *testing.T) {
	_, err := run(t, "ask", "anything")
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	out, err := run(t, "inspect", "--file", writeDoc(t, matricesDoc))
	require.NoError(t, err)
	assert.Contains(t, out, "Units:   3")
	assert.Contains(t, out, "[1] a matrix can be added to another matrix of the same size")
	assert.Contains(t, out, "tokens: added, another, can, matrix, same, size")
}

func TestInspectTerms(t *testing.T) {
	out, err := run(t, "inspect", "--file", writeDoc(t, matricesDoc),
		"--term", "Matrices", "-t", "the", "-t", "of", "-t", "zebra")
	require.NoError(t, err)
	assert.Equal(t, `"matrices": units 0, 2`+"\n"+
		`"the": stop word, not indexed`+"\n"+
		`"of": shorter than 3 characters, not indexed`+"\n"+
		`"zebra": in no unit`+"\n", out)
}

func TestInspectInsufficient(t *testing.T) {
	out, err := run(t, "inspect", "--file", writeDoc(t, "too short"))
	require.NoError(t, err)
	assert.Contains(t, out, "nothing indexed")
}

func TestQueryAndUploadRemote(t *testing.T) {
	var uploadedField string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/ask", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"answer": "echo: " + req["question"], "kind": "SPECIFIC"})
	})
	mux.HandleFunc("POST /api/upload", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("pdf")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":"missing file field 'pdf'"}`)
			return
		}
		file.Close()
		uploadedField = header.Filename
		io.WriteString(w, `{"message":"✅ PDF uploaded & indexed successfully","file":"1-matrices.txt","sufficient":true,"units":3,"version":"v1"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out, err := run(t, "--server", srv.URL, "query", "what", "is", "a", "matrix")
	require.NoError(t, err)
	assert.Equal(t, "echo: what is a matrix\n", out)

	out, err = run(t, "--server", srv.URL, "upload", writeDoc(t, matricesDoc))
	require.NoError(t, err)
	assert.Equal(t, "matrices.txt", uploadedField)
	assert.Contains(t, out, "✅ PDF uploaded & indexed successfully")
	assert.Contains(t, out, "units=3")

	_, err = run(t, "--server", srv.URL, "upload", "--field", "file", writeDoc(t, matricesDoc))
	assert.EqualError(t, err, "server returned 400: missing file field 'pdf'")
}
