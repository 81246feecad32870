package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/docqa/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/searcher"
)

func newUploadCmd(opts *options) *cobra.Command {
	var field string
	cmd := &cobra.Command{
		Use:   "upload PATH",
		Short: "Upload a file to the server and make it the live document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}

			var body bytes.Buffer
			mw := multipart.NewWriter(&body)
			fw, err := mw.CreateFormFile(field, filepath.Base(path))
			if err != nil {
				return err
			}
			if _, err := fw.Write(data); err != nil {
				return err
			}
			if err := mw.Close(); err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, opts.url("/api/upload"), &body)
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", mw.FormDataContentType())

			var resp ingestion.UploadResponse
			if err := opts.do(req, &resp); err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(cmd, resp)
			}
			cmd.Println(resp.Message)
			if resp.Sufficient {
				cmd.Printf("file=%s units=%d version=%s\n", resp.File, resp.Units, resp.Version)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&field, "field", "pdf", "multipart field name")
	return cmd
}

func newQueryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "query [question]",
		Short: "Ask the server a question about the live document",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := json.Marshal(map[string]string{"question": strings.Join(args, " ")})
			if err != nil {
				return err
			}
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, opts.url("/api/ask"), bytes.NewReader(payload))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")

			var ans searcher.Answer
			if err := opts.do(req, &ans); err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(cmd, ans)
			}
			cmd.Println(ans.Answer)
			return nil
		},
	}
}

func (o *options) url(path string) string {
	return strings.TrimRight(o.server, "/") + path
}

// do sends req and decodes a 2xx JSON body into out. Error bodies surface
// their "error" or "message" field.
func (o *options) do(req *http.Request, out any) error {
	resp, err := o.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		var e struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &e)
		msg := e.Error
		if msg == "" {
			msg = e.Message
		}
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
