// Package cli implements docqactl: local question answering over a file and
// a thin client for a running docqa server.
package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/ingestion/extract"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docqa/pkg/config"
)

type options struct {
	configPath string
	server     string
	timeout    time.Duration
	jsonOut    bool
}

// NewRootCmd builds the docqactl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "docqactl",
		Short:         "Ask questions about a document",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (engine thresholds)")
	root.PersistentFlags().StringVar(&opts.server, "server", "http://localhost:11000", "docqa server URL")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "print JSON instead of text")

	root.AddCommand(
		newAskCmd(opts),
		newInspectCmd(opts),
		newUploadCmd(opts),
		newQueryCmd(opts),
	)
	return root
}

// Execute runs docqactl with os.Args.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (o *options) engineConfig() (config.EngineConfig, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.EngineConfig{}, err
	}
	return cfg.Engine, nil
}

func (o *options) httpClient() *http.Client {
	return &http.Client{Timeout: o.timeout}
}

// localIndex is a file indexed in memory for one command.
type localIndex struct {
	searcher *searcher.Searcher
	result   *indexer.IngestResult
	store    *index.Store
	tok      *tokenizer.Tokenizer
}

// localEngine indexes path in memory and returns a searcher over it.
func (o *options) localEngine(ctx context.Context, path string) (*localIndex, error) {
	ecfg, err := o.engineConfig()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	text, err := extract.Auto{}.Extract(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", path, err)
	}

	tok := tokenizer.New(tokenizer.FromEngineConfig(ecfg))
	store := index.NewStore()
	engine := indexer.NewEngine(store, tok, index.FromEngineConfig(ecfg), nil, nil)
	res, err := engine.Ingest(ctx, indexer.Document{Source: path, Text: text})
	if err != nil {
		return nil, err
	}
	return &localIndex{
		searcher: searcher.New(store, tok, executor.FromEngineConfig(ecfg), searcher.Options{}),
		result:   res,
		store:    store,
		tok:      tok,
	}, nil
}
