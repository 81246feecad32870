package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/docqa/internal/indexer/tokenizer"
)

func newAskCmd(opts *options) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "ask --file PATH [question]",
		Short: "Answer a question from a local file without a server",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			local, err := opts.localEngine(cmd.Context(), file)
			if err != nil {
				return err
			}
			if !local.result.Sufficient {
				cmd.PrintErrln("warning: document has very little extractable text")
			}
			ans, err := local.searcher.Ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(cmd, ans)
			}
			cmd.Println(ans.Answer)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "PDF or text file to answer from")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newInspectCmd(opts *options) *cobra.Command {
	var (
		file  string
		limit int
		terms []string
	)
	cmd := &cobra.Command{
		Use:   "inspect --file PATH [--term WORD]...",
		Short: "Show the units and tokens a file is indexed into",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			local, err := opts.localEngine(cmd.Context(), file)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(cmd, local.result)
			}
			if !local.result.Sufficient {
				cmd.Println("Document has very little extractable text; nothing indexed.")
				return nil
			}
			idx := local.store.Current()
			if len(terms) > 0 {
				for _, term := range terms {
					explainTerm(cmd, local.tok, idx, term)
				}
				return nil
			}
			cmd.Printf("Source:  %s\n", idx.Source)
			cmd.Printf("Version: %s\n", idx.Version)
			cmd.Printf("Units:   %d\n", idx.Len())
			cmd.Printf("Tokens:  %d\n", idx.TokenCount())
			cmd.Printf("Terms:   %d\n", idx.Vocabulary())
			cmd.Println()
			for i, u := range idx.Units {
				if limit > 0 && i >= limit {
					cmd.Printf("  ... %d more\n", idx.Len()-limit)
					break
				}
				cmd.Printf("  [%d] %s\n", i, u.Text)
				cmd.Printf("      tokens: %s\n", strings.Join(u.Tokens.Sorted(), ", "))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "PDF or text file to inspect")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum units to print (0 for all)")
	cmd.Flags().StringArrayVarP(&terms, "term", "t", nil, "explain how a word is indexed instead of listing units")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// explainTerm prints which units a word matches, or the filter that keeps it
// out of the index.
func explainTerm(cmd *cobra.Command, tok *tokenizer.Tokenizer, idx *index.Index, term string) {
	words := strings.Fields(tokenizer.Normalize(term))
	if len(words) == 0 {
		cmd.Printf("%q: nothing left after normalization\n", term)
		return
	}
	for _, w := range words {
		switch {
		case len(w) < tok.MinLength():
			cmd.Printf("%q: shorter than %d characters, not indexed\n", w, tok.MinLength())
		case tok.IsStopWord(w):
			cmd.Printf("%q: stop word, not indexed\n", w)
		default:
			positions := idx.Postings.Positions(w)
			if len(positions) == 0 {
				cmd.Printf("%q: in no unit\n", w)
				continue
			}
			units := make([]string, len(positions))
			for i, p := range positions {
				units[i] = strconv.Itoa(p)
			}
			cmd.Printf("%q: units %s\n", w, strings.Join(units, ", "))
		}
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
