package cli

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/rulevii/compliance-rag/internal/core/domain"
	"github.com/rulevii/compliance-rag/internal/core/ports"
)

type ingestFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type ingestSummary struct {
	Documents []*domain.LawDocument `json:"documents"`
	Failures  []ingestFailure       `json:"failures,omitempty"`
}

func newIngestCommand(e *env) *cobra.Command {
	var (
		meta   domain.DocumentMetadata
		inline bool
	)
	cmd := &cobra.Command{
		Use:   "ingest <glob>...",
		Short: "Upload corpus files matching glob patterns",
		Long: `Upload corpus files for indexing. Patterns support ** (doublestar) matching.
Without --inline the files are queued for the worker over NATS; with --inline they
are extracted, chunked and embedded before the command returns.

Examples:
  ragctl ingest --law-code "RA 9514" --document-type statutory 'corpus/fire/**/*.pdf'
  ragctl ingest --inline --law-code "PD 1096" --document-type statutory nbc.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if meta.LawCode == "" {
				return fmt.Errorf("--law-code is required")
			}
			if !domain.IsValidDocumentType(meta.DocumentType) {
				return fmt.Errorf("--document-type must be one of statutory, procedural, heuristics, specialized_planning")
			}
			paths, err := expandPatterns(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no files matched %s", strings.Join(args, " "))
			}

			app, err := e.openApp(cmd.Context(), inline)
			if err != nil {
				return err
			}
			defer app.Close()

			bar := progressbar.NewOptions(len(paths),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(cmd.ErrOrStderr())
				}),
			)
			summary := ingestFiles(cmd.Context(), app.IngestUC, paths, meta, func(path string) {
				bar.Describe(fmt.Sprintf("[cyan]Ingesting[reset] %s", filepath.Base(path)))
				_ = bar.Add(1)
			})

			if e.asJSON {
				if err := printJSON(cmd.OutOrStdout(), summary); err != nil {
					return err
				}
			} else {
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Ingest complete:\n")
				fmt.Fprintf(w, "  Files accepted: %d\n", len(summary.Documents))
				fmt.Fprintf(w, "  Files failed:   %d\n", len(summary.Failures))
				for _, doc := range summary.Documents {
					fmt.Fprintf(w, "  %s  %s  %s\n", doc.ID, doc.Status, doc.Filename)
				}
				for _, f := range summary.Failures {
					fmt.Fprintf(w, "  - %s: %s\n", f.Path, f.Error)
				}
			}
			if len(summary.Failures) > 0 {
				return fmt.Errorf("%d of %d files failed", len(summary.Failures), len(paths))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&meta.LawCode, "law-code", "", "law code recorded on every chunk, e.g. \"RA 9514\"")
	cmd.Flags().StringVar(&meta.DocumentType, "document-type", domain.DocTypeStatutory, "document type")
	cmd.Flags().StringVar(&meta.Source, "source", "", "source title shown in citations (default: file name)")
	cmd.Flags().BoolVar(&inline, "inline", false, "process in this process instead of queueing for the worker")
	return cmd
}

// expandPatterns resolves doublestar globs to a sorted, de-duplicated list of regular files.
// A pattern without glob syntax must name an existing file.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 && !strings.ContainsAny(pattern, "*?[{") {
			return nil, fmt.Errorf("file not found: %s", pattern)
		}
		for _, match := range matches {
			if _, ok := seen[match]; ok {
				continue
			}
			seen[match] = struct{}{}
			out = append(out, match)
		}
	}
	slices.Sort(out)
	return out, nil
}

func ingestFiles(ctx context.Context, ingestor ports.DocumentIngestor, paths []string, meta domain.DocumentMetadata, done func(string)) ingestSummary {
	var summary ingestSummary
	for _, path := range paths {
		doc, err := ingestFile(ctx, ingestor, path, meta)
		if err != nil {
			summary.Failures = append(summary.Failures, ingestFailure{Path: path, Error: err.Error()})
		} else {
			summary.Documents = append(summary.Documents, doc)
		}
		if done != nil {
			done(path)
		}
	}
	return summary
}

func ingestFile(ctx context.Context, ingestor ports.DocumentIngestor, path string, meta domain.DocumentMetadata) (*domain.LawDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := filepath.Base(path)
	if meta.Source == "" {
		meta.Source = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return ingestor.Upload(ctx, name, mime.TypeByExtension(filepath.Ext(name)), meta, f)
}
