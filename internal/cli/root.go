package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rulevii/compliance-rag/internal/bootstrap"
	"github.com/rulevii/compliance-rag/internal/config"
	"github.com/rulevii/compliance-rag/internal/observability/logging"
)

// env carries what every subcommand needs after the persistent pre-run.
type env struct {
	cfg      config.Config
	logger   *slog.Logger
	logLevel string
	asJSON   bool
}

// openApp wires the full engine. inline makes ingest run in-process instead of via NATS.
func (e *env) openApp(ctx context.Context, inline bool) (*bootstrap.App, error) {
	opts := []bootstrap.Option{bootstrap.WithLogger(e.logger)}
	if inline {
		opts = append(opts, bootstrap.WithInlineIngest())
	}
	app, err := bootstrap.New(ctx, e.cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return app, nil
}

func NewRootCommand() *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:   "ragctl",
		Short: "Operator CLI for the building-regulation retrieval engine",
		Long: `ragctl drives the retrieval engine directly against the configured stores.
Configuration comes from the same environment variables as the API.

Example usage:
  ragctl route "fire exit for a coffee shop"        # Show routed law codes
  ragctl retrieve -m compliance "egress width"       # Ranked citations
  ragctl ingest --law-code "RA 9514" --document-type statutory 'corpus/**/*.pdf'
  ragctl audit                                       # Corpus quality report`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			e.cfg = config.Load()
			if e.logLevel != "" {
				e.cfg.LogLevel = e.logLevel
			}
			e.logger = logging.NewLogger(cmd.ErrOrStderr(), "ragctl", e.cfg.LogLevel, "text")
			return nil
		},
	}
	root.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "log level (default from LOG_LEVEL)")
	root.PersistentFlags().BoolVar(&e.asJSON, "json", false, "print machine-readable JSON")

	root.AddCommand(
		newRouteCommand(e),
		newModesCommand(e),
		newRetrieveCommand(e),
		newLookupCommand(e),
		newIngestCommand(e),
		newAuditCommand(e),
	)
	return root
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
