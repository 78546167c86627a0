package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rulevii/compliance-rag/internal/bootstrap"
	"github.com/rulevii/compliance-rag/internal/core/domain"
)

type routeOutput struct {
	Text        string   `json:"text"`
	LawCodes    []string `json:"law_codes"`
	Prioritized []string `json:"prioritized"`
}

func newRouteCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "route <text>",
		Short: "Show which law codes a question routes to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			router, err := bootstrap.NewLawRouter(e.cfg)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			out := routeOutput{
				Text:        text,
				LawCodes:    router.Route(text).Sorted(),
				Prioritized: router.Prioritized(text, e.cfg.RAGMaxRoutedLawCodes),
			}
			if e.asJSON {
				return printJSON(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			if len(out.LawCodes) == 0 {
				_, err := fmt.Fprintln(w, "no law codes matched")
				return err
			}
			fmt.Fprintf(w, "routed:       %s\n", strings.Join(out.LawCodes, ", "))
			fmt.Fprintf(w, "direct fetch: %s\n", strings.Join(out.Prioritized, ", "))
			return nil
		},
	}
}

func newModesCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List retrieval mode profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles := domain.ModeProfiles()
			if e.asJSON {
				return printJSON(cmd.OutOrStdout(), profiles)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MODE\tTOP K\tFLOOR\tTEMPERATURE\tSOURCE TYPES")
			for _, p := range profiles {
				sources := "all"
				if len(p.SourceTypes) > 0 {
					sources = strings.Join(p.SourceTypes, ",")
				}
				fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.1f\t%s\n", p.Name, p.TopK, p.SimilarityFloor, p.Temperature, sources)
			}
			return tw.Flush()
		},
	}
}
