package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rulevii/compliance-rag/internal/core/domain"
)

func newRetrieveCommand(e *env) *cobra.Command {
	var (
		mode        string
		sourceTypes []string
		showContext bool
	)
	cmd := &cobra.Command{
		Use:   "retrieve <question>",
		Short: "Run retrieval and print ranked citations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, docType := range sourceTypes {
				if !domain.IsValidDocumentType(docType) {
					return fmt.Errorf("unknown source type %q", docType)
				}
			}
			app, err := e.openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.Retriever.Retrieve(cmd.Context(), domain.Query{
				Text:        strings.Join(args, " "),
				Mode:        mode,
				SourceTypes: sourceTypes,
			})
			if err != nil {
				return err
			}
			if e.asJSON {
				return printJSON(cmd.OutOrStdout(), result)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "mode %s, law codes [%s]\n", result.Mode.Name, strings.Join(result.LawCodes, ", "))
			if len(result.Degraded) > 0 {
				fmt.Fprintf(w, "degraded: %s\n", strings.Join(result.Degraded, ", "))
			}
			for i, c := range result.Citations {
				fmt.Fprintf(w, "%2d. [%.3f] %s %s (%s)\n", i+1, c.Similarity, c.Document, c.Section, c.LawCode)
			}
			if showContext {
				fmt.Fprintf(w, "\n%s\n", result.ContextText)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", domain.DefaultMode, "retrieval mode (quick_answer, compliance, plan_draft)")
	cmd.Flags().StringSliceVarP(&sourceTypes, "source-type", "s", nil, "restrict to document types")
	cmd.Flags().BoolVar(&showContext, "context", false, "also print the assembled prompt context")
	return cmd
}

func newLookupCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <reference>",
		Short: "Find the single best matching law passage",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := e.openApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer app.Close()

			ref, err := app.LookupUC.Lookup(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if e.asJSON {
				return printJSON(cmd.OutOrStdout(), ref)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (relevance %.3f)\n\n%s\n", ref.Source, ref.Relevance, ref.Content)
			return nil
		},
	}
}
