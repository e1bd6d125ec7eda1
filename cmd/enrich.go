package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	enrichMinScore int
	enrichForce    bool
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Find a contact for each firm at or above the score cutoff",
	Long: `Walks scored firms at or above the cutoff and discovers a named
contact for each: Hunter.io domain search first when configured, then the
firm's own website (homepage and contact/team subpages). Results are
cached by CRD; previously attempted firms are skipped unless --force is
set. N/A firms are never enriched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("enrich"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sc, err := newScorer("")
		if err != nil {
			return err
		}

		opts := pipelineOptions()
		opts.Force = enrichForce
		if cmd.Flags().Changed("min-score") {
			opts.MinScore = enrichMinScore
		}
		p := newPipeline(st, sc, opts)

		enriched, err := p.EnrichAll(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Enriched %d firms\n", enriched)
		return nil
	},
}

func init() {
	enrichCmd.Flags().IntVar(&enrichMinScore, "min-score", 0, "minimum fit score to enrich (default from config)")
	enrichCmd.Flags().BoolVar(&enrichForce, "force", false, "re-extract cached contacts")
	rootCmd.AddCommand(enrichCmd)
}
