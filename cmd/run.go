package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	runDaysBack   int
	runMinScore   int
	runForce      bool
	runNoWebsites bool
	runRubricPath string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Full batch: fetch, score, and enrich in one pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("run"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sc, err := newScorer(runRubricPath)
		if err != nil {
			return err
		}

		opts := pipelineOptions()
		opts.Force = runForce
		if runNoWebsites {
			opts.FetchWebsites = false
		}
		if cmd.Flags().Changed("min-score") {
			opts.MinScore = runMinScore
		}
		p := newPipeline(st, sc, opts)

		snap, err := newLoader().Load(ctx)
		if err != nil {
			return err
		}

		daysBack := runDaysBack
		if daysBack <= 0 {
			daysBack = cfg.SEC.DaysBack
		}
		run, firms, err := p.Ingest(ctx, snap, daysBack)
		if err != nil {
			return err
		}

		stats, err := p.Run(ctx, run, firms)
		if err != nil {
			return err
		}

		fmt.Printf("Run %s: %d firms, %d scored, %d N/A, %d enriched\n",
			run.ID, stats.Firms, stats.Scored, stats.NACount, stats.Enriched)
		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.IntVar(&runDaysBack, "days-back", 0, "registration lookback in days (default from config)")
	f.IntVar(&runMinScore, "min-score", 0, "minimum fit score to enrich (default from config)")
	f.BoolVar(&runForce, "force", false, "recompute cached scores and contacts")
	f.BoolVar(&runNoWebsites, "no-websites", false, "skip website fetches while scoring")
	f.StringVar(&runRubricPath, "rubric", "", "path to a custom rubric YAML")
	rootCmd.AddCommand(runCmd)
}
