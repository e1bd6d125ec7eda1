package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fetchDaysBack   int
	fetchMonthsBack int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the latest SEC adviser snapshot and store recent firms",
	Long: `Downloads the most recent monthly IAPD snapshot from the SEC,
filters firms whose SEC registration became effective within the lookback
window, and stores them in the cache. Scoring and enrichment run
separately (see "score", "enrich", or "run").`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("fetch"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if fetchMonthsBack > 0 {
			cfg.SEC.MonthsBack = fetchMonthsBack
		}
		daysBack := fetchDaysBack
		if daysBack <= 0 {
			daysBack = cfg.SEC.DaysBack
		}

		snap, err := newLoader().Load(ctx)
		if err != nil {
			return err
		}

		sc, err := newScorer("")
		if err != nil {
			return err
		}
		p := newPipeline(st, sc, pipelineOptions())

		run, firms, err := p.Ingest(ctx, snap, daysBack)
		if err != nil {
			return err
		}
		zap.L().Info("fetch complete", zap.String("run_id", run.ID))

		fmt.Printf("Snapshot %s: %d total records, %d recently registered firms stored\n",
			snap.SnapshotDate.Format("2006-01-02"), snap.TotalRecords, len(firms))
		return nil
	},
}

func init() {
	fetchCmd.Flags().IntVar(&fetchDaysBack, "days-back", 0, "registration lookback in days (default from config)")
	fetchCmd.Flags().IntVar(&fetchMonthsBack, "months-back", 0, "months of snapshot URLs to try (default from config)")
	rootCmd.AddCommand(fetchCmd)
}
