package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/surgeone-ai/ria-pipeline/internal/scorer"
)

var (
	scoreLimit      int
	scoreForce      bool
	scoreNoWebsites bool
	scoreRubricPath string
	scoreDumpRubric bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score stored firms against the fit rubric",
	Long: `Scores every stored firm on Form ADV data signals plus, when the
firm has a website, homepage content signals. Scores are cached by CRD;
already-scored firms are skipped unless --force is set.

Use --dump-rubric to print the active rubric as YAML, edit it, and feed
it back with --rubric to change keywords or point values.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if scoreDumpRubric {
			return dumpRubric()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("score"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sc, err := newScorer(scoreRubricPath)
		if err != nil {
			return err
		}

		opts := pipelineOptions()
		opts.Force = scoreForce
		if scoreNoWebsites {
			opts.FetchWebsites = false
		}
		p := newPipeline(st, sc, opts)

		firms, err := st.ListFirms(ctx, scoreLimit, 0)
		if err != nil {
			return err
		}

		stats, err := p.ScoreAll(ctx, firms)
		if err != nil {
			return err
		}

		fmt.Printf("Scored %d firms (%d N/A, %d skipped)\n",
			stats.Scored, stats.NACount, stats.Skipped)
		return nil
	},
}

func dumpRubric() error {
	rubric := scorer.DefaultRubric()
	if scoreRubricPath != "" {
		loaded, err := scorer.LoadRubric(scoreRubricPath)
		if err != nil {
			return err
		}
		rubric = loaded
	}
	out, err := rubric.DumpYAML()
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

func init() {
	f := scoreCmd.Flags()
	f.IntVar(&scoreLimit, "limit", 0, "maximum firms to score (0=all)")
	f.BoolVar(&scoreForce, "force", false, "recompute cached scores")
	f.BoolVar(&scoreNoWebsites, "no-websites", false, "skip website fetches, data signals only")
	f.StringVar(&scoreRubricPath, "rubric", "", "path to a custom rubric YAML")
	f.BoolVar(&scoreDumpRubric, "dump-rubric", false, "print the active rubric as YAML and exit")
	rootCmd.AddCommand(scoreCmd)
}
