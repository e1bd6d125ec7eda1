package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/surgeone-ai/ria-pipeline/internal/pipeline"
	"github.com/surgeone-ai/ria-pipeline/internal/store"
)

var (
	exportOut       string
	exportFormat    string
	exportMinScore  int
	exportStates    string
	exportLimit     int
	exportIncludeNA bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export scored and enriched firms to CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("export"); err != nil {
			return err
		}
		if exportFormat != "csv" && exportFormat != "xlsx" {
			return eris.Errorf("export: unsupported format %q (csv or xlsx)", exportFormat)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filter := store.ListFilter{
			IncludeNA: exportIncludeNA,
			Limit:     exportLimit,
		}
		if cmd.Flags().Changed("min-score") {
			filter.MinScore = &exportMinScore
		}
		if exportStates != "" {
			for _, s := range strings.Split(exportStates, ",") {
				if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
					filter.States = append(filter.States, s)
				}
			}
		}

		records, err := st.ListEnriched(ctx, filter)
		if err != nil {
			return err
		}

		var w io.Writer = os.Stdout
		if exportOut != "" {
			file, err := os.Create(exportOut)
			if err != nil {
				return eris.Wrap(err, "export: create output file")
			}
			defer file.Close() //nolint:errcheck
			w = file
		}

		if exportFormat == "xlsx" {
			if exportOut == "" {
				return eris.New("export: xlsx requires --out")
			}
			err = pipeline.WriteXLSX(w, records)
		} else {
			err = pipeline.WriteCSV(w, records)
		}
		if err != nil {
			return err
		}

		if exportOut != "" {
			fmt.Printf("Exported %d firms to %s\n", len(records), exportOut)
		}
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportOut, "out", "", "output file path (default: stdout)")
	f.StringVar(&exportFormat, "format", "csv", "output format: csv or xlsx")
	f.IntVar(&exportMinScore, "min-score", 0, "minimum fit score (excludes N/A)")
	f.StringVar(&exportStates, "states", "", "comma-separated state codes (e.g. TX,FL)")
	f.IntVar(&exportLimit, "limit", 0, "maximum rows (0=all)")
	f.BoolVar(&exportIncludeNA, "include-na", false, "include firms scored N/A")
	rootCmd.AddCommand(exportCmd)
}
