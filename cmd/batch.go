package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/address-intel/internal/export"
	"github.com/sells-group/address-intel/internal/pipeline"
	"github.com/sells-group/address-intel/internal/tabular"
)

var (
	batchInput       string
	batchOutput      string
	batchConcurrency int
	batchLimit       int
	batchJSON        bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process a CSV or XLSX company list",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("batch"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if batchConcurrency > 0 {
			cfg.Batch.Concurrency = batchConcurrency
		}

		companies, err := tabular.ReadCompanies(batchInput, tabular.Options{MaxRows: batchLimit})
		if err != nil {
			return eris.Wrap(err, "read companies")
		}

		rows, summary := buildPipeline().ProcessBatch(ctx, companies, pipeline.ProcessOptions{})

		zap.L().Info("batch finished",
			zap.String("batch_id", summary.BatchID),
			zap.Int("total", summary.Total),
			zap.Int("succeeded", summary.Succeeded),
			zap.Int("no_address", summary.NoAddress),
			zap.Int("failed", summary.Failed),
		)

		if batchJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}

		if err := export.SaveXLSX(batchOutput, rows); err != nil {
			return err
		}
		zap.L().Info("results written", zap.String("path", batchOutput))
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "CSV or XLSX company list (required)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "addresses.xlsx", "output XLSX path")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "worker count (default from config)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max companies to process (0 = all)")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print JSON rows to stdout instead of writing XLSX")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}
