package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/address-intel/internal/model"
	"github.com/sells-group/address-intel/internal/pipeline"
)

var (
	runWebsite string
	runName    string
	runDeep    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract the address for a single company",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		p := buildPipeline()
		row := p.ProcessCompany(cmd.Context(), model.Company{Name: runName, Website: runWebsite}, pipeline.ProcessOptions{
			Deep:           runDeep,
			IncludeDetails: runDeep,
		})

		zap.L().Info("company processed",
			zap.String("website", runWebsite),
			zap.String("status", string(row.Status)),
		)

		// Print the row JSON to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(row)
	},
}

func init() {
	runCmd.Flags().StringVar(&runWebsite, "website", "", "company website URL (required)")
	runCmd.Flags().StringVar(&runName, "name", "", "company name")
	runCmd.Flags().BoolVar(&runDeep, "deep", false, "crawl more fallback pages and include phase details")
	_ = runCmd.MarkFlagRequired("website")
	rootCmd.AddCommand(runCmd)
}
