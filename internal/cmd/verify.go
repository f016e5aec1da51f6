package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visvikbharti/reprokit/internal/log"
	"github.com/visvikbharti/reprokit/internal/render"
	"github.com/visvikbharti/reprokit/internal/serialize"
	"github.com/visvikbharti/reprokit/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <bundle-file>",
	Short: "Verify a bundle's integrity and internal consistency",
	Long: `Import a bundle, verify its content checksum, and run the structural
verification checks: seed re-derivation and source determinism,
pipeline step consistency, and result sanity.

Data integrity against live datasets requires the original data and is
only available through the library API; without live data the data
integrity check reports warnings instead.

Examples:
  reprokit verify analysis.repro.json
  reprokit verify analysis.repro.tgz --json
  reprokit verify analysis.repro.bin --max-steps 100`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

var (
	verifyJSON     bool
	verifyMaxSteps int
)

func init() {
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "output the report as JSON")
	verifyCmd.Flags().IntVar(&verifyMaxSteps, "max-steps", 32, "maximum pipeline steps to check")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	logger := log.DefaultLogger()

	b, err := serialize.Import(args[0], "")
	if err != nil {
		logger.WithError(err).Error("bundle import failed", "path", args[0])
		return err
	}
	logger.Debug("bundle imported", "bundle_id", b.ID, "checksum", b.Checksum)

	opts := verify.DefaultOptions()
	opts.MaxPipelineSteps = verifyMaxSteps
	report := verify.Verify(b, opts)

	if verifyJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Println(string(data))
	} else {
		fmt.Println(render.New().Report(report))
	}

	if !report.Passed {
		return errors.New("verification failed")
	}
	return nil
}
