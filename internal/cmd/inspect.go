package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visvikbharti/reprokit/internal/render"
	"github.com/visvikbharti/reprokit/internal/serialize"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <bundle-file>",
	Short: "Show the contents of a reproducibility bundle",
	Long: `Import a bundle, verify its checksum, and print a summary of its
contents: datasets, pipeline steps, decisions, seeds and environment.

Examples:
  reprokit inspect analysis.repro.json
  reprokit inspect analysis.repro.tgz --json`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var inspectJSON bool

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "output the summary as JSON")

	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	b, err := serialize.Import(args[0], "")
	if err != nil {
		return err
	}

	if inspectJSON {
		data, err := json.MarshalIndent(b.Summary(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal summary: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(render.New().Summary(b.Summary()))
	return nil
}
