package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visvikbharti/reprokit/internal/serialize"
)

var validateCmd = &cobra.Command{
	Use:   "validate <bundle-file>",
	Short: "Fast structural check of a bundle file",
	Long: `Check that a bundle file is well formed without decoding its full
content: the format is recognized, the identity header parses, the
schema version matches, and a checksum is present.

This is the cheap pre-flight check; use "reprokit verify" for a full
checksum and consistency verification.

Examples:
  reprokit validate analysis.repro.bin
  reprokit validate analysis.repro.tgz --json`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var validateJSON bool

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "output file info as JSON")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	info, err := serialize.ValidateBundleFile(args[0])
	if err != nil {
		return err
	}

	if validateJSON {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal file info: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("%s: valid %s bundle\n", info.Path, info.Format)
	fmt.Printf("  schema:   %s\n", info.SchemaVersion)
	fmt.Printf("  id:       %s\n", info.ID)
	fmt.Printf("  title:    %s\n", info.Title)
	fmt.Printf("  checksum: %s\n", info.Checksum)
	fmt.Printf("  size:     %d bytes\n", info.SizeBytes)
	return nil
}
