package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visvikbharti/reprokit/internal/log"
	"github.com/visvikbharti/reprokit/internal/serialize"
)

var convertCmd = &cobra.Command{
	Use:   "convert <input-file> <output-file>",
	Short: "Convert a bundle between serialization formats",
	Long: `Import a bundle and re-export it in another format. Formats are
detected from the conventional filename extensions (.repro.json,
.repro.json.gz, .repro.bin, .repro.tgz) unless overridden.

The checksum is verified on import and travels unchanged: conversion
never alters bundle content.

Examples:
  reprokit convert analysis.repro.json analysis.repro.tgz
  reprokit convert analysis.repro.bin out.dat --to json`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

var (
	convertFrom string
	convertTo   string
)

func init() {
	convertCmd.Flags().StringVar(&convertFrom, "from", "", "input format override (json, json.gz, binary, archive)")
	convertCmd.Flags().StringVar(&convertTo, "to", "", "output format override (json, json.gz, binary, archive)")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	var inFormat, outFormat serialize.Format
	var err error

	if convertFrom != "" {
		if inFormat, err = serialize.ParseFormat(convertFrom); err != nil {
			return err
		}
	}
	if convertTo != "" {
		if outFormat, err = serialize.ParseFormat(convertTo); err != nil {
			return err
		}
	}

	b, err := serialize.Import(args[0], inFormat)
	if err != nil {
		return err
	}
	if err := serialize.Export(b, args[1], outFormat); err != nil {
		return err
	}
	log.DefaultLogger().Debug("bundle converted",
		"bundle_id", b.ID, "from", args[0], "to", args[1])

	fmt.Printf("converted %s -> %s\n", args[0], args[1])
	return nil
}
