package serialize

import (
	"strings"

	"github.com/visvikbharti/reprokit/internal/errors"
)

// Format identifies an on-disk bundle representation
type Format string

const (
	// FormatJSON is plain structured text
	FormatJSON Format = "json"
	// FormatJSONGz is gzip-compressed structured text
	FormatJSONGz Format = "json.gz"
	// FormatBinary is a compressed binary encoding with a small
	// plain-text header for cheap validation
	FormatBinary Format = "binary"
	// FormatArchive is a self-describing tar.gz archive containing the
	// structured bundle, metadata with a checksum, methods text when
	// present, and a human-readable README
	FormatArchive Format = "archive"
)

// Filename extensions, by convention
const (
	ExtJSON    = ".repro.json"
	ExtJSONGz  = ".repro.json.gz"
	ExtBinary  = ".repro.bin"
	ExtArchive = ".repro.tgz"
)

// DetectFormat infers the format from the filename convention
func DetectFormat(path string) (Format, error) {
	switch {
	case strings.HasSuffix(path, ExtJSONGz):
		return FormatJSONGz, nil
	case strings.HasSuffix(path, ExtJSON):
		return FormatJSON, nil
	case strings.HasSuffix(path, ExtBinary):
		return FormatBinary, nil
	case strings.HasSuffix(path, ExtArchive):
		return FormatArchive, nil
	default:
		return "", errors.Newf(errors.ErrCodeFormatUnknown,
			"cannot detect bundle format from filename %q", path).
			WithSuggestions(
				"use one of the conventional extensions: "+ExtJSON+", "+ExtJSONGz+", "+ExtBinary+", "+ExtArchive,
				"or pass the format explicitly",
			)
	}
}

// ParseFormat parses an explicit format name
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "json.gz", "jsongz", "gzip":
		return FormatJSONGz, nil
	case "binary", "bin":
		return FormatBinary, nil
	case "archive", "tgz":
		return FormatArchive, nil
	default:
		return "", errors.Newf(errors.ErrCodeFormatUnknown, "unknown bundle format %q", s)
	}
}
