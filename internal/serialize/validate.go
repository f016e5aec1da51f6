package serialize

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/visvikbharti/reprokit/internal/bundle"
	"github.com/visvikbharti/reprokit/internal/errors"
)

// FileInfo is the identity block of a bundle file, obtained without
// materializing the bundle itself.
type FileInfo struct {
	Path          string `json:"path"`
	Format        Format `json:"format"`
	SchemaVersion string `json:"schema_version"`
	ID            string `json:"id"`
	Title         string `json:"title"`
	Checksum      string `json:"checksum"`
	SizeBytes     int64  `json:"size_bytes"`
}

// ValidateBundleFile performs a cheap metadata-only check of a bundle
// file: the format is recognized, the identity block parses, the schema
// matches, and a checksum is present. It never decodes the full bundle.
func ValidateBundleFile(path string) (*FileInfo, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	st, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, "bundle file not found", err)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "stat bundle file", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "read bundle file", err)
	}

	hdr, err := readHeader(data, format)
	if err != nil {
		return nil, err
	}

	if hdr.SchemaVersion != bundle.SchemaVersion {
		return nil, errors.Newf(errors.ErrCodeFormatSchema,
			"unsupported bundle schema %q (engine speaks %s)", hdr.SchemaVersion, bundle.SchemaVersion)
	}
	if hdr.Checksum == "" {
		return nil, errors.New(errors.ErrCodeFormatCorrupt, "bundle file carries no checksum")
	}

	return &FileInfo{
		Path:          path,
		Format:        format,
		SchemaVersion: hdr.SchemaVersion,
		ID:            hdr.ID,
		Title:         hdr.Title,
		Checksum:      hdr.Checksum,
		SizeBytes:     st.Size(),
	}, nil
}

func readHeader(data []byte, format Format) (fileHeader, error) {
	var hdr fileHeader
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &hdr); err != nil {
			return hdr, errors.Wrap(errors.ErrCodeFormatCorrupt, "parse bundle header", err)
		}
		return hdr, nil

	case FormatJSONGz:
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return hdr, errors.Wrap(errors.ErrCodeFormatCorrupt, "open compressed bundle", err)
		}
		plain, err := io.ReadAll(gz)
		if err != nil {
			return hdr, errors.Wrap(errors.ErrCodeFormatCorrupt, "decompress bundle", err)
		}
		return readHeader(plain, FormatJSON)

	case FormatBinary:
		parsed, _, err := splitBinary(data)
		return parsed, err

	case FormatArchive:
		metaData, err := readArchiveMember(data, archiveMetadataName)
		if err != nil {
			return hdr, err
		}
		var meta archiveMetadata
		if err := yaml.Unmarshal(metaData, &meta); err != nil {
			return hdr, errors.Wrap(errors.ErrCodeFormatCorrupt, "parse archive metadata", err)
		}
		hdr.SchemaVersion = meta.SchemaVersion
		hdr.ID = meta.ID
		hdr.Title = meta.Title
		hdr.Checksum = meta.Checksum
		return hdr, nil

	default:
		return hdr, errors.Newf(errors.ErrCodeFormatUnknown, "unknown bundle format %q", format)
	}
}
