package serialize

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/visvikbharti/reprokit/internal/bundle"
	"github.com/visvikbharti/reprokit/internal/errors"
)

// binaryMagic opens the binary format, followed by a length-prefixed
// JSON header and the gzipped gob payload.
var binaryMagic = []byte("RPROBIN1")

// Export writes a sealed bundle to path. The format is detected from
// the filename unless overridden. Publication is atomic: the bytes land
// in a temporary file that is renamed into place only after a complete
// write, so a crash mid-export never leaves a file Import accepts.
func Export(b *bundle.Bundle, path string, format Format) error {
	if b.Checksum == "" {
		return errors.New(errors.ErrCodeBundleNotSealed,
			"refusing to export an unsealed bundle").
			WithSuggestion("call Seal on the builder first")
	}

	if format == "" {
		detected, err := DetectFormat(path)
		if err != nil {
			return err
		}
		format = detected
	}

	data, err := encode(b, format)
	if err != nil {
		return err
	}

	return writeAtomic(path, data)
}

// Import reads a bundle from path, detecting the format from the
// filename unless overridden, and verifies its checksum. A corrupt or
// truncated file yields an error; no partially decoded bundle escapes.
func Import(path string, format Format) (*bundle.Bundle, error) {
	if format == "" {
		detected, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, "bundle file not found", err)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "read bundle file", err)
	}

	b, err := decode(data, format)
	if err != nil {
		return nil, err
	}

	if b.SchemaVersion != bundle.SchemaVersion {
		return nil, errors.Newf(errors.ErrCodeFormatSchema,
			"unsupported bundle schema %q (engine speaks %s)", b.SchemaVersion, bundle.SchemaVersion)
	}
	if err := b.VerifyChecksum(); err != nil {
		return nil, err
	}
	return b, nil
}

func encode(b *bundle.Bundle, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(b, "", "  ")
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "marshal bundle", err)
		}
		return data, nil

	case FormatJSONGz:
		plain, err := encode(b, FormatJSON)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write(plain); err != nil {
			return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "compress bundle", err)
		}
		if err := gz.Close(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "finish compression", err)
		}
		return buf.Bytes(), nil

	case FormatBinary:
		return encodeBinary(b)

	case FormatArchive:
		return encodeArchive(b)

	default:
		return nil, errors.Newf(errors.ErrCodeFormatUnknown, "unknown bundle format %q", format)
	}
}

func decode(data []byte, format Format) (*bundle.Bundle, error) {
	switch format {
	case FormatJSON:
		var b bundle.Bundle
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "unmarshal bundle", err)
		}
		return &b, nil

	case FormatJSONGz:
		gz, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "open compressed bundle", err)
		}
		plain, err := io.ReadAll(gz)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "decompress bundle", err)
		}
		if err := gz.Close(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "finish decompression", err)
		}
		return decode(plain, FormatJSON)

	case FormatBinary:
		return decodeBinary(data)

	case FormatArchive:
		return decodeArchive(data)

	default:
		return nil, errors.Newf(errors.ErrCodeFormatUnknown, "unknown bundle format %q", format)
	}
}

// fileHeader is the cheap-to-read identity block shared by all formats
type fileHeader struct {
	SchemaVersion string `json:"schema_version"`
	ID            string `json:"id"`
	Title         string `json:"title"`
	Checksum      string `json:"checksum"`
}

func headerOf(b *bundle.Bundle) fileHeader {
	return fileHeader{
		SchemaVersion: b.SchemaVersion,
		ID:            b.ID,
		Title:         b.Title,
		Checksum:      b.Checksum,
	}
}

func encodeBinary(b *bundle.Bundle) ([]byte, error) {
	header, err := json.Marshal(headerOf(b))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "marshal binary header", err)
	}

	var buf bytes.Buffer
	buf.Write(binaryMagic)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(header)))
	buf.Write(lenBuf[:])
	buf.Write(header)

	gz := gzip.NewWriter(&buf)
	if err := gob.NewEncoder(gz).Encode(b); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "encode bundle payload", err)
	}
	if err := gz.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "finish binary encoding", err)
	}
	return buf.Bytes(), nil
}

func decodeBinary(data []byte) (*bundle.Bundle, error) {
	_, payload, err := splitBinary(data)
	if err != nil {
		return nil, err
	}

	gz, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "open binary payload", err)
	}
	var b bundle.Bundle
	if err := gob.NewDecoder(gz).Decode(&b); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "decode bundle payload", err)
	}
	if err := gz.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "finish binary decoding", err)
	}
	return &b, nil
}

func splitBinary(data []byte) (fileHeader, []byte, error) {
	var hdr fileHeader
	if len(data) < len(binaryMagic)+4 || !bytes.Equal(data[:len(binaryMagic)], binaryMagic) {
		return hdr, nil, errors.New(errors.ErrCodeFormatCorrupt, "not a reprokit binary bundle")
	}
	rest := data[len(binaryMagic):]
	hdrLen := int(binary.BigEndian.Uint32(rest[:4]))
	rest = rest[4:]
	if hdrLen > len(rest) {
		return hdr, nil, errors.New(errors.ErrCodeFormatCorrupt, "truncated binary bundle header")
	}
	if err := json.Unmarshal(rest[:hdrLen], &hdr); err != nil {
		return hdr, nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "parse binary bundle header", err)
	}
	return hdr, rest[hdrLen:], nil
}

// writeAtomic writes data to a temporary file next to path and renames
// it into place after a full write and sync.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Wrap(errors.ErrCodeDirectoryFailed, "create output directory", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "create temporary file", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "write bundle", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "sync bundle", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "close bundle", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "publish bundle", err)
	}
	return nil
}

// describe renders the human-readable README for archive exports
func describe(b *bundle.Bundle) string {
	s := b.Summary()
	return fmt.Sprintf(`# Reproducibility Bundle: %s

- ID: %s
- Checksum: %s
- Created: %s
- Sealed: %s
- Datasets: %d
- Pipeline steps: %d
- Decisions: %d
- Captured modules: %d
- Seeded modules: %d
- Environment: %s %s/%s (Go %s)

This archive was produced by reprokit. The bundle content lives in
bundle.json; metadata.yaml carries the identity block and checksum for
cheap validation without unpacking the full bundle.
`,
		s.Title, s.ID, s.Checksum,
		s.CreatedAt.Format("2006-01-02 15:04:05 MST"),
		s.SealedAt.Format("2006-01-02 15:04:05 MST"),
		s.Datasets, s.Steps, s.Decisions, s.Modules, s.SeedModules,
		s.Environment.EngineVersion, s.Environment.OS, s.Environment.Arch, s.Environment.GoVersion)
}
