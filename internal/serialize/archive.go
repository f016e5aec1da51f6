package serialize

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/visvikbharti/reprokit/internal/bundle"
	"github.com/visvikbharti/reprokit/internal/errors"
)

// Archive member names
const (
	archiveBundleName   = "bundle.json"
	archiveMetadataName = "metadata.yaml"
	archiveMethodsName  = "methods.md"
	archiveReadmeName   = "README.md"
)

// archiveMetadata is the self-describing identity block written as
// metadata.yaml. It is everything ValidateBundleFile needs without
// materializing bundle.json.
type archiveMetadata struct {
	SchemaVersion string    `yaml:"schema_version"`
	ID            string    `yaml:"id"`
	Title         string    `yaml:"title"`
	Checksum      string    `yaml:"checksum"`
	CreatedAt     time.Time `yaml:"created_at"`
	SealedAt      time.Time `yaml:"sealed_at"`
	Datasets      int       `yaml:"datasets"`
	Steps         int       `yaml:"steps"`
	Decisions     int       `yaml:"decisions"`
}

func metadataOf(b *bundle.Bundle) archiveMetadata {
	return archiveMetadata{
		SchemaVersion: b.SchemaVersion,
		ID:            b.ID,
		Title:         b.Title,
		Checksum:      b.Checksum,
		CreatedAt:     b.CreatedAt,
		SealedAt:      b.SealedAt,
		Datasets:      len(b.Fingerprints),
		Steps:         len(b.Steps),
		Decisions:     len(b.Decisions),
	}
}

func encodeArchive(b *bundle.Bundle) ([]byte, error) {
	bundleData, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "marshal bundle", err)
	}

	metaData, err := yaml.Marshal(metadataOf(b))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "marshal metadata", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	members := []struct {
		name string
		data []byte
	}{
		{archiveMetadataName, metaData},
		{archiveBundleName, bundleData},
		{archiveReadmeName, []byte(describe(b))},
	}
	if b.MethodsText != "" {
		members = append(members, struct {
			name string
			data []byte
		}{archiveMethodsName, []byte(b.MethodsText)})
	}

	for _, m := range members {
		hdr := &tar.Header{
			Name:    m.name,
			Size:    int64(len(m.data)),
			Mode:    0o644,
			ModTime: b.SealedAt,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "write archive header", err)
		}
		if _, err := tw.Write(m.data); err != nil {
			return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "write archive member", err)
		}
	}

	if err := tw.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "finish archive", err)
	}
	if err := gz.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "finish archive compression", err)
	}
	return buf.Bytes(), nil
}

func decodeArchive(data []byte) (*bundle.Bundle, error) {
	bundleData, err := readArchiveMember(data, archiveBundleName)
	if err != nil {
		return nil, err
	}
	return decode(bundleData, FormatJSON)
}

// readArchiveMember scans the archive for one member and returns its
// content. Scanning stops at the first match, so reading metadata.yaml
// (written first) never touches the bundle payload.
func readArchiveMember(data []byte, name string) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "open archive", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, errors.Newf(errors.ErrCodeFormatCorrupt,
				"archive is missing required member %q", name)
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "read archive", err)
		}
		if hdr.Name != name {
			continue
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFormatCorrupt, "read archive member "+name, err)
		}
		return content, nil
	}
}
