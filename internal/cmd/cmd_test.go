package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visvikbharti/reprokit/internal/bundle"
	"github.com/visvikbharti/reprokit/internal/dataset"
	"github.com/visvikbharti/reprokit/internal/pipeline"
	"github.com/visvikbharti/reprokit/internal/seed"
	"github.com/visvikbharti/reprokit/internal/serialize"
)

func exportedBundle(t *testing.T, dir string) string {
	t.Helper()

	builder := bundle.New("CLI test", "")
	ds := dataset.New("trial").AddFloat64("x", []float64{1, 2, 3})
	_, err := builder.AddDataset(ds, "trial")
	require.NoError(t, err)

	tr := pipeline.New()
	_, err = tr.Track("fit", "stats", nil, func() (any, error) {
		return map[string]any{"estimate": 1.0}, nil
	})
	require.NoError(t, err)
	require.NoError(t, builder.AddPipeline(tr))

	sm := seed.NewManager(5)
	sm.Register("bootstrap")
	require.NoError(t, builder.SetSeedState(sm.State()))

	b, err := builder.Seal()
	require.NoError(t, err)

	path := filepath.Join(dir, "cli"+serialize.ExtJSON)
	require.NoError(t, serialize.Export(b, path, ""))
	return path
}

func run(args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestValidateCommand(t *testing.T) {
	path := exportedBundle(t, t.TempDir())
	assert.NoError(t, run("validate", path))
}

func TestValidateCommandMissingFile(t *testing.T) {
	assert.Error(t, run("validate", filepath.Join(t.TempDir(), "absent.repro.json")))
}

func TestInspectCommand(t *testing.T) {
	path := exportedBundle(t, t.TempDir())
	assert.NoError(t, run("inspect", path, "--json"))
}

func TestVerifyCommand(t *testing.T) {
	path := exportedBundle(t, t.TempDir())
	assert.NoError(t, run("verify", path, "--json"))
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	path := exportedBundle(t, dir)
	out := filepath.Join(dir, "converted"+serialize.ExtArchive)

	require.NoError(t, run("convert", path, out))

	info, err := serialize.ValidateBundleFile(out)
	require.NoError(t, err)
	assert.Equal(t, serialize.FormatArchive, info.Format)
}

func TestVersionCommand(t *testing.T) {
	assert.NoError(t, run("version", "--json"))
}
