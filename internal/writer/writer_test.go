package writer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sant0-9/chembfn/internal/pipeline"
)

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		ID:        "abc",
		Job:       pipeline.Job{Model: "qm9", Method: "BFN", Steps: 100, Temperature: 0.5, Prompt: "<logp>"},
		Molecules: []string{"CCO", "c1ccccc1"},
		Chemfig:   []string{`\chemfig{-[:30]-[:-30]OH}`, `\chemfig{*6(=-=-=-)}`},
		Transform: "identity",
	}
}

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := NewWriter(dir)

	paths, err := w.Export(context.Background(), sampleResult())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "abc.smi"), paths.SMILES)
	assert.Equal(t, filepath.Join(dir, "abc.tex"), paths.Chemfig)

	smi, err := os.ReadFile(paths.SMILES)
	require.NoError(t, err)
	assert.Equal(t, "CCO\t1\nc1ccccc1\t2\n", string(smi))

	tex, err := os.ReadFile(paths.Chemfig)
	require.NoError(t, err)
	assert.Contains(t, string(tex), "\\usepackage{chemfig}")
	assert.Contains(t, string(tex), "% 2: c1ccccc1")
	assert.Contains(t, string(tex), `\chemfig{*6(=-=-=-)}`)
}

func TestExportWithoutChemfig(t *testing.T) {
	res := sampleResult()
	res.Chemfig = nil

	paths, err := NewWriter(t.TempDir()).Export(context.Background(), res)
	require.NoError(t, err)
	assert.Empty(t, paths.Chemfig)
	assert.FileExists(t, paths.SMILES)
}

func TestExportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewWriter(t.TempDir()).Export(ctx, sampleResult())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleResult())
	assert.Contains(t, md, "**Model:** qm9")
	assert.Contains(t, md, "| 2 | `c1ccccc1` |")
	assert.Contains(t, md, "**Prompt:** `<logp>`")
	assert.NotContains(t, md, "Transform")
}
