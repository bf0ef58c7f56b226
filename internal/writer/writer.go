package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sant0-9/chembfn/internal/pipeline"
)

// Paths lists the files written for one run. Chemfig is empty when the run
// produced no chemfig codes.
type Paths struct {
	SMILES  string
	Chemfig string
}

// Writer exports generation results to a directory.
type Writer struct {
	dir string
}

// NewWriter creates a writer that exports into dir
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Dir returns the export directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Export writes <id>.smi and, when chemfig codes are present, <id>.tex.
func (w *Writer) Export(ctx context.Context, res *pipeline.Result) (*Paths, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	paths := &Paths{SMILES: filepath.Join(w.dir, res.ID+".smi")}
	if len(res.Chemfig) > 0 {
		paths.Chemfig = filepath.Join(w.dir, res.ID+".tex")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return writeFile(ctx, paths.SMILES, SMILES(res))
	})
	if paths.Chemfig != "" {
		g.Go(func() error {
			return writeFile(ctx, paths.Chemfig, LaTeX(res))
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func writeFile(ctx context.Context, path, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// SMILES renders one molecule per line followed by its 1-based index.
func SMILES(res *pipeline.Result) string {
	var b strings.Builder
	for i, m := range res.Molecules {
		fmt.Fprintf(&b, "%s\t%d\n", m, i+1)
	}
	return b.String()
}

// LaTeX renders a standalone document with one chemfig figure per molecule.
func LaTeX(res *pipeline.Result) string {
	var b strings.Builder
	b.WriteString("\\documentclass{article}\n")
	b.WriteString("\\usepackage{chemfig}\n")
	b.WriteString("\\begin{document}\n")
	for i, code := range res.Chemfig {
		label := ""
		if i < len(res.Molecules) {
			label = res.Molecules[i]
		}
		fmt.Fprintf(&b, "\n%% %d: %s\n", i+1, label)
		b.WriteString(code)
		b.WriteString("\n\n")
	}
	b.WriteString("\\end{document}\n")
	return b.String()
}

// Markdown summarises a run for display.
func Markdown(res *pipeline.Result) string {
	var b strings.Builder

	b.WriteString("# Generated molecules\n\n")
	fmt.Fprintf(&b, "- **Model:** %s\n", res.Job.Model)
	fmt.Fprintf(&b, "- **Method:** %s, %d steps, temperature %.2f\n", res.Job.Method, res.Job.Steps, res.Job.Temperature)
	if res.Job.Prompt != "" {
		fmt.Fprintf(&b, "- **Prompt:** `%s`\n", res.Job.Prompt)
	}
	if res.Job.Scaffold != "" {
		fmt.Fprintf(&b, "- **Scaffold:** `%s`\n", res.Job.Scaffold)
	}
	if res.Transform != "" && res.Transform != "identity" {
		fmt.Fprintf(&b, "- **Transform:** %s\n", res.Transform)
	}
	if res.Device != "" {
		fmt.Fprintf(&b, "- **Device:** %s\n", res.Device)
	}
	b.WriteString("\n| # | SMILES |\n|---|---|\n")
	for i, m := range res.Molecules {
		fmt.Fprintf(&b, "| %d | `%s` |\n", i+1, m)
	}
	return b.String()
}
