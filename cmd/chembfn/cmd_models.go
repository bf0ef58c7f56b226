package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sant0-9/chembfn/internal/modeldir"
)

var modelsJSON bool

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create the model directory tree",
	Long: `Creates <dir>/model with base_model/, lora/, standalone_model/ and vocab/,
each with a placeholder note. An existing tree is left alone.

Without a directory the configured model directory is used. A default
config file is written if none exists yet.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models, LoRA adapters and vocabularies",
	Args:  cobra.NoArgs,
	RunE:  runModels,
}

func init() {
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "Print the catalog as JSON")
}

func runInit(cmd *cobra.Command, args []string) error {
	root := cfg.ModelDir
	if len(args) == 1 {
		root = args[0]
	}

	created, err := modeldir.Scaffold(root)
	if err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	out := cmd.OutOrStdout()
	if created {
		logger.Info("model directory created", zap.String("root", root))
		fmt.Fprintf(out, "Created %s\n", modeldir.Path(root))
	} else {
		fmt.Fprintf(out, "%s already exists\n", modeldir.Path(root))
	}

	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.ModelDir = root
		if err := cfg.SaveFile(path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(out, "Wrote %s\n", path)
	}
	return nil
}

// catalogJSON is the machine readable form of a catalog.
type catalogJSON struct {
	Root       string               `json:"root"`
	Base       []modeldir.BaseModel `json:"base"`
	Standalone []modeldir.Adapter   `json:"standalone"`
	Lora       []modeldir.Adapter   `json:"lora"`
	Vocabs     []modeldir.Vocab     `json:"vocabs"`
	Skipped    []string             `json:"skipped,omitempty"`
}

func runModels(cmd *cobra.Command, args []string) error {
	cat, err := modeldir.Scan(cfg.ModelDir)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", cfg.ModelDir, err)
	}
	out := cmd.OutOrStdout()

	if modelsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(catalogJSON{
			Root:       modeldir.Path(cat.Root),
			Base:       cat.Base,
			Standalone: cat.Standalone,
			Lora:       cat.Lora,
			Vocabs:     cat.Vocabs,
			Skipped:    cat.Skipped,
		})
	}

	if cat.Count() == 0 {
		fmt.Fprintf(out, "No models in %s (run \"chembfn init\" to create the tree)\n", modeldir.Path(cat.Root))
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("KIND", "NAME", "LABELS", "LENGTH")
	for _, b := range cat.Base {
		t.Row("base", b.Name, "", "")
	}
	for _, s := range cat.Standalone {
		t.Row("standalone", s.Name, strings.Join(s.Label, ","), lengthCell(s.PaddingLength))
	}
	for _, l := range cat.Lora {
		t.Row("lora", l.Name, strings.Join(l.Label, ","), lengthCell(l.PaddingLength))
	}
	for _, v := range cat.Vocabs {
		t.Row("vocab", v.Name, "", "")
	}
	fmt.Fprintln(out, t.Render())

	for _, dir := range cat.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: missing or invalid config.json\n", dir)
	}
	return nil
}

func lengthCell(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
