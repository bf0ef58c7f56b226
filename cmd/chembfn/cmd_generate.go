package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sant0-9/chembfn/internal/engine"
	"github.com/sant0-9/chembfn/internal/history"
	"github.com/sant0-9/chembfn/internal/modeldir"
	"github.com/sant0-9/chembfn/internal/pipeline"
	"github.com/sant0-9/chembfn/internal/writer"
)

var (
	genJob     pipeline.Job
	genExport  bool
	genTimeout time.Duration
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate molecules without the interactive interface",
	Long: `Runs one generation and prints the molecules, one per line.

Example:
  chembfn generate --model qm9 --prompt '<logp:0.5>:[1.5]' --batch 16
  chembfn generate --model base.pt --length 64 --method ODE --export`,
	Args: cobra.NoArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		d := cfg.Defaults
		flags := cmd.Flags()
		if !flags.Changed("batch") {
			genJob.BatchSize = d.BatchSize
		}
		if !flags.Changed("length") {
			genJob.SequenceLength = d.SequenceLength
		}
		if !flags.Changed("steps") {
			genJob.Steps = d.Steps
		}
		if !flags.Changed("method") {
			genJob.Method = d.Method
		}
		if !flags.Changed("temperature") {
			genJob.Temperature = d.Temperature
		}
		if !flags.Changed("transform") {
			genJob.Transform = d.Transform
		}
		if !flags.Changed("chemfig") {
			genJob.Chemfig = d.Chemfig
		}
	},
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genJob.Model, "model", "", "Base model file or standalone model name (required)")
	f.StringVar(&genJob.Vocab, "vocab", "", "Vocabulary name")
	f.IntVar(&genJob.BatchSize, "batch", 1, "Number of molecules")
	f.IntVar(&genJob.SequenceLength, "length", 0, "Sequence length (0 uses the model's padding length)")
	f.IntVar(&genJob.Steps, "steps", 100, "Sampling steps")
	f.StringVar(&genJob.Method, "method", "BFN", "Sampling method: BFN or ODE")
	f.Float64Var(&genJob.Temperature, "temperature", 0.5, "Sampling temperature")
	f.StringVar(&genJob.Prompt, "prompt", "", "Prompt selecting LoRAs and objectives")
	f.StringVar(&genJob.Scaffold, "scaffold", "", "Scaffold to grow molecules from")
	f.StringVar(&genJob.Exclude, "exclude", "", "Tokens to exclude, comma separated")
	f.StringVar(&genJob.SAR, "sar", "", "Semi-autoregression flags, comma separated")
	f.StringVar(&genJob.Transform, "transform", "", "Post-processing selector, e.g. strip_stereo|largest_fragment")
	f.BoolVar(&genJob.Chemfig, "chemfig", false, "Also produce ChemFig codes")
	f.BoolVar(&genExport, "export", false, "Write .smi/.tex files to the export directory")
	f.DurationVar(&genTimeout, "timeout", 30*time.Minute, "Give up after this long")
	_ = generateCmd.MarkFlagRequired("model")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, genTimeout)
	defer cancelTimeout()

	eng, err := engine.NewEngine(cfg)
	if err != nil {
		return err
	}

	lib := modeldir.NewLibrary(cfg.ModelDir, logger)
	if _, err := lib.Refresh(); err != nil {
		return fmt.Errorf("failed to scan models: %w", err)
	}

	p := pipeline.NewPipeline(eng, lib, logger)
	if verbose {
		p.SetProgressCallback(func(pr pipeline.Progress) {
			fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %s\n", pr.StageIndex+1, pr.TotalStages, pr.Message)
		})
	}

	res, err := p.Run(ctx, genJob)
	if err != nil {
		return err
	}

	if store := openHistory(); store != nil {
		if err := store.Save(ctx, history.FromResult(res)); err != nil {
			logger.Warn("failed to save run", zap.String("run", res.ID), zap.Error(err))
		}
		store.Close()
	}

	fmt.Fprint(cmd.OutOrStdout(), writer.SMILES(res))

	if genExport {
		paths, err := writer.NewWriter(cfg.ExportPath()).Export(ctx, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", paths.SMILES)
		if paths.Chemfig != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", paths.Chemfig)
		}
	}
	return nil
}
