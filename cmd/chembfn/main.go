package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sant0-9/chembfn/internal/config"
	"github.com/sant0-9/chembfn/internal/history"
	"github.com/sant0-9/chembfn/internal/logging"
	"github.com/sant0-9/chembfn/internal/modeldir"
	"github.com/sant0-9/chembfn/internal/tui"
	"github.com/sant0-9/chembfn/internal/writer"
)

var version = "dev"

var (
	verbose    bool
	configFile string
	modelDir   string

	cfg        *config.Config
	needsSetup bool
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:     "chembfn",
	Short:   "Generate molecules with ChemBFN models",
	Version: version,
	Long: `chembfn drives Bayesian flow network models for chemistry from the terminal.

Models, LoRA adapters and vocabularies are read from a model directory
(see "chembfn init"). Generation runs on an inference server or a local
Python bridge.

Run without arguments to start the interactive interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}

		var err error
		logger, err = logging.New(logging.Options{Path: cfg.LogPath(), Verbose: verbose})
		if err != nil {
			return err
		}
		logger.Debug("config loaded", zap.String("engine", cfg.Engine), zap.String("model_dir", cfg.ModelDir))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runTUI,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default: ~/.config/chembfn/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&modelDir, "model-dir", "m", "", "Directory holding the model/ tree (overrides config)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file. A missing file means first run: defaults
// are used and the TUI starts in setup.
func loadConfig() error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}

	loaded, err := config.LoadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", path, err)
	}
	needsSetup = loaded == nil
	if loaded == nil {
		loaded = config.DefaultConfig()
	}
	if modelDir != "" {
		loaded.ModelDir = modelDir
	}
	cfg = loaded
	return nil
}

func resolveConfigPath() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	return config.ConfigPath()
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// openHistory opens the run history. Failure only disables history.
func openHistory() *history.Store {
	store, err := history.NewStore(cfg.HistoryDB())
	if err != nil {
		logger.Warn("history disabled", zap.String("path", cfg.HistoryDB()), zap.Error(err))
		return nil
	}
	return store
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	store := openHistory()
	if store != nil {
		defer store.Close()
	}

	path, err := resolveConfigPath()
	if err != nil {
		return err
	}

	return tui.Run(ctx, tui.Options{
		Config:     cfg,
		ConfigPath: path,
		NeedsSetup: needsSetup,
		Logger:     logger,
		Library:    modeldir.NewLibrary(cfg.ModelDir, logger),
		History:    store,
		Writer:     writer.NewWriter(cfg.ExportPath()),
	})
}
