package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Engine   string `yaml:"engine"`
	Host     string `yaml:"host,omitempty"`
	APIKey   string `yaml:"api_key,omitempty"`
	ModelDir string `yaml:"model_dir"`

	Bridge   *BridgeConfig `yaml:"bridge,omitempty"`
	Defaults Defaults      `yaml:"defaults"`

	LogFile     string `yaml:"log_file,omitempty"`
	HistoryPath string `yaml:"history_path,omitempty"`
	ExportDir   string `yaml:"export_dir,omitempty"`

	// RequestsPerMinute limits calls to a shared inference server. Zero disables it.
	RequestsPerMinute int `yaml:"requests_per_minute,omitempty"`
}

type BridgeConfig struct {
	Python string `yaml:"python,omitempty"`
	Script string `yaml:"script,omitempty"`
	Device string `yaml:"device,omitempty"`
}

// Defaults pre-fill the generation form.
type Defaults struct {
	BatchSize      int     `yaml:"batch_size"`
	SequenceLength int     `yaml:"sequence_length,omitempty"`
	Steps          int     `yaml:"steps"`
	Method         string  `yaml:"method"`
	Temperature    float64 `yaml:"temperature"`
	Transform      string  `yaml:"transform,omitempty"`
	Chemfig        bool    `yaml:"chemfig,omitempty"`
}

func DefaultConfig() *Config {
	dir, _ := ConfigDir()
	return &Config{
		Engine:   "http",
		Host:     "http://localhost:8765",
		ModelDir: dir,
		Bridge: &BridgeConfig{
			Python: "python3",
			Device: "auto",
		},
		Defaults: Defaults{
			BatchSize:   1,
			Steps:       100,
			Method:      "BFN",
			Temperature: 0.5,
		},
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "chembfn"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func Exists() bool {
	path, err := ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Load reads the default config file. A missing file gives a nil config and no error.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// LogPath returns the log file, defaulting to chembfn.log in the config dir.
func (c *Config) LogPath() string {
	return c.inConfigDir(c.LogFile, "chembfn.log")
}

// HistoryDB returns the history database path.
func (c *Config) HistoryDB() string {
	return c.inConfigDir(c.HistoryPath, "history.db")
}

// ExportPath returns where exported results are written.
func (c *Config) ExportPath() string {
	return c.inConfigDir(c.ExportDir, "results")
}

func (c *Config) inConfigDir(set, name string) string {
	if set != "" {
		return set
	}
	dir, err := ConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, name)
}
