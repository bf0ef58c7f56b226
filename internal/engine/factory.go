package engine

import (
	"fmt"

	"github.com/sant0-9/chembfn/internal/config"
)

// NewEngine creates an engine from config
func NewEngine(cfg *config.Config) (Engine, error) {
	switch cfg.Engine {
	case "http":
		if cfg.Host == "" {
			return nil, fmt.Errorf("http engine requires a host")
		}
		return NewHTTPEngine(cfg.Host, cfg.APIKey, cfg.RequestsPerMinute), nil

	case "bridge":
		b := cfg.Bridge
		if b == nil {
			b = &config.BridgeConfig{}
		}
		return NewBridgeEngine(b.Python, b.Script, b.Device)

	default:
		return nil, fmt.Errorf("unknown engine: %s", cfg.Engine)
	}
}
