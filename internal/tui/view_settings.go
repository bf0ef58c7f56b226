package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sant0-9/chembfn/internal/config"
)

func (a *App) renderSettings() string {
	var b strings.Builder

	title := lipgloss.NewStyle().
		Foreground(colorPrimary).
		Bold(true).
		Render("Settings")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	cfg := a.state.config
	engineName := cfg.Engine
	if e := config.GetEngine(cfg.Engine); e != nil {
		engineName = e.Name
	}

	configLines := []string{
		fmt.Sprintf("  Engine:     %s", engineName),
	}
	if cfg.Engine == "http" {
		configLines = append(configLines, fmt.Sprintf("  Host:       %s", cfg.Host))
		configLines = append(configLines, fmt.Sprintf("  API key:    %s", maskKey(cfg.APIKey)))
	}
	if cfg.Engine == "bridge" && cfg.Bridge != nil {
		configLines = append(configLines, fmt.Sprintf("  Python:     %s", cfg.Bridge.Python))
		configLines = append(configLines, fmt.Sprintf("  Device:     %s", cfg.Bridge.Device))
	}
	configLines = append(configLines,
		fmt.Sprintf("  Model dir:  %s", truncate(cfg.ModelDir, 40)),
		fmt.Sprintf("  Exports:    %s", truncate(a.writer.Dir(), 40)),
		fmt.Sprintf("  Log file:   %s", truncate(cfg.LogPath(), 40)),
		"",
		"  Defaults:",
		fmt.Sprintf("    Method %s, %d steps, temperature %.2f, batch %d",
			cfg.Defaults.Method, cfg.Defaults.Steps, cfg.Defaults.Temperature, cfg.Defaults.BatchSize),
	)

	configBox := styleBox.Copy().
		Width(min(64, a.width-4)).
		Render(strings.Join(configLines, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, configBox))
	b.WriteString("\n\n")

	actions := []string{
		"  [e] Change engine",
		"  [r] Reconnect and rescan models",
	}
	actionsBox := styleBox.Copy().
		Width(min(64, a.width-4)).
		Render(strings.Join(actions, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, actionsBox))
	b.WriteString("\n\n")

	instructions := styleStatusBar.Render("[Esc] Back")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, instructions))

	return a.centerVertically(b.String())
}

func maskKey(k string) string {
	if k == "" {
		return "Not set"
	}
	if len(k) > 8 {
		return k[:4] + "****" + k[len(k)-4:]
	}
	return "****"
}
