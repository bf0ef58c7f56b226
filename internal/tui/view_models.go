package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sant0-9/chembfn/internal/modeldir"
)

func (a *App) renderModels() string {
	var b strings.Builder

	title := styleLogo.Render("Model files")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	desc := styleSubtitle.Render(modeldir.Path(a.library.Root()))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, desc))
	b.WriteString("\n\n")

	cat := a.state.catalog
	if cat.Count() == 0 {
		empty := styleBox.Copy().
			Width(min(70, a.width-4)).
			Foreground(colorMuted).
			Render("No models found.\n\nPut base weights (*.pt) in base_model/,\nstandalone models and LoRAs in subfolders with\nconfig.json, and vocabularies (*.txt) in vocab/.")
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, empty))
	} else {
		var list strings.Builder
		section := func(name string, items []string) {
			list.WriteString(styleActive.Render(name))
			list.WriteString("\n")
			if len(items) == 0 {
				list.WriteString(styleSubtitle.Render("  none"))
				list.WriteString("\n")
			}
			for _, it := range items {
				list.WriteString("  " + it + "\n")
			}
			list.WriteString("\n")
		}

		base := make([]string, len(cat.Base))
		for i, m := range cat.Base {
			base[i] = m.Name
		}
		section("Base models", base)
		section("Standalone models", adapterLines(cat.Standalone))
		section("LoRA adapters", adapterLines(cat.Lora))
		section("Vocabularies", cat.VocabNames())

		if len(cat.Skipped) > 0 {
			list.WriteString(lipgloss.NewStyle().Foreground(colorError).Render(
				fmt.Sprintf("%d folder(s) skipped: missing or invalid config.json", len(cat.Skipped))))
		}

		box := styleBox.Copy().
			Width(min(70, a.width-4)).
			BorderForeground(colorPrimary).
			Render(strings.TrimSpace(list.String()))
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, box))
	}
	b.WriteString("\n\n")

	if cat != nil && !cat.ScannedAt.IsZero() {
		scanned := styleSubtitle.Render("scanned " + cat.ScannedAt.Format("15:04:05"))
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, scanned))
		b.WriteString("\n\n")
	}

	statusBar := styleStatusBar.Render("[r] Refresh  [Enter] Generate  [Esc] Back")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, statusBar))

	return a.centerVertically(b.String())
}

func adapterLines(adapters []modeldir.Adapter) []string {
	lines := make([]string, len(adapters))
	for i, ad := range adapters {
		line := ad.Name
		if len(ad.Label) > 0 {
			line += "  [" + strings.Join(ad.Label, ", ") + "]"
		}
		if ad.PaddingLength > 0 {
			line += fmt.Sprintf("  len %d", ad.PaddingLength)
		}
		lines[i] = line
	}
	return lines
}
