package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (a *App) renderHistory() string {
	var b strings.Builder

	title := styleTitle.Render("History")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	var body string
	switch {
	case a.state.historyError != nil:
		body = lipgloss.NewStyle().Foreground(colorError).Render(a.state.historyError.Error())
	case len(a.state.entries) == 0:
		body = styleSubtitle.Render("No runs yet.")
	default:
		var lines []string
		for i, e := range a.state.entries {
			line := fmt.Sprintf("%s  %-16s %-3s %3d  %s",
				e.CreatedAt.Format("2006-01-02 15:04"),
				truncate(e.Model, 16),
				e.Method,
				len(e.Molecules),
				truncate(e.Prompt, 24),
			)
			if i == a.state.historySelected {
				lines = append(lines, styleActive.Render("> "+line))
			} else {
				lines = append(lines, "  "+line)
			}
		}
		body = strings.Join(lines, "\n")
	}

	box := styleBox.Copy().
		Width(min(80, a.width-4)).
		Render(body)
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, box))
	b.WriteString("\n\n")

	status := styleStatusBar.Render("[Up/Down] Navigate  [Enter] Open  [d] Delete  [Esc] Back")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, status))

	return a.centerVertically(b.String())
}
