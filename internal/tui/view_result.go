package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

func (a *App) renderResult() string {
	var b strings.Builder

	res := a.state.result
	if res == nil {
		return a.renderHome()
	}

	header := styleSubtitle.Render(fmt.Sprintf("%d molecules in %s  (run %s)",
		len(res.Molecules), res.Elapsed.Round(time.Millisecond), truncate(res.ID, 8)))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, header))
	b.WriteString("\n\n")

	resultBox := styleBox.Copy().
		BorderForeground(colorPrimary).
		Render(a.state.resultView.View())
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, resultBox))
	b.WriteString("\n\n")

	if a.state.status != "" {
		st := lipgloss.NewStyle().Foreground(colorSecondary).Render(a.state.status)
		if a.state.exported == nil {
			st = lipgloss.NewStyle().Foreground(colorError).Render(a.state.status)
		}
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, st))
		b.WriteString("\n\n")
	}

	status := styleStatusBar.Render("[Up/Down] Scroll  [e] Export  [r] Run again  [n] New  [Esc] Back")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, status))

	return a.centerVertically(b.String())
}
