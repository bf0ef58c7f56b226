package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (a *App) renderCompose() string {
	var b strings.Builder

	title := styleTitle.Render("New generation")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	f := a.state.form
	var lines []string
	for i := range f.inputs {
		label := styleLabel.Render(fieldLabels[i])
		if field(i) == f.focus {
			label = styleLabel.Copy().Foreground(colorSecondary).Bold(true).Render(fieldLabels[i])
		}
		lines = append(lines, label+" "+f.inputs[i].View())
	}

	formBox := styleBox.Copy().
		Width(min(72, a.width-4)).
		BorderForeground(colorPrimary).
		Render(strings.Join(lines, "\n"))
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, formBox))
	b.WriteString("\n\n")

	if opts := f.options(a.state.catalog); len(opts) > 0 {
		hint := styleSubtitle.Render(truncate("options: "+strings.Join(nonEmpty(opts), ", "), 70))
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, hint))
		b.WriteString("\n\n")
	}

	if a.state.formError != "" {
		errLine := lipgloss.NewStyle().Foreground(colorError).Render(a.state.formError)
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, errLine))
		b.WriteString("\n\n")
	}

	status := styleStatusBar.Render("[Tab] Next  [Ctrl+N/P] Options  [Ctrl+R] Generate  [Esc] Back")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, status))

	return a.centerVertically(b.String())
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
