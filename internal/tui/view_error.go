package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sant0-9/chembfn/internal/pipeline"
	"github.com/sant0-9/chembfn/internal/prompt"
)

func (a *App) renderError() string {
	var b strings.Builder

	title := lipgloss.NewStyle().
		Foreground(colorError).
		Bold(true).
		Render("Something went wrong")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, title))
	b.WriteString("\n\n")

	errMsg := "Unknown error"
	if a.state.err != nil {
		errMsg = a.state.err.Error()
	}

	errBox := styleBox.Copy().
		Width(min(60, a.width-4)).
		BorderForeground(colorError).
		Render(errMsg)
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, errBox))
	b.WriteString("\n\n")

	if suggestions := suggest(a.state.err); len(suggestions) > 0 {
		suggBox := styleBox.Copy().
			Width(min(60, a.width-4)).
			BorderForeground(colorMuted).
			Render("Suggestions:\n" + strings.Join(suggestions, "\n"))
		b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, suggBox))
		b.WriteString("\n\n")
	}

	status := styleStatusBar.Render("[r] Edit and retry  [s] Settings  [n] Home  [Esc] Back")
	b.WriteString(lipgloss.PlaceHorizontal(a.width, lipgloss.Center, status))

	return a.centerVertically(b.String())
}

// suggest maps an error to hints for the user.
func suggest(err error) []string {
	if err == nil {
		return nil
	}

	var perr *prompt.ParseError
	if errors.As(err, &perr) {
		return []string{
			"A number in the prompt could not be read: " + perr.Literal,
			"Scales look like <name:0.5>, objectives like [1.2,-0.3]",
		}
	}

	errLower := strings.ToLower(err.Error())
	var suggestions []string
	switch {
	case errors.Is(err, pipeline.ErrInvalidJob) && strings.Contains(errLower, "not found"):
		suggestions = append(suggestions, "Press [m] on the home screen to see installed models")
		suggestions = append(suggestions, "Names are the file or folder names under the model directory")
	case errors.Is(err, pipeline.ErrInvalidJob):
		suggestions = append(suggestions, "Fix the highlighted field and generate again")
	case strings.Contains(errLower, "401") || strings.Contains(errLower, "unauthorized"):
		suggestions = append(suggestions, "Check api_key in ~/.config/chembfn/config.yaml")
	case strings.Contains(errLower, "connection") || strings.Contains(errLower, "connect") || strings.Contains(errLower, "timeout"):
		suggestions = append(suggestions, "Make sure the inference server is running")
		suggestions = append(suggestions, "Or switch to the local Python engine in settings")
	case strings.Contains(errLower, "python") || strings.Contains(errLower, "bridge"):
		suggestions = append(suggestions, "Make sure Python and the model package are installed:")
		suggestions = append(suggestions, "  pip install bayesianflow_for_chem")
	case strings.Contains(errLower, "out of memory"):
		suggestions = append(suggestions, "Lower the batch size or sequence length")
	case strings.Contains(errLower, "rate limit") || strings.Contains(errLower, "429"):
		suggestions = append(suggestions, "The server is busy, wait a moment and try again")
	}
	return suggestions
}
