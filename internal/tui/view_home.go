package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

const logo = `
┏━╸╻ ╻┏━╸┏┳┓┏┓ ┏━╸┏┓╻
┃  ┣━┫┣╸ ┃┃┃┣┻┓┣╸ ┃┗┫
┗━╸╹ ╹┗━╸╹ ╹┗━┛╹  ╹ ╹
`

func (a *App) renderHome() string {
	// Logo
	logoRendered := styleLogo.Render(logo)

	// Subtitle
	subtitle := styleSubtitle.Render("Bayesian flow networks for chemistry")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		logoRendered,
		subtitle,
		"",
		a.engineStatus(),
		a.catalogStatus(),
	)

	// Center content on screen (leave room for status bar)
	mainArea := lipgloss.Place(
		a.width,
		a.height-2,
		lipgloss.Center,
		lipgloss.Center,
		content,
	)

	statusBar := styleStatusBar.Render("[Enter] Generate  [m] Models  [h] History  [s] Settings  [?] Help  [Esc] Quit")
	statusLine := lipgloss.PlaceHorizontal(a.width, lipgloss.Center, statusBar)

	return lipgloss.JoinVertical(lipgloss.Left, mainArea, statusLine)
}

func (a *App) engineStatus() string {
	name := a.state.config.Engine
	switch {
	case a.state.engineReady:
		return lipgloss.NewStyle().Foreground(colorSuccess).Render(fmt.Sprintf("engine: %s ready", name))
	case a.state.engineError != nil:
		return lipgloss.NewStyle().Foreground(colorError).Render(
			fmt.Sprintf("engine: %s unavailable (%s)  [r] Retry", name, truncate(a.state.engineError.Error(), 50)))
	default:
		return styleSubtitle.Render(fmt.Sprintf("engine: connecting to %s...", name))
	}
}

func (a *App) catalogStatus() string {
	if a.state.catalogError != nil {
		return lipgloss.NewStyle().Foreground(colorError).Render("models: " + truncate(a.state.catalogError.Error(), 60))
	}
	cat := a.state.catalog
	if cat == nil {
		return styleSubtitle.Render("models: scanning...")
	}
	return styleSubtitle.Render(fmt.Sprintf("models: %d base, %d standalone, %d LoRA, %d vocabularies",
		len(cat.Base), len(cat.Standalone), len(cat.Lora), len(cat.Vocabs)))
}
