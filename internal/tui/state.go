package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/sant0-9/chembfn/internal/config"
	"github.com/sant0-9/chembfn/internal/engine"
	"github.com/sant0-9/chembfn/internal/history"
	"github.com/sant0-9/chembfn/internal/modeldir"
	"github.com/sant0-9/chembfn/internal/pipeline"
	"github.com/sant0-9/chembfn/internal/writer"
)

type state struct {
	// Config
	config     *config.Config
	configPath string
	needsSetup bool

	// Setup wizard state
	setupStep      int
	selectedEngine int
	hostInput      textinput.Model

	// Engine
	engine      engine.Engine
	engineReady bool
	engineError error

	// Model tree
	catalog      *modeldir.Catalog
	catalogError error

	// Compose
	form      *form
	formError string

	// Processing
	cancel   context.CancelFunc
	progress *pipeline.Progress
	spinner  spinner.Model
	lastJob  pipeline.Job

	// Result
	result     *pipeline.Result
	resultView viewport.Model
	status     string
	exported   *writer.Paths

	// History
	entries         []*history.Entry
	historySelected int
	historyError    error

	// Help
	helpView viewport.Model

	// Error view
	err error
}

func newState(cfg *config.Config) *state {
	host := textinput.New()
	host.Placeholder = "http://localhost:8765"
	host.CharLimit = 200
	host.Width = 50

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleActive

	return &state{
		config:     cfg,
		hostInput:  host,
		form:       newForm(cfg.Defaults),
		spinner:    sp,
		resultView: viewport.New(70, 20),
		helpView:   viewport.New(70, 20),
	}
}
