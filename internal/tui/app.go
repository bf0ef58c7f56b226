package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sant0-9/chembfn/internal/config"
	"github.com/sant0-9/chembfn/internal/engine"
	"github.com/sant0-9/chembfn/internal/history"
	"github.com/sant0-9/chembfn/internal/logging"
	"github.com/sant0-9/chembfn/internal/modeldir"
	"github.com/sant0-9/chembfn/internal/pipeline"
	"github.com/sant0-9/chembfn/internal/writer"
)

type view int

const (
	viewHome view = iota
	viewSetup
	viewCompose
	viewProcessing
	viewResult
	viewModels
	viewHistory
	viewSettings
	viewHelp
	viewError
)

// Options wires the app to the rest of the program.
type Options struct {
	Config *config.Config
	// ConfigPath is where setup saves the config. Empty uses the default path.
	ConfigPath string
	NeedsSetup bool

	Logger  *zap.Logger
	Library *modeldir.Library
	History *history.Store
	Writer  *writer.Writer
}

type App struct {
	width    int
	height   int
	view     view
	state    *state
	quitting bool

	logger  *zap.Logger
	library *modeldir.Library
	history *history.Store
	writer  *writer.Writer
	program *tea.Program
}

func NewApp(opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	s := newState(cfg)
	s.configPath = opts.ConfigPath
	s.needsSetup = opts.NeedsSetup

	lib := opts.Library
	if lib == nil {
		lib = modeldir.NewLibrary(cfg.ModelDir, opts.Logger)
	}
	w := opts.Writer
	if w == nil {
		w = writer.NewWriter(cfg.ExportPath())
	}

	return &App{
		view:    viewHome,
		state:   s,
		logger:  logging.OrNop(opts.Logger),
		library: lib,
		history: opts.History,
		writer:  w,
	}
}

// SetProgram lets background work such as pipeline progress and the model
// watcher post messages to the running program.
func (a *App) SetProgram(p *tea.Program) {
	a.program = p
}

func (a *App) send(msg tea.Msg) {
	if a.program != nil {
		a.program.Send(msg)
	}
}

// Run starts the TUI and blocks until it exits. The model tree is watched
// for changes while the program runs.
func Run(ctx context.Context, opts Options) error {
	app := NewApp(opts)
	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	app.SetProgram(p)

	w, err := modeldir.NewWatcher(app.library, func(cat *modeldir.Catalog) {
		app.send(catalogMsg{cat: cat})
	})
	if err != nil {
		app.logger.Warn("model watcher unavailable", zap.Error(err))
	} else {
		if err := w.Start(ctx); err != nil {
			app.logger.Warn("model watcher failed to start", zap.Error(err))
		}
		defer w.Stop()
	}

	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (a *App) Init() tea.Cmd {
	if a.state.needsSetup {
		a.view = viewSetup
		return tea.Batch(tea.WindowSize(), textinput.Blink, a.refreshCatalog())
	}

	return tea.Batch(
		tea.WindowSize(),
		textinput.Blink,
		a.refreshCatalog(),
		a.connectEngine(),
	)
}

func (a *App) connectEngine() tea.Cmd {
	cfg := a.state.config
	return func() tea.Msg {
		eng, err := engine.NewEngine(cfg)
		if err != nil {
			return engineErrorMsg{err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := eng.Ping(ctx); err != nil {
			return engineErrorMsg{err}
		}

		return engineReadyMsg{eng}
	}
}

func (a *App) refreshCatalog() tea.Cmd {
	lib := a.library
	return func() tea.Msg {
		cat, err := lib.Refresh()
		return catalogMsg{cat: cat, err: err}
	}
}

func (a *App) loadHistory() tea.Cmd {
	store := a.history
	return func() tea.Msg {
		if store == nil {
			return historyMsg{err: errors.New("history is disabled")}
		}
		entries, err := store.List(context.Background(), 100)
		return historyMsg{entries: entries, err: err}
	}
}

type setupCompleteMsg struct{}
type setupErrorMsg struct{ error }
type engineReadyMsg struct{ engine engine.Engine }
type engineErrorMsg struct{ error }
type progressMsg pipeline.Progress

type catalogMsg struct {
	cat *modeldir.Catalog
	err error
}

type resultMsg struct {
	res *pipeline.Result
	err error
}

type exportedMsg struct {
	paths *writer.Paths
	err   error
}

type historyMsg struct {
	entries []*history.Entry
	err     error
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd := a.handleKey(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
		// Keys are consumed by the view handlers; only text inputs see them below.
		if a.view != viewCompose && !(a.view == viewSetup && a.state.setupStep == 1) {
			return a, tea.Batch(cmds...)
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case setupCompleteMsg:
		a.state.needsSetup = false
		a.state.setupStep = 0
		a.view = viewHome
		return a, tea.Batch(a.connectEngine(), a.refreshCatalog())

	case setupErrorMsg:
		a.showError(msg.error)
		return a, nil

	case engineReadyMsg:
		a.state.engine = msg.engine
		a.state.engineReady = true
		a.state.engineError = nil
		a.logger.Info("engine ready", zap.String("engine", msg.engine.Name()))
		return a, nil

	case engineErrorMsg:
		a.state.engineReady = false
		a.state.engineError = msg.error
		a.logger.Warn("engine unavailable", zap.Error(msg.error))
		return a, nil

	case catalogMsg:
		if msg.err != nil {
			a.state.catalogError = msg.err
			return a, nil
		}
		a.state.catalog = msg.cat
		a.state.catalogError = nil
		return a, nil

	case progressMsg:
		p := pipeline.Progress(msg)
		a.state.progress = &p
		return a, nil

	case spinner.TickMsg:
		if a.view != viewProcessing {
			return a, nil
		}
		var cmd tea.Cmd
		a.state.spinner, cmd = a.state.spinner.Update(msg)
		return a, cmd

	case resultMsg:
		a.state.cancel = nil
		if msg.err != nil {
			if errors.Is(msg.err, context.Canceled) {
				a.view = viewCompose
				a.state.formError = "generation cancelled"
				return a, nil
			}
			a.showError(msg.err)
			return a, nil
		}
		a.showResult(msg.res)
		return a, nil

	case exportedMsg:
		if msg.err != nil {
			a.state.status = "Export failed: " + msg.err.Error()
		} else {
			a.state.exported = msg.paths
			a.state.status = "Saved " + msg.paths.SMILES
		}
		return a, nil

	case historyMsg:
		a.state.entries = msg.entries
		a.state.historyError = msg.err
		if a.state.historySelected >= len(msg.entries) {
			a.state.historySelected = 0
		}
		return a, nil
	}

	// Update text inputs based on view
	switch a.view {
	case viewSetup:
		if a.state.setupStep == 1 {
			var cmd tea.Cmd
			a.state.hostInput, cmd = a.state.hostInput.Update(msg)
			cmds = append(cmds, cmd)
		}
	case viewCompose:
		f := a.state.form
		var cmd tea.Cmd
		f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
		cmds = append(cmds, cmd)
	case viewResult:
		var cmd tea.Cmd
		a.state.resultView, cmd = a.state.resultView.Update(msg)
		cmds = append(cmds, cmd)
	case viewHelp:
		var cmd tea.Cmd
		a.state.helpView, cmd = a.state.helpView.Update(msg)
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

func (a *App) resize() {
	w := min(80, a.width-4)
	h := max(5, a.height-8)
	a.state.resultView.Width = w
	a.state.resultView.Height = h
	a.state.helpView.Width = w
	a.state.helpView.Height = h
	if a.state.result != nil {
		a.state.resultView.SetContent(renderMarkdown(writer.Markdown(a.state.result), w))
	}
	a.state.helpView.SetContent(renderMarkdown(helpText, w))
}

func (a *App) showError(err error) {
	a.state.err = err
	a.view = viewError
	a.logger.Error("operation failed", zap.Error(err))
}

func (a *App) showResult(res *pipeline.Result) {
	a.state.result = res
	a.state.exported = nil
	a.state.status = ""
	a.state.resultView.SetContent(renderMarkdown(writer.Markdown(res), a.state.resultView.Width))
	a.state.resultView.GotoTop()
	a.view = viewResult
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		if a.state.cancel != nil {
			a.state.cancel()
		}
		a.quitting = true
		return tea.Quit
	}

	if key.Matches(msg, keys.Quit) {
		return a.back()
	}

	switch a.view {
	case viewHome:
		return a.handleHomeKey(msg)
	case viewSetup:
		return a.handleSetupKey(msg)
	case viewCompose:
		return a.handleComposeKey(msg)
	case viewResult:
		return a.handleResultKey(msg)
	case viewModels:
		return a.handleModelsKey(msg)
	case viewHistory:
		return a.handleHistoryKey(msg)
	case viewSettings:
		return a.handleSettingsKey(msg)
	case viewError:
		return a.handleErrorKey(msg)
	}
	return nil
}

// back handles esc for the current view.
func (a *App) back() tea.Cmd {
	switch a.view {
	case viewHome:
		a.quitting = true
		return tea.Quit
	case viewSetup:
		if a.state.setupStep == 1 {
			a.state.setupStep = 0
			a.state.hostInput.Blur()
			return nil
		}
		if a.state.needsSetup {
			a.quitting = true
			return tea.Quit
		}
		a.view = viewSettings
	case viewProcessing:
		if a.state.cancel != nil {
			a.state.cancel()
		}
	case viewResult:
		a.view = viewCompose
	default:
		a.view = viewHome
	}
	return nil
}

func (a *App) handleHomeKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter", "g":
		return a.openCompose()
	case "m":
		a.view = viewModels
	case "h":
		a.view = viewHistory
		return a.loadHistory()
	case "s":
		a.view = viewSettings
	case "?":
		a.view = viewHelp
		a.state.helpView.GotoTop()
	case "r":
		return tea.Batch(a.connectEngine(), a.refreshCatalog())
	case "q":
		a.quitting = true
		return tea.Quit
	}
	return nil
}

func (a *App) openCompose() tea.Cmd {
	a.view = viewCompose
	a.state.formError = ""
	f := a.state.form
	if f.value(fieldModel) == "" && a.state.catalog != nil {
		if names := a.state.catalog.ModelNames(); len(names) > 0 {
			f.inputs[fieldModel].SetValue(names[0])
		}
	}
	return textinput.Blink
}

func (a *App) handleComposeKey(msg tea.KeyMsg) tea.Cmd {
	f := a.state.form
	switch {
	case key.Matches(msg, keys.Run):
		return a.submit()
	case key.Matches(msg, keys.Next):
		f.cycle(a.state.catalog, 1)
	case key.Matches(msg, keys.Prev):
		f.cycle(a.state.catalog, -1)
	case key.Matches(msg, keys.Tab), msg.String() == "enter" && f.focus != fieldCount-1:
		f.move(1)
	case key.Matches(msg, keys.ShiftTab):
		f.move(-1)
	case msg.String() == "enter":
		return a.submit()
	}
	return nil
}

func (a *App) submit() tea.Cmd {
	job, err := a.state.form.job()
	if err != nil {
		a.state.formError = err.Error()
		return nil
	}
	if !a.state.engineReady {
		err := errors.New("engine is not connected")
		if a.state.engineError != nil {
			err = a.state.engineError
		}
		a.state.formError = err.Error()
		return nil
	}

	a.state.formError = ""
	a.state.lastJob = job
	a.state.progress = nil
	a.view = viewProcessing
	return tea.Batch(a.state.spinner.Tick, a.runJob(job))
}

func (a *App) runJob(job pipeline.Job) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	a.state.cancel = cancel

	p := pipeline.NewPipeline(a.state.engine, a.library, a.logger)
	p.SetProgressCallback(func(pr pipeline.Progress) {
		a.send(progressMsg(pr))
	})
	store := a.history
	logger := a.logger

	return func() tea.Msg {
		defer cancel()
		res, err := p.Run(ctx, job)
		if err != nil {
			return resultMsg{err: err}
		}
		if store != nil {
			if err := store.Save(ctx, history.FromResult(res)); err != nil {
				logger.Warn("failed to save run", zap.String("run", res.ID), zap.Error(err))
			}
		}
		return resultMsg{res: res}
	}
}

func (a *App) handleResultKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "e", "s":
		return a.export()
	case "n":
		return a.openCompose()
	case "r":
		if a.state.result != nil && a.state.engineReady {
			a.state.form.load(a.state.result.Job)
			return a.submit()
		}
	}
	return nil
}

func (a *App) export() tea.Cmd {
	res := a.state.result
	if res == nil {
		return nil
	}
	w := a.writer
	return func() tea.Msg {
		paths, err := w.Export(context.Background(), res)
		return exportedMsg{paths: paths, err: err}
	}
}

func (a *App) handleModelsKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "r":
		return a.refreshCatalog()
	case "g", "enter":
		return a.openCompose()
	}
	return nil
}

func (a *App) handleHistoryKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Up):
		if a.state.historySelected > 0 {
			a.state.historySelected--
		}
	case key.Matches(msg, keys.Down):
		if a.state.historySelected < len(a.state.entries)-1 {
			a.state.historySelected++
		}
	case key.Matches(msg, keys.Enter):
		if e := a.selectedEntry(); e != nil {
			res := entryResult(e)
			a.state.form.load(res.Job)
			a.showResult(res)
		}
	case msg.String() == "d":
		if e := a.selectedEntry(); e != nil && a.history != nil {
			store, id := a.history, e.ID
			return func() tea.Msg {
				if err := store.Delete(context.Background(), id); err != nil {
					return historyMsg{err: err}
				}
				entries, err := store.List(context.Background(), 100)
				return historyMsg{entries: entries, err: err}
			}
		}
	}
	return nil
}

func (a *App) selectedEntry() *history.Entry {
	if a.state.historySelected < 0 || a.state.historySelected >= len(a.state.entries) {
		return nil
	}
	return a.state.entries[a.state.historySelected]
}

// entryResult rebuilds a displayable result from a stored run.
func entryResult(e *history.Entry) *pipeline.Result {
	return &pipeline.Result{
		ID: e.ID,
		Job: pipeline.Job{
			Model:     e.Model,
			Vocab:     e.Vocab,
			BatchSize: e.BatchSize,
			Method:    e.Method,
			Prompt:    e.Prompt,
			Scaffold:  e.Scaffold,
			Transform: e.Transform,
			Chemfig:   len(e.Chemfig) > 0,
		},
		Molecules: e.Molecules,
		Chemfig:   e.Chemfig,
		Transform: e.Transform,
		Device:    e.Device,
		CreatedAt: e.CreatedAt,
		Elapsed:   e.Elapsed,
	}
}

func (a *App) handleSettingsKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "e":
		a.view = viewSetup
		a.state.setupStep = 0
		for i, e := range config.Engines {
			if e.ID == a.state.config.Engine {
				a.state.selectedEngine = i
			}
		}
	case "r":
		return tea.Batch(a.connectEngine(), a.refreshCatalog())
	}
	return nil
}

func (a *App) handleErrorKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "r", "enter":
		return a.openCompose()
	case "s":
		a.view = viewSettings
	case "n":
		a.view = viewHome
	}
	return nil
}

func (a *App) handleSetupKey(msg tea.KeyMsg) tea.Cmd {
	switch a.state.setupStep {
	case 0: // Engine selection
		switch msg.String() {
		case "up", "k":
			if a.state.selectedEngine > 0 {
				a.state.selectedEngine--
			}
		case "down", "j":
			if a.state.selectedEngine < len(config.Engines)-1 {
				a.state.selectedEngine++
			}
		case "enter":
			eng := config.Engines[a.state.selectedEngine]
			a.state.config.Engine = eng.ID

			if eng.NeedsHost {
				host := a.state.config.Host
				if host == "" {
					host = eng.DefaultHost
				}
				a.state.hostInput.SetValue(host)
				a.state.hostInput.CursorEnd()
				a.state.setupStep = 1
				return a.state.hostInput.Focus()
			}
			return a.finishSetup()
		}

	case 1: // Host entry
		if msg.String() == "enter" {
			a.state.config.Host = a.state.hostInput.Value()
			a.state.hostInput.Blur()
			return a.finishSetup()
		}
	}

	return nil
}

func (a *App) finishSetup() tea.Cmd {
	cfg := a.state.config
	path := a.state.configPath
	return func() tea.Msg {
		var err error
		if path != "" {
			err = cfg.SaveFile(path)
		} else {
			err = cfg.Save()
		}
		if err != nil {
			return setupErrorMsg{err}
		}
		if _, err := modeldir.Scaffold(cfg.ModelDir); err != nil {
			return setupErrorMsg{err}
		}
		return setupCompleteMsg{}
	}
}

func (a *App) View() string {
	if a.quitting {
		return ""
	}

	switch a.view {
	case viewSetup:
		return a.renderSetup()
	case viewCompose:
		return a.renderCompose()
	case viewProcessing:
		return a.renderProcessing()
	case viewResult:
		return a.renderResult()
	case viewModels:
		return a.renderModels()
	case viewHistory:
		return a.renderHistory()
	case viewSettings:
		return a.renderSettings()
	case viewHelp:
		return a.renderHelp()
	case viewError:
		return a.renderError()
	default:
		return a.renderHome()
	}
}
