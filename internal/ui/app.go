package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/soratui/internal/prefs"
	"github.com/five82/soratui/internal/state"
	"github.com/five82/soratui/internal/workflow"
)

// Workflow is the controller surface the UI drives. *workflow.Controller
// satisfies it.
type Workflow interface {
	Trigger(ctx context.Context, s workflow.Surface) error
	Busy() bool
	Snapshot() state.Snapshot
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Workflow  Workflow
	Profile   string
	Endpoint  string
	OutputDir string
	Prefs     prefs.Prefs
	PrefsPath string
	Tick      time.Duration
}

// Form field indices. fieldButton is the "Create Video" trigger.
const (
	fieldScript = iota
	fieldVoice
	fieldStyle
	fieldButton
	fieldCount
)

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	workflow  Workflow
	surface   *chanSurface
	profile   string
	endpoint  string
	outputDir string
	prefs     prefs.Prefs
	prefsPath string
	tick      time.Duration
	now       func() time.Time

	// UI state
	theme    Theme
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	width    int
	height   int
	ready    bool
	showHelp bool

	// Form state
	inputs [fieldButton]textinput.Model
	focus  int

	// Workflow state
	snapshot state.Snapshot

	// Log state
	logViewport viewport.Model
	logLines    []string
	follow      bool

	quitArmedAt time.Time
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = DefaultUIInterval
	}

	m := Model{
		ctx:       ctx,
		workflow:  opts.Workflow,
		surface:   newChanSurface(),
		profile:   opts.Profile,
		endpoint:  opts.Endpoint,
		outputDir: opts.OutputDir,
		prefs:     opts.Prefs,
		prefsPath: opts.PrefsPath,
		tick:      tick,
		now:       time.Now,
		theme:     GetTheme(opts.Prefs.Theme),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		follow:    true,
	}
	m.initInputs()
	m.applyTheme()
	return m
}

func (m *Model) initInputs() {
	fields := [fieldButton]struct {
		prompt, placeholder, value string
		limit                      int
	}{
		fieldScript: {"Script ", "Describe the video to generate", "", 4000},
		fieldVoice:  {"Voice  ", "optional, e.g. alloy", m.prefs.Voice, 64},
		fieldStyle:  {"Style  ", "optional, e.g. cinematic", m.prefs.Style, 64},
	}
	for i, f := range fields {
		ti := textinput.New()
		ti.Prompt = f.prompt
		ti.Placeholder = f.placeholder
		ti.CharLimit = f.limit
		ti.SetValue(f.value)
		m.inputs[i] = ti
	}
	m.inputs[fieldScript].Focus()
	m.focus = fieldScript
}

func (m *Model) applyTheme() {
	styles := m.theme.Styles()
	m.spinner.Style = styles.AccentText
	m.help.Styles.ShortKey = styles.AccentText
	m.help.Styles.ShortDesc = styles.MutedText
	m.help.Styles.ShortSeparator = styles.FaintText
	m.help.Styles.FullKey = styles.AccentText
	m.help.Styles.FullDesc = styles.Text
	m.help.Styles.FullSeparator = styles.FaintText
	for i := range m.inputs {
		m.inputs[i].PromptStyle = styles.MutedText
		m.inputs[i].TextStyle = styles.Text
		m.inputs[i].PlaceholderStyle = styles.FaintText
		m.inputs[i].Cursor.Style = styles.AccentText
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		tickCmd(m.tick),
		waitForLine(m.surface),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		m.ready = true
		return m, nil

	case tickMsg:
		m.refreshSnapshot()
		return m, tickCmd(m.tick)

	case logLineMsg:
		// Phase changes arrive with their log line; keep the button in step.
		m.refreshSnapshot()
		m.appendLog(msg.at, msg.text)
		return m, waitForLine(m.surface)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateFocusedInput(msg)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderForm())
	b.WriteString("\n")
	b.WriteString(m.renderLogs())
	b.WriteString("\n")
	b.WriteString(" " + m.help.View(m.keys))
	return b.String()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.handleQuit()
	}

	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help), m.focus == fieldButton && msg.String() == "?":
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.trigger()

	case key.Matches(msg, m.keys.Confirm):
		if m.focus == fieldButton {
			return m.trigger()
		}
		return m, m.setFocus(m.focus + 1)

	case key.Matches(msg, m.keys.NextField):
		return m, m.setFocus(m.focus + 1)

	case key.Matches(msg, m.keys.PrevField):
		return m, m.setFocus(m.focus - 1)

	case key.Matches(msg, m.keys.ToggleFollow):
		m.follow = !m.follow
		if m.follow {
			m.logViewport.GotoBottom()
		}
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.logViewport.PageUp()
		m.follow = false
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.logViewport.PageDown()
		m.follow = m.logViewport.AtBottom()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
		m.follow = false
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
		m.follow = true
		return m, nil
	}

	return m.updateFocusedInput(msg)
}

// handleQuit requires two ctrl+c presses within QuitConfirmWindow.
func (m Model) handleQuit() (tea.Model, tea.Cmd) {
	now := m.now()
	if !m.quitArmedAt.IsZero() && now.Sub(m.quitArmedAt) <= QuitConfirmWindow {
		m.surface.close()
		return m, tea.Quit
	}
	m.quitArmedAt = now
	m.appendLog(now, "Press Ctrl-C again to exit")
	return m, nil
}

// trigger hands the current fields to the workflow. The controller rejects
// the call while a run is in flight; the button is also rendered disabled.
func (m Model) trigger() (tea.Model, tea.Cmd) {
	if m.workflow == nil {
		return m, nil
	}
	m.refreshSnapshot()
	if m.busy() {
		return m, nil
	}
	fields := workflow.Fields{
		Script: m.inputs[fieldScript].Value(),
		Voice:  m.inputs[fieldVoice].Value(),
		Style:  m.inputs[fieldStyle].Value(),
	}
	m.surface.setFields(fields)

	err := m.workflow.Trigger(m.ctx, m.surface)
	switch {
	case err == nil:
		m.refreshSnapshot()
		m.rememberFields(fields)
	case errors.Is(err, workflow.ErrBusy), errors.Is(err, workflow.ErrEmptyScript):
		// Already reported or harmless.
	default:
		m.appendLog(m.now(), fmt.Sprintf("Error starting workflow: %v", err))
	}
	return m, nil
}

func (m *Model) rememberFields(f workflow.Fields) {
	voice, style := strings.TrimSpace(f.Voice), strings.TrimSpace(f.Style)
	if voice == m.prefs.Voice && style == m.prefs.Style {
		return
	}
	m.prefs.Voice, m.prefs.Style = voice, style
	m.savePrefs()
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.prefs.Theme = m.theme.Name
	m.applyTheme()
	m.refreshLogContent()
	m.savePrefs()
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.appendLog(m.now(), fmt.Sprintf("Could not save preferences: %v", err))
	}
}

func (m *Model) refreshSnapshot() {
	if m.workflow != nil {
		m.snapshot = m.workflow.Snapshot()
	}
}

func (m Model) busy() bool {
	if m.workflow != nil && m.workflow.Busy() {
		return true
	}
	return m.snapshot.Phase.Active()
}

// setFocus moves focus to idx, wrapping around the form.
func (m *Model) setFocus(idx int) tea.Cmd {
	idx = (idx%fieldCount + fieldCount) % fieldCount
	m.focus = idx
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == idx {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

func (m Model) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.focus >= fieldButton {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) resize() {
	inputWidth := m.width - 14
	if inputWidth < 10 {
		inputWidth = 10
	}
	for i := range m.inputs {
		m.inputs[i].Width = inputWidth
	}
	m.updateLogViewport()
}

// Messages

type tickMsg time.Time

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Run starts the Bubble Tea program and blocks until the user quits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	m.surface.close()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
