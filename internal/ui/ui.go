package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/hifisync/internal/models"
	"github.com/desertthunder/hifisync/internal/services"
	"github.com/desertthunder/hifisync/internal/shared"
	"github.com/desertthunder/hifisync/internal/sync"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	MonitorView ViewState = iota
	MatchView
)

// searchLimit caps the candidate list shown in the match picker.
const searchLimit = 10

// logTailLines is how many recent log lines the monitor renders.
const logTailLines = 4

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	engine  *sync.Engine
	source  services.SourceService
	target  services.TargetService
	updates <-chan sync.Status
	status  sync.Status
	logs    *LogRing
	pending *models.SourceTrack
	input   textinput.Model
	results list.Model
	picking bool
	width   int
	height  int
	err     error
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model with the provided dependencies. updates is
// the engine's status channel; the caller keeps its sending half. logs may be
// nil when no log tail should be rendered.
func NewModel(ctx context.Context, source services.SourceService, target services.TargetService, engine *sync.Engine, updates <-chan sync.Status, logs *LogRing) *Model {
	input := textinput.New()
	input.Placeholder = "search the catalog"
	input.CharLimit = 128

	return &Model{
		ctx:     ctx,
		view:    MonitorView,
		engine:  engine,
		source:  source,
		target:  target,
		updates: updates,
		logs:    logs,
		input:   input,
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the channel pumps for status frames and match requests.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForStatus(), m.waitForMatchRequest())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.results.Width() != 0 {
			m.results.SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case MonitorView:
			return m.handleMonitorKeys(msg)
		case MatchView:
			return m.handleMatchKeys(msg)
		}

	case statusMsg:
		m.status = sync.Status(msg)
		return m, m.waitForStatus()

	case matchRequestMsg:
		track := msg.Track
		m.pending = &track
		m.view = MatchView
		m.picking = false
		m.input.SetValue(sync.CleanTitle(track.Title) + " " + track.Artist)
		m.input.Focus()
		return m, tea.Batch(m.searchTracks(m.input.Value()), m.waitForMatchRequest())

	case searchResultsMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		items := make([]list.Item, len(msg.tracks))
		for i, track := range msg.tracks {
			items[i] = trackItem{track: track}
		}
		m.results = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.results.Title = "Catalog matches"
		m.results.SetShowHelp(false)
		m.results.SetSize(m.width-4, m.height-10)
		m.picking = true
		m.input.Blur()
		return m, nil

	case transportMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("%s: %w", msg.action, msg.err)
		}
		return m, nil
	}

	if m.view == MatchView && m.picking {
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case MatchView:
		return m.renderMatch()
	default:
		return m.renderMonitor()
	}
}

func (m *Model) handleMonitorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		if m.status.State == sync.StatePlaying {
			return m, m.transport("pause", m.source.Pause)
		}
		return m, m.transport("resume", m.source.Resume)
	case key.Matches(msg, m.keys.skip):
		return m, m.transport("skip", m.source.SkipNext)
	case key.Matches(msg, m.keys.prev):
		return m, m.transport("previous", m.source.SkipPrevious)
	}
	return m, nil
}

func (m *Model) handleMatchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit) && !m.input.Focused():
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		// Leave the request unresolved; the engine stays in awaiting match.
		m.view = MonitorView
		m.picking = false
		m.input.Blur()
		return m, nil
	case key.Matches(msg, m.keys.search) && !m.input.Focused():
		m.picking = false
		m.input.Focus()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if m.input.Focused() {
			m.input.Blur()
			return m, m.searchTracks(m.input.Value())
		}
		if item, ok := m.results.SelectedItem().(trackItem); ok {
			return m, m.submitOverride(item.track)
		}
		return m, nil
	}

	if m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) waitForStatus() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-m.updates
		if !ok {
			return tea.Quit()
		}
		return statusMsg(update)
	}
}

func (m *Model) waitForMatchRequest() tea.Cmd {
	return func() tea.Msg {
		request, ok := <-m.engine.MatchRequests()
		if !ok {
			return nil
		}
		return matchRequestMsg(request)
	}
}

func (m *Model) searchTracks(query string) tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.target.SearchTracks(m.ctx, query, searchLimit)
		return searchResultsMsg{tracks: tracks, err: err}
	}
}

func (m *Model) submitOverride(track models.TargetTrack) tea.Cmd {
	m.view = MonitorView
	m.picking = false
	m.pending = nil
	m.err = nil
	return func() tea.Msg {
		m.engine.SubmitOverride(track)
		return nil
	}
}

func (m *Model) transport(action string, call func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return transportMsg{action: action, err: call(m.ctx)}
	}
}

func (m *Model) renderMonitor() string {
	title := styles.title.Render(fmt.Sprintf("hifisync → %s", m.target.Name()))
	state := stateStyle(m.status.State).Render(m.status.State.String())

	source := "nothing playing"
	if m.status.SourceTitle != "" {
		source = m.status.SourceTitle
	}

	body := fmt.Sprintf("%s\n\n  state   %s\n  source  %s", title, state, source)

	if m.status.TargetTitle != "" {
		body += fmt.Sprintf("\n  target  %s", m.status.TargetTitle)
		if m.status.Quality != "" {
			body += fmt.Sprintf(" %s", styles.help.Render(fmt.Sprintf("[%s]", m.status.Quality)))
		}
	}
	if m.status.DurationMS > 0 {
		body += fmt.Sprintf("\n  time    %s / %s", shared.FormatMS(m.status.ElapsedMS), shared.FormatMS(m.status.DurationMS))
	}
	if m.status.Detail != "" {
		body += fmt.Sprintf("\n\n  %s", styles.warn.Render(m.status.Detail))
	}
	if m.err != nil {
		body += fmt.Sprintf("\n\n  %s", styles.err.Render(m.err.Error()))
	}

	if m.logs != nil {
		if tail := m.logs.Tail(logTailLines); len(tail) > 0 {
			body += "\n"
			for _, line := range tail {
				body += fmt.Sprintf("\n  %s", styles.help.Render(line))
			}
		}
	}

	helpKeys := []key.Binding{m.keys.toggle, m.keys.skip, m.keys.prev, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", body, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderMatch() string {
	header := "No catalog match"
	if m.pending != nil {
		header = fmt.Sprintf("No catalog match for '%s - %s'", m.pending.Title, m.pending.Artist)
	}
	title := styles.title.Render(header)

	var body string
	if m.picking {
		body = m.results.View()
	} else {
		body = m.input.View()
	}
	if m.err != nil {
		body += fmt.Sprintf("\n\n%s", styles.err.Render(m.err.Error()))
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.search, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n\n%s", title, body, m.help.ShortHelpView(helpKeys))
}
