package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spx/internal/formatter"
	"github.com/desertthunder/spx/internal/models"
	"github.com/desertthunder/spx/internal/services"
	"github.com/desertthunder/spx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	FormatView
	ExportView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	lister       services.Lister
	engine       *tasks.ExportEngine
	opts         tasks.BatchOpts
	width        int
	height       int
	playlistList list.Model
	playlists    []models.PlaylistSummary
	selected     map[string]bool
	formatList   list.Model
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	result       *models.BatchResult
	err          error
	help         help.Model
	keys         keyMap
}

type playlistsFetchedMsg struct {
	playlists []models.PlaylistSummary
	err       error
}

type progressUpdateMsg tasks.ProgressUpdate

type batchCompleteMsg struct {
	result *models.BatchResult
	err    error
}

// NewModel creates a new TUI model with the provided dependencies.
//
// opts carries the configured defaults for the batch; the format is replaced
// by whatever the user picks in [FormatView].
func NewModel(ctx context.Context, lister services.Lister, engine *tasks.ExportEngine, opts tasks.BatchOpts) *Model {
	return &Model{
		ctx:      ctx,
		view:     PlaylistListView,
		lister:   lister,
		engine:   engine,
		opts:     opts,
		selected: make(map[string]bool),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init initializes the TUI by fetching the user's playlists.
func (m *Model) Init() tea.Cmd {
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.playlistList.Width() == 0 {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.formatList.Width() == 0 {
			m.formatList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case FormatView:
			return m.handleFormatKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.playlists = msg.playlists
		m.playlistList = list.New(m.playlistItems(), list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Spotify Playlists"
		m.playlistList.SetSize(m.width-4, m.height-8)
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case batchCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case FormatView:
		return m.renderFormatList()
	case ExportView:
		return m.renderExport()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		if item, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.selected[item.playlist.ID] = !m.selected[item.playlist.ID]
			m.refreshPlaylistItems()
		}
		return m, nil
	case key.Matches(msg, m.keys.all):
		for _, p := range m.playlists {
			m.selected[p.ID] = true
		}
		m.refreshPlaylistItems()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if len(m.selectedIDs()) == 0 {
			return m, nil
		}
		m.formatList = list.New(m.formatItems(), list.NewDefaultDelegate(), m.width-4, m.height-8)
		m.formatList.Title = "Export Format"
		m.view = FormatView
		return m, nil
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleFormatKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.formatList.SelectedItem().(formatItem); ok {
			m.opts.Format = item.format
			m.view = ExportView
			return m, m.startExport()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.formatList, cmd = m.formatList.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = PlaylistListView
		m.selected = make(map[string]bool)
		m.refreshPlaylistItems()
		m.result = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case FormatView:
		m.formatList, cmd = m.formatList.Update(msg)
	}
	return m, cmd
}

func (m *Model) playlistItems() []list.Item {
	items := make([]list.Item, len(m.playlists))
	for i, p := range m.playlists {
		items[i] = playlistItem{playlist: p, checked: m.selected[p.ID]}
	}
	return items
}

// refreshPlaylistItems rebuilds item state in place, preserving the cursor.
func (m *Model) refreshPlaylistItems() {
	idx := m.playlistList.Index()
	m.playlistList.SetItems(m.playlistItems())
	m.playlistList.Select(idx)
}

func (m *Model) formatItems() []list.Item {
	formats := []formatter.Format{
		formatter.FormatCSV,
		formatter.FormatJSON,
		formatter.FormatText,
		formatter.FormatMarkdown,
	}
	if m.opts.WebhookURL != "" {
		formats = append(formats, formatter.FormatDiscord)
	}

	items := make([]list.Item, len(formats))
	for i, f := range formats {
		items[i] = formatItem{format: f}
	}
	return items
}

func (m *Model) selectedIDs() []string {
	var ids []string
	for _, p := range m.playlists {
		if m.selected[p.ID] {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.lister.UserPlaylists(m.ctx)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) startExport() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	ids := m.selectedIDs()

	go func(progress chan tasks.ProgressUpdate) {
		result, err := m.engine.RunBatch(m.ctx, progress, ids, m.opts)
		m.result = result
		m.err = err
		close(progress)
	}(m.progressChan)

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return batchCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-m.progressChan
		if !ok {
			return batchCompleteMsg{result: m.result, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.toggle, m.keys.all, m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	count := styles.help.Render(fmt.Sprintf("%d selected", len(m.selectedIDs())))
	return fmt.Sprintf("%s\n%s\n\n%s", m.playlistList.View(), count, helpView)
}

func (m *Model) renderFormatList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.formatList.View(), helpView)
}

func (m *Model) renderExport() string {
	title := styles.title.Render("Exporting Playlists")

	var phase string
	switch m.progress.Status {
	case models.StatusFetching:
		phase = fmt.Sprintf("Fetching (%d/%d)", m.progress.Step, m.progress.Total)
		if m.progress.Fraction > 0 {
			phase = fmt.Sprintf("%s • %.0f%% of tracks", phase, m.progress.Fraction*100)
		}
	case models.StatusRendering:
		phase = fmt.Sprintf("Rendering (%d/%d)", m.progress.Step, m.progress.Total)
	case models.StatusDelivering:
		phase = fmt.Sprintf("Delivering (%d/%d)", m.progress.Step, m.progress.Total)
	case models.StatusDone, models.StatusFailed, models.StatusCancelled:
		phase = fmt.Sprintf("Finished %d/%d", m.progress.Step, m.progress.Total)
	default:
		phase = "Starting..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.result == nil {
		if m.err != nil {
			return styles.err.Render(fmt.Sprintf("Export failed: %v\n\nPress r to retry, q to quit", m.err))
		}
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	succeeded := m.result.Succeeded()
	failed := m.result.Failed()
	cancelled := m.result.Cancelled()

	var title string
	if failed == 0 && cancelled == 0 {
		title = styles.ok.Render("✓ Export Complete!")
	} else {
		title = styles.warn.Render("Export finished with issues")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\nSucceeded: %d  Failed: %d  Cancelled: %d\n", succeeded, failed, cancelled)
	for _, job := range m.result.Jobs {
		switch job.Status {
		case models.StatusDone:
			fmt.Fprintf(&b, "\n  %s %s (%d tracks)", styles.ok.Render("✓"), job.PlaylistName, job.TrackCount)
		case models.StatusFailed:
			fmt.Fprintf(&b, "\n  %s %s: %v", styles.err.Render("✗"), jobLabel(job), job.Err)
		case models.StatusCancelled:
			fmt.Fprintf(&b, "\n  %s %s: cancelled", styles.warn.Render("•"), jobLabel(job))
		}
	}
	if m.err != nil {
		fmt.Fprintf(&b, "\n\n%s", styles.err.Render(fmt.Sprintf("Batch error: %v", m.err)))
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s%s\n\n%s", title, b.String(), helpView)
}

func jobLabel(job models.JobResult) string {
	if job.PlaylistName != "" {
		return job.PlaylistName
	}
	return job.PlaylistID
}
