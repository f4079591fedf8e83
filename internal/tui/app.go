package tui

import (
	"context"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/postbrowser/internal/domain"
	"github.com/mmcdole/postbrowser/internal/search"
	"github.com/mmcdole/postbrowser/internal/tui/components"
	"github.com/mmcdole/postbrowser/internal/tui/styles"
)

const (
	// historyLimit is how many past queries the search field can recall
	historyLimit = 50

	// pullThreshold is how many wheel-ups past the top trigger a refresh
	pullThreshold = 2

	// Vertical layout: bordered search field plus a status line
	searchHeight = 3
	statusHeight = 1
)

// Options configures a new Model
type Options struct {
	Repo      domain.PostRepository
	History   History // nil disables history
	Logger    *slog.Logger
	Mode      search.Mode
	Query     string // Initial search text
	BodyLines int    // Max body lines per card, 0 = unlimited
}

// Model is the Bubble Tea model for the post browser screen
type Model struct {
	// Fetch state
	Phase      Phase
	Posts      []domain.Post // As last fetched, replaced wholesale
	generation uint64        // Bumped whenever Posts is replaced

	// UI Components
	SearchBar components.SearchBar
	List      *components.PostList
	Spinner   spinner.Model
	Help      help.Model
	Keys      KeyMap

	// Dimensions
	Width  int
	Height int

	mode   search.Mode
	filter *search.Cache

	repo    domain.PostRepository
	history History
	logger  *slog.Logger

	// In-flight request; live is 0 when nothing is outstanding
	seq    uint64
	live   uint64
	cancel context.CancelFunc

	pulls    int // Consecutive wheel-ups at the top of the list
	quitting bool
}

// NewModel creates the post browser model. Nothing is fetched until Init runs.
func NewModel(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mode := opts.Mode
	if !mode.Valid() {
		mode = search.ModeSubstring
	}

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(styles.SpinnerStyle),
	)

	m := Model{
		Phase:     PhaseIdle,
		SearchBar: components.NewSearchBar(opts.Query),
		List:      components.NewPostList(opts.BodyLines),
		Spinner:   sp,
		Help:      help.New(),
		Keys:      DefaultKeyMap(),
		mode:      mode,
		filter:    &search.Cache{},
		repo:      opts.Repo,
		history:   opts.History,
		logger:    logger,
	}
	m.syncList()
	return m
}

// Init schedules the initial load, the spinner and history
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		initialLoadCmd,
		m.Spinner.Tick,
		LoadHistoryCmd(m.history, historyLimit, m.logger),
		textinput.Blink,
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.updateLayout()
		return m, nil

	case initialLoadMsg:
		// Exactly one initial fetch
		if m.Phase != PhaseIdle || m.quitting {
			return m, nil
		}
		return m, m.startFetch(PhaseLoading)

	case PostsLoadedMsg:
		if !m.isLive(msg.Seq) {
			m.logger.Debug("dropping stale fetch result", "seq", msg.Seq, "live", m.live)
			return m, nil
		}
		m.finishFetch()
		m.Posts = msg.Posts
		m.generation++
		m.Phase = settle(true)
		m.syncList()
		m.logger.Info("posts loaded", "count", len(msg.Posts), "seq", msg.Seq)
		return m, nil

	case FetchFailedMsg:
		if !m.isLive(msg.Seq) {
			m.logger.Debug("dropping stale fetch failure", "seq", msg.Seq, "error", msg.Err)
			return m, nil
		}
		m.finishFetch()
		// Keep whatever was already shown; the failure is only logged
		m.Phase = settle(false)
		m.logger.Error("failed to load posts", "error", msg.Err, "seq", msg.Seq, "kept", len(m.Posts))
		return m, nil

	case HistoryLoadedMsg:
		m.SearchBar.SetHistory(msg.Queries)
		return m, nil

	case HistorySavedMsg:
		return m, LoadHistoryCmd(m.history, historyLimit, m.logger)

	case spinner.TickMsg:
		// Stop ticking once nothing is in flight; refresh re-arms it
		if !m.Phase.Blocking() && !m.Phase.InFlight() {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	// Cursor blink and friends
	var cmd tea.Cmd
	m.SearchBar, cmd = m.SearchBar.Update(msg)
	return m, cmd
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.Keys.ForceQuit) {
		return m.quit()
	}

	// The loader owns the screen; there is nothing to type into yet
	if m.Phase.Blocking() {
		if key.Matches(msg, m.Keys.Quit) || msg.Type == tea.KeyEsc {
			return m.quit()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.Keys.Refresh):
		return m, m.refresh()

	case key.Matches(msg, m.Keys.ToggleFocus):
		if m.SearchBar.Focused() {
			return m, m.focusList()
		}
		return m, m.focusSearch()

	case key.Matches(msg, m.Keys.CycleMode):
		m.mode = m.mode.Next()
		m.syncList()
		m.logger.Debug("search mode changed", "mode", m.mode)
		return m, nil
	}

	if m.SearchBar.Focused() {
		return m.handleSearchKey(msg)
	}
	return m.handleListKey(msg)
}

// handleSearchKey handles keys while the search field has focus.
// Arrow and page keys still scroll the list.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Clear):
		if m.SearchBar.Query() == "" {
			return m, m.focusList()
		}
		m.SearchBar.SetQuery("")
		m.syncList()
		return m, nil

	case key.Matches(msg, m.Keys.Submit):
		query := m.SearchBar.Query()
		return m, tea.Batch(SaveQueryCmd(m.history, query, m.logger), m.focusList())

	case key.Matches(msg, m.Keys.Older):
		if m.SearchBar.Older() {
			m.syncList()
		}
		return m, nil

	case key.Matches(msg, m.Keys.Newer):
		if m.SearchBar.Newer() {
			m.syncList()
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyUp:
		m.List.MoveBy(-1)
		return m, nil
	case tea.KeyDown:
		m.List.MoveBy(1)
		return m, nil
	case tea.KeyPgUp:
		m.List.MoveBy(-m.List.PageSize())
		return m, nil
	case tea.KeyPgDown:
		m.List.MoveBy(m.List.PageSize())
		return m, nil
	}

	before := m.SearchBar.Query()
	var cmd tea.Cmd
	m.SearchBar, cmd = m.SearchBar.Update(msg)
	if m.SearchBar.Query() != before {
		m.syncList()
	}
	return m, cmd
}

// handleListKey handles keys while the list has focus
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Up):
		m.pulls = 0
		m.List.MoveBy(-1)
	case key.Matches(msg, m.Keys.Down):
		m.pulls = 0
		m.List.MoveBy(1)
	case key.Matches(msg, m.Keys.HalfUp):
		m.List.MoveBy(-max(1, m.List.PageSize()/2))
	case key.Matches(msg, m.Keys.HalfDown):
		m.List.MoveBy(max(1, m.List.PageSize()/2))
	case key.Matches(msg, m.Keys.PageUp):
		m.List.MoveBy(-m.List.PageSize())
	case key.Matches(msg, m.Keys.PageDown):
		m.List.MoveBy(m.List.PageSize())
	case key.Matches(msg, m.Keys.Home):
		m.List.Home()
	case key.Matches(msg, m.Keys.End):
		m.List.End()
	case key.Matches(msg, m.Keys.ListRefresh):
		return m, m.refresh()
	case key.Matches(msg, m.Keys.Help):
		m.Help.ShowAll = !m.Help.ShowAll
		m.updateLayout()
	case key.Matches(msg, m.Keys.Quit):
		return m.quit()
	case key.Matches(msg, m.Keys.Focus), key.Matches(msg, m.Keys.Clear):
		return m, m.focusSearch()
	case msg.Type == tea.KeyRunes, msg.Type == tea.KeySpace:
		// Typing anywhere goes to the search field
		cmd := m.focusSearch()
		model, typed := m.handleSearchKey(msg)
		return model, tea.Batch(cmd, typed)
	}
	return m, nil
}

// handleMouseMsg scrolls the list; pulling past the top refreshes
func (m Model) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.Phase.Blocking() || msg.Action != tea.MouseActionPress {
		return m, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if m.List.AtTop() {
			m.pulls++
			if m.pulls >= pullThreshold {
				m.pulls = 0
				return m, m.refresh()
			}
			return m, nil
		}
		m.pulls = 0
		m.List.MoveBy(-1)
	case tea.MouseButtonWheelDown:
		m.pulls = 0
		m.List.MoveBy(1)
	}
	return m, nil
}

// refresh re-fetches while keeping the current posts on screen
func (m *Model) refresh() tea.Cmd {
	if m.Phase.Blocking() || m.quitting {
		return nil
	}
	return tea.Batch(m.startFetch(PhaseRefreshing), m.Spinner.Tick)
}

// startFetch cancels any outstanding request and issues a new one
func (m *Model) startFetch(phase Phase) tea.Cmd {
	m.cancelFetch()

	ctx, cancel := context.WithCancel(context.Background())
	m.seq++
	m.live = m.seq
	m.cancel = cancel
	m.Phase = phase

	m.logger.Info("fetching posts", "seq", m.seq, "phase", phase.String())
	return FetchPostsCmd(ctx, m.repo, m.seq)
}

// cancelFetch aborts the outstanding request; its result will be dropped
func (m *Model) cancelFetch() {
	if m.cancel != nil {
		m.logger.Debug("cancelling fetch", "seq", m.live)
		m.cancel()
	}
	m.cancel = nil
	m.live = 0
}

// finishFetch releases the completed request's context
func (m *Model) finishFetch() {
	if m.cancel != nil {
		m.cancel()
	}
	m.cancel = nil
	m.live = 0
}

func (m Model) isLive(seq uint64) bool {
	return !m.quitting && m.live != 0 && seq == m.live
}

// quit tears the screen down; no fetch result is applied afterwards
func (m Model) quit() (tea.Model, tea.Cmd) {
	m.cancelFetch()
	m.quitting = true
	return m, tea.Quit
}

// Shutdown cancels any outstanding request. Safe to call more than once.
func (m Model) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Model) focusSearch() tea.Cmd {
	m.List.SetFocused(false)
	return m.SearchBar.Focus()
}

func (m *Model) focusList() tea.Cmd {
	m.SearchBar.Blur()
	m.List.SetFocused(true)
	return nil
}

// syncList re-derives the rendered posts from Posts, the query and the mode
func (m *Model) syncList() {
	m.List.SetPosts(m.filter.Filter(m.Posts, m.generation, m.SearchBar.Query(), m.mode))
}

// updateLayout distributes the window between search field, list and footer
func (m *Model) updateLayout() {
	m.SearchBar.SetWidth(m.Width)
	m.Help.Width = m.Width

	footer := lipgloss.Height(m.Help.View(m.Keys))
	listHeight := m.Height - searchHeight - statusHeight - footer
	if listHeight < 1 {
		listHeight = 1
	}
	m.List.SetSize(m.Width, listHeight)
}

// Visible returns the posts the list currently renders
func (m Model) Visible() []domain.Post {
	return m.List.Posts()
}

// Query returns the current search text
func (m Model) Query() string {
	return m.SearchBar.Query()
}

// Mode returns the active search mode
func (m Model) Mode() search.Mode {
	return m.mode
}

// IsLoading reports whether the full-screen loader is shown
func (m Model) IsLoading() bool {
	return m.Phase.Blocking()
}

// IsRefreshing reports whether a user refresh is in flight
func (m Model) IsRefreshing() bool {
	return m.Phase == PhaseRefreshing
}
