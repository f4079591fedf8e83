package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/postbrowser/internal/tui/styles"
)

// SearchPlaceholder is shown while the search field is empty
const SearchPlaceholder = "Search titles..."

// SearchBar is the always-visible search field above the list.
// It also walks back through previously submitted queries.
type SearchBar struct {
	input textinput.Model
	width int

	history    []string // Newest first
	historyPos int      // -1 = editing a fresh query
	draft      string   // Query being typed before recall started
}

// NewSearchBar creates a focused search field holding query
func NewSearchBar(query string) SearchBar {
	ti := textinput.New()
	ti.Placeholder = SearchPlaceholder
	ti.CharLimit = 0 // No limit
	ti.Prompt = "🔍 "
	ti.PromptStyle = styles.SearchPromptStyle
	ti.TextStyle = styles.SearchTextStyle
	ti.PlaceholderStyle = styles.DimStyle
	ti.SetValue(query)
	ti.Focus()

	return SearchBar{
		input:      ti,
		historyPos: -1,
	}
}

// Query returns the current search text
func (s SearchBar) Query() string {
	return s.input.Value()
}

// SetQuery replaces the search text and leaves history recall
func (s *SearchBar) SetQuery(query string) {
	s.input.SetValue(query)
	s.input.CursorEnd()
	s.historyPos = -1
}

// Focus gives the field keyboard focus
func (s *SearchBar) Focus() tea.Cmd {
	return s.input.Focus()
}

// Blur removes keyboard focus
func (s *SearchBar) Blur() {
	s.input.Blur()
}

func (s SearchBar) Focused() bool {
	return s.input.Focused()
}

// SetHistory sets the recallable queries, newest first
func (s *SearchBar) SetHistory(history []string) {
	s.history = history
	s.historyPos = -1
}

// HistoryLen returns the number of recallable queries
func (s SearchBar) HistoryLen() int {
	return len(s.history)
}

// Older recalls the previous submitted query; false when there is none
func (s *SearchBar) Older() bool {
	if s.historyPos+1 >= len(s.history) {
		return false
	}
	if s.historyPos == -1 {
		s.draft = s.input.Value()
	}
	s.historyPos++
	s.input.SetValue(s.history[s.historyPos])
	s.input.CursorEnd()
	return true
}

// Newer moves forward through history, restoring the draft at the end
func (s *SearchBar) Newer() bool {
	if s.historyPos < 0 {
		return false
	}
	s.historyPos--
	if s.historyPos == -1 {
		s.input.SetValue(s.draft)
	} else {
		s.input.SetValue(s.history[s.historyPos])
	}
	s.input.CursorEnd()
	return true
}

func (s *SearchBar) SetWidth(width int) {
	s.width = width
	// Leave room for border, padding and prompt
	s.input.Width = width - 8
	if s.input.Width < 1 {
		s.input.Width = 1
	}
}

// Update routes a message to the text input.
// Any edit ends history recall.
func (s SearchBar) Update(msg tea.Msg) (SearchBar, tea.Cmd) {
	before := s.input.Value()

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if s.input.Value() != before {
		s.historyPos = -1
	}
	return s, cmd
}

// View renders the field inside a border that highlights focus
func (s SearchBar) View() string {
	style := styles.InactiveBorder
	if s.input.Focused() {
		style = styles.ActiveBorder
	}
	frameW, _ := style.GetFrameSize()
	w := s.width - frameW
	if w < 1 {
		w = 1
	}
	return style.Padding(0, 1).Width(w).Render(s.input.View())
}
