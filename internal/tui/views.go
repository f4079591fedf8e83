package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/postbrowser/internal/search"
	"github.com/mmcdole/postbrowser/internal/tui/styles"
)

// LoadingCaption is shown under the spinner until the first fetch completes
const LoadingCaption = "Loading posts..."

// RefreshingCaption is shown in the status line while a refresh is in flight
const RefreshingCaption = "Refreshing..."

// View renders the whole screen: the loader, or search field + list
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.Phase.Blocking() {
		return m.renderLoading()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.SearchBar.View(),
		m.renderStatus(),
		m.List.View(),
		m.renderFooter(),
	)
}

// renderLoading renders the full-screen loader; nothing else is visible
func (m Model) renderLoading() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		m.Spinner.View(),
		styles.DimStyle.Render(LoadingCaption),
	)
	if m.Width <= 0 || m.Height <= 0 {
		return content
	}
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, content)
}

// renderStatus renders the match count, mode and refresh indicator
func (m Model) renderStatus() string {
	left := styles.StatusStyle.Render(fmt.Sprintf(" %d of %d posts", m.List.Len(), len(m.Posts)))
	if m.mode != search.ModeSubstring {
		left += " " + styles.BadgeStyle.Render(string(m.mode))
	}

	right := ""
	if m.Phase == PhaseRefreshing {
		right = m.Spinner.View() + " " + styles.AccentStyle.Render(RefreshingCaption) + " "
	}

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + lipgloss.NewStyle().Width(gap).Render("") + right
}

// renderFooter renders the key help
func (m Model) renderFooter() string {
	return m.Help.View(m.Keys)
}
