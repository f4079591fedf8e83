package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/postbrowser/internal/domain"
	"github.com/mmcdole/postbrowser/internal/tui/styles"
)

// EmptyCaption is shown in place of the list when no post matches
const EmptyCaption = "No posts found."

// PostList is a scrollable list of post cards.
// It renders whatever slice it was last given; filtering happens upstream.
type PostList struct {
	posts []domain.Post

	// Selection
	cursor int
	offset int

	// Dimensions
	width     int
	height    int
	bodyLines int // 0 = unlimited

	focused bool
}

// NewPostList creates an empty list showing at most bodyLines of each body
func NewPostList(bodyLines int) *PostList {
	return &PostList{bodyLines: bodyLines}
}

// SetPosts replaces the rendered posts, keeping the cursor on the same post when it survives
func (l *PostList) SetPosts(posts []domain.Post) {
	var selectedID int
	hadSelection := false
	if sel := l.SelectedPost(); sel != nil {
		selectedID = sel.ID
		hadSelection = true
	}

	l.posts = posts
	l.cursor = 0

	if hadSelection {
		for i, p := range posts {
			if p.ID == selectedID {
				l.cursor = i
				break
			}
		}
	}
	if l.cursor == 0 {
		l.offset = 0
	}
	l.ensureVisible()
}

// Posts returns the posts currently rendered
func (l *PostList) Posts() []domain.Post {
	return l.posts
}

// Len returns the number of posts
func (l *PostList) Len() int {
	return len(l.posts)
}

// IsEmpty reports whether the empty caption is shown
func (l *PostList) IsEmpty() bool {
	return len(l.posts) == 0
}

// SelectedPost returns the post under the cursor
func (l *PostList) SelectedPost() *domain.Post {
	if l.cursor < 0 || l.cursor >= len(l.posts) {
		return nil
	}
	return &l.posts[l.cursor]
}

func (l *PostList) SelectedIndex() int {
	return l.cursor
}

// AtTop reports whether the list is scrolled to its first card
func (l *PostList) AtTop() bool {
	return l.offset == 0 && l.cursor == 0
}

func (l *PostList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.ensureVisible()
}

func (l *PostList) SetFocused(focused bool) {
	l.focused = focused
}

func (l *PostList) IsFocused() bool {
	return l.focused
}

// MoveBy moves the cursor by delta cards, clamped to the list
func (l *PostList) MoveBy(delta int) {
	if len(l.posts) == 0 {
		return
	}
	l.cursor += delta
	if l.cursor < 0 {
		l.cursor = 0
	}
	if l.cursor >= len(l.posts) {
		l.cursor = len(l.posts) - 1
	}
	l.ensureVisible()
}

// Home jumps to the first card
func (l *PostList) Home() {
	l.cursor = 0
	l.offset = 0
}

// End jumps to the last card
func (l *PostList) End() {
	if len(l.posts) == 0 {
		return
	}
	l.cursor = len(l.posts) - 1
	l.ensureVisible()
}

// PageSize returns how many cards fit from the current offset (at least 1)
func (l *PostList) PageSize() int {
	n := 0
	used := 0
	for i := l.offset; i < len(l.posts); i++ {
		h := lipgloss.Height(l.renderCard(i))
		if n > 0 && used+h > l.height {
			break
		}
		used += h
		n++
	}
	if n == 0 {
		return 1
	}
	return n
}

// ensureVisible scrolls so the cursor card is fully on screen
func (l *PostList) ensureVisible() {
	// Don't adjust offset if size hasn't been set yet
	if l.height <= 0 || l.width <= 0 {
		return
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
		return
	}
	for l.offset < l.cursor && l.heightBetween(l.offset, l.cursor) > l.height {
		l.offset++
	}
}

// heightBetween returns the rendered height of cards from..to inclusive
func (l *PostList) heightBetween(from, to int) int {
	total := 0
	for i := from; i <= to && i < len(l.posts); i++ {
		total += lipgloss.Height(l.renderCard(i))
	}
	return total
}

// View renders the visible cards, or the empty caption
func (l *PostList) View() string {
	if len(l.posts) == 0 {
		return lipgloss.Place(l.width, l.height, lipgloss.Center, lipgloss.Center,
			styles.DimStyle.Render(EmptyCaption))
	}

	var cards []string
	used := 0
	for i := l.offset; i < len(l.posts); i++ {
		card := l.renderCard(i)
		h := lipgloss.Height(card)
		if len(cards) > 0 && l.height > 0 && used+h > l.height {
			break
		}
		cards = append(cards, card)
		used += h
	}

	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func (l *PostList) renderCard(i int) string {
	style := styles.CardStyle
	if i == l.cursor && l.focused {
		style = styles.CardSelectedStyle
	}

	// Content width inside border and padding
	frameW, _ := style.GetFrameSize()
	inner := l.width - frameW
	if inner < 10 {
		inner = 10
	}

	post := l.posts[i]
	title := styles.TitleStyle.Width(inner).Render(post.Title)
	body := styles.BodyStyle.Render(clampLines(wrap(post.Body, inner), l.bodyLines))

	return style.Width(inner + style.GetHorizontalPadding()).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, body),
	)
}

// wrap word-wraps s to width, keeping explicit newlines
func wrap(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

// clampLines keeps at most max lines, marking the cut with an ellipsis
func clampLines(s string, max int) string {
	if max <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= max {
		return s
	}
	lines = lines[:max]
	lines[max-1] = strings.TrimRight(lines[max-1], " ") + "…"
	return strings.Join(lines, "\n")
}
