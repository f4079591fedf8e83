package tui

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/postbrowser/internal/domain"
)

// Command factories for async operations

// History is the query history the search field recalls from
type History interface {
	Add(query string) error
	Recent(n int) ([]string, error)
}

// initialLoadCmd asks the model to issue its first fetch
func initialLoadCmd() tea.Msg {
	return initialLoadMsg{}
}

// FetchPostsCmd fetches the collection under ctx.
// The caller owns ctx; cancelling it is the request's cancellation handle.
func FetchPostsCmd(ctx context.Context, repo domain.PostRepository, seq uint64) tea.Cmd {
	return func() tea.Msg {
		posts, err := repo.ListPosts(ctx)
		if err != nil {
			return FetchFailedMsg{Seq: seq, Err: err}
		}
		return PostsLoadedMsg{Seq: seq, Posts: posts}
	}
}

// LoadHistoryCmd reads the most recent queries
func LoadHistoryCmd(h History, n int, logger *slog.Logger) tea.Cmd {
	if h == nil {
		return nil
	}
	return func() tea.Msg {
		queries, err := h.Recent(n)
		if err != nil {
			logger.Warn("failed to load search history", "error", err)
			return nil
		}
		return HistoryLoadedMsg{Queries: queries}
	}
}

// SaveQueryCmd records a submitted query
func SaveQueryCmd(h History, query string, logger *slog.Logger) tea.Cmd {
	if h == nil || query == "" {
		return nil
	}
	return func() tea.Msg {
		if err := h.Add(query); err != nil {
			logger.Warn("failed to save search history", "query", query, "error", err)
			return nil
		}
		return HistorySavedMsg{Query: query}
	}
}
