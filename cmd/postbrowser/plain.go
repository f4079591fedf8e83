package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/mmcdole/postbrowser/internal/adapter"
	"github.com/mmcdole/postbrowser/internal/domain"
	"github.com/mmcdole/postbrowser/internal/search"
	"github.com/mmcdole/postbrowser/internal/tui/styles"
)

// runPlain fetches once and prints the posts matching the configured query,
// one "id<TAB>title" line each. A failed fetch prints nothing, the same as
// an empty collection.
func runPlain(w io.Writer, repo domain.PostRepository, cfg *adapter.Config, width int, logger *slog.Logger) error {
	ctx := context.Background()
	if cfg.Source.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Source.Timeout)
		defer cancel()
	}

	posts, err := repo.ListPosts(ctx)
	if err != nil {
		logger.Error("fetch failed", "error", err)
		posts = nil
	}

	matches := search.Filter(posts, cfg.Search.Query, cfg.Search.Mode)
	logger.Info("plain output", "posts", len(posts), "matches", len(matches), "query", cfg.Search.Query)
	return writePlain(w, matches, width)
}

// minTitleWidth keeps titles readable on very narrow terminals
const minTitleWidth = 10

// writePlain prints one line per post, cutting titles to width when set
func writePlain(w io.Writer, posts []domain.Post, width int) error {
	for _, p := range posts {
		id := strconv.Itoa(p.ID)
		title := p.Title
		if width > 0 {
			title = styles.Truncate(title, max(width-len(id)-8, minTitleWidth))
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", id, title); err != nil {
			return err
		}
	}
	return nil
}
