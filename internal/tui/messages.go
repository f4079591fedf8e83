package tui

import "github.com/mmcdole/postbrowser/internal/domain"

// Message types for the TUI

// initialLoadMsg triggers the one fetch issued on startup
type initialLoadMsg struct{}

// PostsLoadedMsg carries a successful fetch result.
// Seq identifies the request; results for anything but the latest are dropped.
type PostsLoadedMsg struct {
	Seq   uint64
	Posts []domain.Post
}

// FetchFailedMsg signals that a fetch failed
type FetchFailedMsg struct {
	Seq uint64
	Err error
}

// HistoryLoadedMsg carries recallable queries, newest first
type HistoryLoadedMsg struct {
	Queries []string
}

// HistorySavedMsg signals a query was recorded
type HistorySavedMsg struct {
	Query string
}
