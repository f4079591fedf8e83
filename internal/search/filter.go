package search

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/postbrowser/internal/domain"
	sfuzzy "github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"
)

// Mode selects how a query is matched against post titles
type Mode string

const (
	// ModeSubstring keeps posts whose folded title contains the folded query
	ModeSubstring Mode = "substring"
	// ModeFuzzy ranks posts by fuzzy match score, best first
	ModeFuzzy Mode = "fuzzy"
	// ModeSubsequence keeps posts whose title contains the query characters in order
	ModeSubsequence Mode = "subsequence"
)

// Modes lists the known modes in display order
var Modes = []Mode{ModeSubstring, ModeFuzzy, ModeSubsequence}

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}

// Next returns the mode after m, wrapping around
func (m Mode) Next() Mode {
	for i, known := range Modes {
		if m == known {
			return Modes[(i+1)%len(Modes)]
		}
	}
	return ModeSubstring
}

// Filter returns the posts matching query under mode.
// The input slice is never modified; an empty query returns every post.
func Filter(posts []domain.Post, query string, mode Mode) []domain.Post {
	if query == "" {
		return append([]domain.Post(nil), posts...)
	}

	switch mode {
	case ModeFuzzy:
		return filterFuzzy(posts, query)
	case ModeSubsequence:
		return filterSubsequence(posts, query)
	default:
		return filterSubstring(posts, query)
	}
}

// Matches reports whether a single title matches query as a folded substring
func Matches(title, query string) bool {
	fold := cases.Fold()
	return strings.Contains(fold.String(title), fold.String(query))
}

func filterSubstring(posts []domain.Post, query string) []domain.Post {
	// A Caser is stateful, so one per call
	fold := cases.Fold()
	needle := fold.String(query)

	result := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		if strings.Contains(fold.String(p.Title), needle) {
			result = append(result, p)
		}
	}
	return result
}

// titleIndex implements sahilm/fuzzy.Source over folded titles
type titleIndex struct {
	folded []string
}

func (idx titleIndex) String(i int) string { return idx.folded[i] }

func (idx titleIndex) Len() int { return len(idx.folded) }

func filterFuzzy(posts []domain.Post, query string) []domain.Post {
	fold := cases.Fold()
	idx := titleIndex{folded: make([]string, len(posts))}
	for i, p := range posts {
		idx.folded[i] = fold.String(p.Title)
	}

	matches := sfuzzy.FindFrom(fold.String(query), idx)

	// Equal scores keep source order
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Index < matches[j].Index
	})

	result := make([]domain.Post, len(matches))
	for i, m := range matches {
		result[i] = posts[m.Index]
	}
	return result
}

func filterSubsequence(posts []domain.Post, query string) []domain.Post {
	result := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		if fuzzy.MatchFold(query, p.Title) {
			result = append(result, p)
		}
	}
	return result
}
