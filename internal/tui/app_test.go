package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/postbrowser/internal/domain"
	"github.com/mmcdole/postbrowser/internal/search"
	"github.com/mmcdole/postbrowser/internal/store"
	"github.com/mmcdole/postbrowser/internal/tui/components"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenarioPosts = []domain.Post{
	{ID: 1, Title: "Hello World", Body: "x"},
	{ID: 2, Title: "Goodbye", Body: "y"},
}

type fetchResult struct {
	posts []domain.Post
	err   error
}

// fakeRepo hands out results in order, repeating the last one
type fakeRepo struct {
	mu      sync.Mutex
	results []fetchResult
	ctxs    []context.Context
}

func newFakeRepo(results ...fetchResult) *fakeRepo {
	return &fakeRepo{results: results}
}

func (f *fakeRepo) ListPosts(ctx context.Context) ([]domain.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ctxs = append(f.ctxs, ctx)
	r := f.results[len(f.results)-1]
	if len(f.ctxs) <= len(f.results) {
		r = f.results[len(f.ctxs)-1]
	}
	return r.posts, r.err
}

func (f *fakeRepo) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ctxs)
}

func (f *fakeRepo) ctx(i int) context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ctxs[i]
}

func ok(posts ...domain.Post) fetchResult { return fetchResult{posts: posts} }

func failed(msg string) fetchResult {
	return fetchResult{err: fmt.Errorf("%w: %s", domain.ErrFetchFailed, msg)}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestModel(t *testing.T, repo domain.PostRepository, opts ...func(*Options)) Model {
	t.Helper()
	o := Options{Repo: repo, Logger: quietLogger(), BodyLines: 2}
	for _, fn := range opts {
		fn(&o)
	}
	m := NewModel(o)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 40})
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, isModel := next.(Model)
	require.True(t, isModel, "Update returned %T", next)
	return model, cmd
}

// run executes cmd and any batched commands, returning the messages produced
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, isBatch := msg.(tea.BatchMsg); isBatch {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// deliver runs cmd and feeds every resulting message back into the model
func deliver(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for _, msg := range run(cmd) {
		var next tea.Cmd
		m, next = update(t, m, msg)
		if _, saved := msg.(HistorySavedMsg); saved {
			m = deliver(t, m, next)
		}
	}
	return m
}

// fetchResults keeps only the fetch outcome messages
func fetchResults(msgs []tea.Msg) []tea.Msg {
	var out []tea.Msg
	for _, msg := range msgs {
		switch msg.(type) {
		case PostsLoadedMsg, FetchFailedMsg:
			out = append(out, msg)
		}
	}
	return out
}

// load performs the initial load to completion
func load(t *testing.T, m Model) Model {
	t.Helper()
	m, cmd := update(t, m, initialLoadMsg{})
	require.NotNil(t, cmd)
	return deliver(t, m, cmd)
}

func keyPress(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func clearQuery(t *testing.T, m Model) Model {
	t.Helper()
	if m.Query() == "" {
		return m
	}
	m, _ = update(t, m, keyPress(tea.KeyEsc))
	require.Empty(t, m.Query())
	return m
}

func wheelUp() tea.MouseMsg {
	return tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp}
}

func TestInitialLoad_IssuesExactlyOneFetch(t *testing.T) {
	repo := newFakeRepo(ok(scenarioPosts...))
	m := newTestModel(t, repo)

	assert.True(t, m.IsLoading())

	triggers := 0
	for _, msg := range run(m.Init()) {
		if _, isLoad := msg.(initialLoadMsg); isLoad {
			triggers++
		}
	}
	assert.Equal(t, 1, triggers)
	assert.Zero(t, repo.calls(), "Init itself never fetches")

	m, cmd := update(t, m, initialLoadMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, PhaseLoading, m.Phase)
	assert.True(t, m.IsLoading())

	// A second trigger never issues another fetch
	_, again := update(t, m, initialLoadMsg{})
	assert.Nil(t, again)

	m = deliver(t, m, cmd)
	assert.Equal(t, 1, repo.calls())
	assert.Equal(t, PhaseReady, m.Phase)
}

func TestLoadingView_ShowsOnlyLoader(t *testing.T) {
	m := newTestModel(t, newFakeRepo(ok(scenarioPosts...)))
	m, _ = update(t, m, initialLoadMsg{})

	view := m.View()
	assert.Contains(t, view, LoadingCaption)
	assert.NotContains(t, view, components.SearchPlaceholder)
	assert.NotContains(t, view, components.EmptyCaption)

	// Keys other than quit are ignored while loading
	m = typeText(t, m, "abc")
	assert.Empty(t, m.Query())
}

func TestSuccessfulLoad_ShowsReadyList(t *testing.T) {
	posts := make([]domain.Post, 25)
	for i := range posts {
		posts[i] = domain.Post{ID: i + 1, Title: fmt.Sprintf("post %d", i+1), Body: "body"}
	}
	m := load(t, newTestModel(t, newFakeRepo(ok(posts...))))

	assert.False(t, m.IsLoading())
	assert.False(t, m.IsRefreshing())
	assert.Len(t, m.Posts, 25)
	assert.Len(t, m.Visible(), 25)

	view := m.View()
	assert.NotContains(t, view, LoadingCaption)
	assert.Contains(t, view, "post 1")
	assert.Contains(t, view, "25 of 25 posts")
}

func TestScenario_HelloAndNoMatch(t *testing.T) {
	m := load(t, newTestModel(t, newFakeRepo(ok(scenarioPosts...))))

	m = typeText(t, m, "hello")
	assert.Equal(t, "hello", m.Query())
	assert.Equal(t, scenarioPosts[:1], m.Visible())
	view := m.View()
	assert.Contains(t, view, "Hello World")
	assert.NotContains(t, view, "Goodbye")

	m = clearQuery(t, m)
	m = typeText(t, m, "zzz")
	assert.Empty(t, m.Visible())
	view = m.View()
	assert.Contains(t, view, components.EmptyCaption)
	assert.NotContains(t, view, LoadingCaption)
}

func TestQuery_MixedCase(t *testing.T) {
	m := load(t, newTestModel(t, newFakeRepo(ok(scenarioPosts...))))

	m = typeText(t, m, "WORLD")
	assert.Equal(t, scenarioPosts[:1], m.Visible())
}

func TestQuery_VisibleIsFoldedSubsequence(t *testing.T) {
	posts := []domain.Post{
		{ID: 1, Title: "sunt aut facere"},
		{ID: 2, Title: "qui est esse"},
		{ID: 3, Title: "ea molestias quasi"},
		{ID: 4, Title: "eum et est occaecati"},
		{ID: 5, Title: "nesciunt quas odio"},
	}
	m := load(t, newTestModel(t, newFakeRepo(ok(posts...))))

	for _, q := range []string{"", "e", "EST", "qu", "Quas", "ea m", "nothing"} {
		m = clearQuery(t, m)
		m = typeText(t, m, q)

		var want []domain.Post
		for _, p := range posts {
			if strings.Contains(strings.ToLower(p.Title), strings.ToLower(q)) {
				want = append(want, p)
			}
		}
		assert.ElementsMatch(t, want, m.Visible(), "query %q", q)
		assert.Equal(t, len(want), len(m.Visible()), "query %q", q)
		for i := range want {
			assert.Equal(t, want[i].ID, m.Visible()[i].ID, "order for query %q", q)
		}
	}
}

func TestFailedInitialLoad_FallsBackToEmpty(t *testing.T) {
	m := load(t, newTestModel(t, newFakeRepo(failed("offline"))))

	assert.Equal(t, PhaseFailed, m.Phase)
	assert.False(t, m.IsLoading())
	assert.Empty(t, m.Posts)

	view := m.View()
	assert.Contains(t, view, components.EmptyCaption)
	assert.Contains(t, view, components.SearchPlaceholder)
	assert.NotContains(t, view, LoadingCaption)
}

func TestRefresh_TogglesRefreshing(t *testing.T) {
	for name, second := range map[string]fetchResult{
		"success": ok(domain.Post{ID: 9, Title: "Fresh"}),
		"failure": failed("offline"),
	} {
		t.Run(name, func(t *testing.T) {
			repo := newFakeRepo(ok(scenarioPosts...), second)
			m := load(t, newTestModel(t, repo))

			m, cmd := update(t, m, keyPress(tea.KeyCtrlR))
			require.NotNil(t, cmd)
			assert.True(t, m.IsRefreshing())
			assert.False(t, m.IsLoading())
			// Prior posts stay visible during the refresh
			assert.Contains(t, m.View(), "Hello World")
			assert.Contains(t, m.View(), RefreshingCaption)

			m = deliver(t, m, cmd)
			assert.False(t, m.IsRefreshing())
			assert.Equal(t, 2, repo.calls())

			if second.err != nil {
				assert.Equal(t, PhaseFailed, m.Phase)
				assert.Equal(t, scenarioPosts, m.Posts, "stale posts kept on failure")
			} else {
				assert.Equal(t, PhaseReady, m.Phase)
				assert.Equal(t, second.posts, m.Posts)
			}
		})
	}
}

func TestRefresh_IdenticalPayloadKeepsView(t *testing.T) {
	repo := newFakeRepo(ok(scenarioPosts...))
	m := load(t, newTestModel(t, repo))
	m = typeText(t, m, "o")
	before := m.Visible()
	require.Len(t, before, 2)

	m, cmd := update(t, m, keyPress(tea.KeyCtrlR))
	m = deliver(t, m, cmd)

	assert.Equal(t, before, m.Visible())
	assert.Equal(t, "o", m.Query())
}

func TestRefresh_CancelsPreviousRequest(t *testing.T) {
	repo := newFakeRepo(
		ok(scenarioPosts...),
		ok(domain.Post{ID: 10, Title: "from first refresh"}),
		ok(domain.Post{ID: 20, Title: "from second refresh"}),
	)
	m := load(t, newTestModel(t, repo))

	m, first := update(t, m, keyPress(tea.KeyCtrlR))
	firstMsgs := fetchResults(run(first))
	require.Len(t, firstMsgs, 1)
	require.NoError(t, repo.ctx(1).Err())

	m, second := update(t, m, keyPress(tea.KeyCtrlR))
	assert.ErrorIs(t, repo.ctx(1).Err(), context.Canceled)
	assert.True(t, m.IsRefreshing())

	// The superseded result is dropped
	m, _ = update(t, m, firstMsgs[0])
	assert.True(t, m.IsRefreshing())
	assert.Equal(t, scenarioPosts, m.Posts)

	m = deliver(t, m, second)
	assert.Equal(t, PhaseReady, m.Phase)
	require.Len(t, m.Posts, 1)
	assert.Equal(t, 20, m.Posts[0].ID)
}

func TestQuit_CancelsInFlightRequest(t *testing.T) {
	repo := newFakeRepo(ok(scenarioPosts...))
	m := newTestModel(t, repo)

	m, cmd := update(t, m, initialLoadMsg{})
	msgs := run(cmd)
	require.Len(t, msgs, 1)

	m, quit := update(t, m, keyPress(tea.KeyCtrlC))
	require.NotNil(t, quit)
	assert.IsType(t, tea.QuitMsg{}, quit())
	assert.ErrorIs(t, repo.ctx(0).Err(), context.Canceled)

	// A result landing after teardown changes nothing
	m, _ = update(t, m, msgs[0])
	assert.Empty(t, m.Posts)
	assert.Empty(t, m.View())
}

func TestMouse_PullPastTopRefreshes(t *testing.T) {
	repo := newFakeRepo(ok(scenarioPosts...))
	m := load(t, newTestModel(t, repo))

	m, cmd := update(t, m, wheelUp())
	assert.Nil(t, cmd)
	assert.False(t, m.IsRefreshing())

	m, cmd = update(t, m, wheelUp())
	require.NotNil(t, cmd)
	assert.True(t, m.IsRefreshing())

	m = deliver(t, m, cmd)
	assert.False(t, m.IsRefreshing())
	assert.Equal(t, 2, repo.calls())
}

func TestListFocus_KeysNavigateAndRefresh(t *testing.T) {
	posts := []domain.Post{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}, {ID: 3, Title: "c"}}
	repo := newFakeRepo(ok(posts...))
	m := load(t, newTestModel(t, repo))

	m, _ = update(t, m, keyPress(tea.KeyTab))
	assert.False(t, m.SearchBar.Focused())
	assert.True(t, m.List.IsFocused())

	m = typeText(t, m, "jj")
	assert.Equal(t, 2, m.List.SelectedIndex())
	m = typeText(t, m, "k")
	assert.Equal(t, 1, m.List.SelectedIndex())
	m = typeText(t, m, "G")
	assert.Equal(t, 2, m.List.SelectedIndex())
	m = typeText(t, m, "g")
	assert.Equal(t, 0, m.List.SelectedIndex())

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	assert.True(t, m.IsRefreshing())
	m = deliver(t, m, cmd)

	// Any other typing returns to the search field
	m = typeText(t, m, "b")
	assert.True(t, m.SearchBar.Focused())
	assert.Equal(t, "b", m.Query())
	assert.Equal(t, posts[1:2], m.Visible())
}

func TestCycleMode(t *testing.T) {
	m := load(t, newTestModel(t, newFakeRepo(ok(scenarioPosts...))))
	assert.Equal(t, search.ModeSubstring, m.Mode())

	m = typeText(t, m, "hwd")
	assert.Empty(t, m.Visible())

	m, _ = update(t, m, keyPress(tea.KeyCtrlT))
	assert.Equal(t, search.ModeFuzzy, m.Mode())
	assert.Equal(t, scenarioPosts[:1], m.Visible())
	assert.Contains(t, m.View(), "fuzzy")
}

func TestInitialQueryOption(t *testing.T) {
	m := load(t, newTestModel(t, newFakeRepo(ok(scenarioPosts...)), func(o *Options) {
		o.Query = "bye"
	}))
	assert.Equal(t, scenarioPosts[1:], m.Visible())
}

func TestHistory_SubmitAndRecall(t *testing.T) {
	h, err := store.NewHistoryStore("", 10)
	require.NoError(t, err)

	m := load(t, newTestModel(t, newFakeRepo(ok(scenarioPosts...)), func(o *Options) {
		o.History = h
	}))

	m = typeText(t, m, "hello")
	m, cmd := update(t, m, keyPress(tea.KeyEnter))
	m = deliver(t, m, cmd)
	assert.True(t, m.List.IsFocused())

	recent, err := h.Recent(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, recent)
	assert.Equal(t, 1, m.SearchBar.HistoryLen())

	// Back in the field, clear and recall
	m, _ = update(t, m, keyPress(tea.KeyTab))
	m = clearQuery(t, m)
	assert.Len(t, m.Visible(), 2)

	m, _ = update(t, m, keyPress(tea.KeyCtrlP))
	assert.Equal(t, "hello", m.Query())
	assert.Equal(t, scenarioPosts[:1], m.Visible())

	m, _ = update(t, m, keyPress(tea.KeyCtrlN))
	assert.Empty(t, m.Query())
	assert.Len(t, m.Visible(), 2)
}

func TestStaleResultWithoutRequestIsIgnored(t *testing.T) {
	m := load(t, newTestModel(t, newFakeRepo(ok(scenarioPosts...))))

	m, _ = update(t, m, PostsLoadedMsg{Seq: 99, Posts: nil})
	assert.Equal(t, scenarioPosts, m.Posts)

	m, _ = update(t, m, FetchFailedMsg{Seq: 99, Err: errors.New("late")})
	assert.Equal(t, PhaseReady, m.Phase)
}

func TestQuery_LongQueryIsNotCut(t *testing.T) {
	title := strings.Repeat("a", 199) + "Z"
	query := strings.Repeat("a", 199) + "ZZZ"
	posts := []domain.Post{{ID: 1, Title: title}}

	m := load(t, newTestModel(t, newFakeRepo(ok(posts...)), func(o *Options) {
		o.Query = query
	}))
	assert.Equal(t, query, m.Query())
	assert.Empty(t, m.Visible())

	// Typing past 200 runes keeps every keystroke
	m = clearQuery(t, m)
	m = typeText(t, m, strings.Repeat("a", 199)+"Z")
	assert.Equal(t, posts, m.Visible())
	m = typeText(t, m, "Z")
	assert.Len(t, []rune(m.Query()), 201)
	assert.Empty(t, m.Visible())
}

func TestListFocus_SpaceTypesIntoSearch(t *testing.T) {
	posts := []domain.Post{{ID: 1, Title: "hello world"}, {ID: 2, Title: "helloworld"}}
	m := load(t, newTestModel(t, newFakeRepo(ok(posts...))))
	m = typeText(t, m, "hello")

	m, _ = update(t, m, keyPress(tea.KeyTab))
	require.True(t, m.List.IsFocused())

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.True(t, m.SearchBar.Focused())
	assert.Equal(t, "hello ", m.Query())
	assert.Equal(t, posts[:1], m.Visible())
}

func TestSpinner_TicksOnlyWhileFetching(t *testing.T) {
	repo := newFakeRepo(ok(scenarioPosts...))
	m := newTestModel(t, repo)

	// The loader animates before and during the initial fetch
	_, cmd := update(t, m, m.Spinner.Tick())
	assert.NotNil(t, cmd)

	m = load(t, m)
	_, cmd = update(t, m, m.Spinner.Tick())
	assert.Nil(t, cmd, "no ticking once ready")

	// A refresh starts it again
	m, cmd = update(t, m, keyPress(tea.KeyCtrlR))
	var ticks int
	for _, msg := range run(cmd) {
		if tick, isTick := msg.(spinner.TickMsg); isTick {
			ticks++
			_, next := update(t, m, tick)
			assert.NotNil(t, next)
		}
	}
	assert.Equal(t, 1, ticks)
}
