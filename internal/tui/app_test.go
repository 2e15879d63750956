package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/sift/internal/config"
	"github.com/pders01/sift/internal/debounce"
	"github.com/pders01/sift/internal/post"
	"github.com/pders01/sift/internal/search"
	"github.com/pders01/sift/internal/source"
	"github.com/pders01/sift/internal/state"
)

type fakeSource struct {
	mu     sync.Mutex
	posts  []post.Post
	err    error
	starts []int
}

func (f *fakeSource) Fetch(_ context.Context, start, limit int) ([]post.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, start)
	if f.err != nil {
		return nil, f.err
	}
	if start >= len(f.posts) {
		return []post.Post{}, nil
	}
	end := start + limit
	if end > len(f.posts) {
		end = len(f.posts)
	}
	return append([]post.Post(nil), f.posts[start:end]...), nil
}

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func fixturePosts(n int) []post.Post {
	posts := make([]post.Post, n)
	for i := range posts {
		posts[i] = post.Post{
			ID:     strconv.Itoa(i + 1),
			UserID: 1 + i/10,
			Title:  fmt.Sprintf("title %d", i+1),
			Body:   fmt.Sprintf("body of post %d", i+1),
		}
	}
	return posts
}

func newTestApp(t *testing.T, src *fakeSource, opts ...Option) *App {
	t.Helper()
	app := NewApp(src, config.TestConfig(), opts...)
	t.Cleanup(app.Close)
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return app
}

// settle runs the load for the app's current request and feeds the result
// back through Update.
func settle(t *testing.T, app *App) {
	t.Helper()
	req := state.Request{Seq: app.state.Seq(), Page: app.state.Page()}
	msg := app.loadPage(req)()
	app.Update(msg)
}

func loadedApp(t *testing.T, src *fakeSource, opts ...Option) *App {
	t.Helper()
	app := newTestApp(t, src, opts...)
	app.state.Reload()
	settle(t, app)
	require.True(t, app.state.HasBatch())
	return app
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// deliverQuery simulates the debouncer settling on q after it was typed.
func deliverQuery(app *App, q string) {
	app.state.SetQuery(q)
	app.Update(queryCommittedMsg{query: q})
}

func visibleIDs(app *App) []string {
	var ids []string
	for _, it := range app.postList.Items() {
		ids = append(ids, it.(postItem).post.ID)
	}
	return ids
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t, &fakeSource{})

	assert.Equal(t, ViewPosts, app.view)
	assert.Equal(t, 0, app.state.Page())
	assert.Equal(t, search.ModeTitle, app.state.Mode())
	assert.Equal(t, 10, app.fetcher.PageSize())
	assert.NotNil(t, app.keyHandler)
	assert.False(t, app.state.HasBatch())
}

func TestInitStartsLoad(t *testing.T) {
	app := newTestApp(t, &fakeSource{}, WithStartPage(2))

	cmd := app.Init()
	assert.NotNil(t, cmd)
	assert.True(t, app.state.Loading())
	assert.Equal(t, 2, app.state.Page())
	assert.Contains(t, app.View(), MsgLoadingPosts)
}

func TestFirstPageLoad(t *testing.T) {
	src := &fakeSource{posts: fixturePosts(25)}
	app := loadedApp(t, src)

	assert.False(t, app.state.Loading())
	assert.Equal(t, []int{0}, src.starts)
	assert.Len(t, app.postList.Items(), 10)
	assert.Equal(t, "1", visibleIDs(app)[0])

	view := app.View()
	assert.Contains(t, view, "title 1")
	assert.Contains(t, view, "Page 1")
}

func TestPageNavigation(t *testing.T) {
	src := &fakeSource{posts: fixturePosts(25)}
	app := loadedApp(t, src)

	_, cmd := app.Update(runes("n"))
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, app.state.Page())
	assert.True(t, app.state.Loading())
	settle(t, app)
	assert.Equal(t, "11", visibleIDs(app)[0])

	_, cmd = app.Update(runes("n"))
	assert.NotNil(t, cmd)
	settle(t, app)
	assert.Equal(t, []string{"21", "22", "23", "24", "25"}, visibleIDs(app))

	_, cmd = app.Update(runes("p"))
	assert.NotNil(t, cmd)
	settle(t, app)
	assert.Equal(t, 1, app.state.Page())
	assert.Equal(t, []int{0, 10, 20, 10}, src.starts)
}

func TestPrevOnFirstPageIsNoop(t *testing.T) {
	src := &fakeSource{posts: fixturePosts(25)}
	app := loadedApp(t, src)
	seq := app.state.Seq()

	_, cmd := app.Update(runes("p"))
	assert.Nil(t, cmd)
	assert.Equal(t, 0, app.state.Page())
	assert.Equal(t, seq, app.state.Seq())
	assert.False(t, app.state.Loading())
}

func TestEmptyPageAfterEnd(t *testing.T) {
	src := &fakeSource{posts: fixturePosts(10)}
	app := loadedApp(t, src)

	app.Update(runes("n"))
	settle(t, app)

	assert.Empty(t, app.postList.Items())
	assert.Contains(t, app.View(), MsgNoPosts)
}

func TestStaleResponseIsDropped(t *testing.T) {
	src := &fakeSource{posts: fixturePosts(40)}
	app := loadedApp(t, src)

	app.Update(runes("n"))
	slow := state.Request{Seq: app.state.Seq(), Page: app.state.Page()}
	slowMsg := app.loadPage(slow)()

	app.Update(runes("n"))
	settle(t, app)
	require.Equal(t, 2, app.state.Page())
	require.Equal(t, "21", visibleIDs(app)[0])

	// The page 1 response lands after page 2 was shown.
	app.Update(slowMsg)
	assert.Equal(t, 2, app.state.Page())
	assert.Equal(t, "21", visibleIDs(app)[0])
	assert.Equal(t, 20, app.state.Batch().Offset)
}

func TestLoadErrorWithoutBatch(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}
	app := newTestApp(t, src)
	app.state.Reload()
	settle(t, app)

	assert.False(t, app.state.Loading())
	assert.False(t, app.state.HasBatch())
	require.Error(t, app.state.Err())
	assert.Contains(t, app.View(), "connection refused")
}

func TestLoadErrorKeepsBatch(t *testing.T) {
	src := &fakeSource{posts: fixturePosts(25)}
	app := loadedApp(t, src)

	src.setErr(errors.New("server exploded"))
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	settle(t, app)

	assert.Error(t, app.state.Err())
	assert.Len(t, app.postList.Items(), 10)
	assert.Contains(t, app.View(), "server exploded")
	assert.Equal(t, statusLine{kind: StatusWarn, text: MsgKeptBatch}, app.status)

	src.setErr(&source.FetchError{StatusCode: 503})
	app.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	settle(t, app)
	assert.Equal(t, statusLine{kind: StatusWarn, text: "HTTP 503, showing previous posts"}, app.status)

	src.setErr(nil)
	app.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	settle(t, app)
	assert.NoError(t, app.state.Err())
	assert.Equal(t, statusLine{kind: StatusSuccess, text: "Reloaded page 1"}, app.status)
}

func TestPageTurnClearsStatus(t *testing.T) {
	app := loadedApp(t, &fakeSource{posts: fixturePosts(25)})
	app.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	settle(t, app)
	require.Equal(t, StatusSuccess, app.status.kind)

	app.Update(runes("n"))
	settle(t, app)
	assert.True(t, app.status.empty())
}

func TestPrevBindingFollowsPage(t *testing.T) {
	app := loadedApp(t, &fakeSource{posts: fixturePosts(25)})
	assert.False(t, app.keys.PrevPage.Enabled())
	assert.NotContains(t, app.help.View(postsKeys{app.keys}), "prev page")

	app.Update(runes("n"))
	assert.True(t, app.keys.PrevPage.Enabled())
	assert.Contains(t, app.help.View(postsKeys{app.keys}), "prev page")

	app.Update(runes("p"))
	assert.False(t, app.keys.PrevPage.Enabled())

	started := newTestApp(t, &fakeSource{}, WithStartPage(3))
	assert.True(t, started.keys.PrevPage.Enabled())
}

func TestPendingQueryIndicator(t *testing.T) {
	app := loadedApp(t, &fakeSource{posts: fixturePosts(25)}, WithDebounceClock(&captureClock{}))
	app.Update(runes("/"))
	before := strings.Count(app.View(), "…")

	app.Update(runes("tit"))
	assert.Equal(t, before+1, strings.Count(app.View(), "…"))

	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, pending := app.debouncer.Pending()
	assert.False(t, pending)
}

func TestCommitAfterClearIsDropped(t *testing.T) {
	app := loadedApp(t, &fakeSource{posts: fixturePosts(25)})
	app.Update(runes("/"))
	app.Update(runes("title 4"))
	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, "", app.state.Query())

	// The timer had already fired before the clear.
	_, cmd := app.Update(queryCommittedMsg{query: "title 4"})
	assert.NotNil(t, cmd, "the query listener is re-armed")
	assert.Equal(t, "", app.state.CommittedQuery())
	assert.Len(t, app.postList.Items(), 10)
}

func TestTypingSchedulesDebouncedQuery(t *testing.T) {
	app := loadedApp(t, &fakeSource{posts: fixturePosts(25)})

	_, cmd := app.Update(runes("/"))
	assert.NotNil(t, cmd)
	require.True(t, app.searchInput.Focused())

	app.Update(runes("title 1"))
	assert.Equal(t, "title 1", app.state.Query())
	assert.Equal(t, "", app.state.CommittedQuery(), "nothing commits before the quiet period")
	assert.Len(t, app.postList.Items(), 10)

	pending, ok := app.debouncer.Pending()
	assert.True(t, ok)
	assert.Equal(t, "title 1", pending)
}

func TestTypedQuitKeyIsText(t *testing.T) {
	app := loadedApp(t, &fakeSource{posts: fixturePosts(25)})
	app.Update(runes("/"))

	app.Update(runes("q"))
	assert.Equal(t, "q", app.state.Query())
	select {
	case <-app.done:
		t.Fatal("typing q closed the app")
	default:
	}
}

func TestCommittedQueryFiltersList(t *testing.T) {
	app := loadedApp(t, &fakeSource{posts: fixturePosts(25)})

	app.state.SetQuery("title 1")
	_, cmd := app.Update(queryCommittedMsg{query: "title 1"})
	assert.NotNil(t, cmd, "the query listener is re-armed")
	assert.Equal(t, []string{"1", "10"}, visibleIDs(app))
	assert.Contains(t, app.View(), "2 of 10 posts")

	deliverQuery(app, "nothing like this")
	assert.Empty(t, app.postList.Items())
	assert.Contains(t, app.View(), MsgNoMatches)
}

func TestEnterCommitsPendingQuery(t *testing.T) {
	app := loadedApp(t, &fakeSource{posts: fixturePosts(25)})
	app.Update(runes("/"))
	app.Update(runes("title 3"))

	app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, app.searchInput.Focused())
	assert.Equal(t, "title 3", app.state.CommittedQuery())
	assert.Equal(t, []string{"3"}, visibleIDs(app))
	_, ok := app.debouncer.Pending()
	assert.False(t, ok)
}

func TestModeCycling(t *testing.T) {
	app := loadedApp(t, &fakeSource{posts: fixturePosts(25)})
	deliverQuery(app, "body of post 3")
	assert.Empty(t, app.postList.Items(), "title mode ignores the body")

	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, search.ModeFullText, app.state.Mode())
	assert.Equal(t, []string{"3"}, visibleIDs(app))
	assert.Equal(t, search.ModeFullText.Label(), app.status.text)

	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, search.ModeFuzzy, app.state.Mode())
	deliverQuery(app, "t3")
	assert.Equal(t, []string{"3"}, visibleIDs(app))

	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, search.ModeTitle, app.state.Mode())
}

func TestModeCyclingWhileTyping(t *testing.T) {
	app := loadedApp(t, &fakeSource{posts: fixturePosts(25)})
	app.Update(runes("/"))

	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, search.ModeFullText, app.state.Mode())
	assert.True(t, app.searchInput.Focused())
}

func TestEscClearsQuery(t *testing.T) {
	app := loadedApp(t, &fakeSource{posts: fixturePosts(25)})
	app.Update(runes("/"))
	app.Update(runes("title 2"))
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, app.postList.Items(), 1)

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, "", app.state.Query())
	assert.Equal(t, "", app.state.CommittedQuery())
	assert.Equal(t, "", app.searchInput.Value())
	assert.Len(t, app.postList.Items(), 10)
}

func TestQueryListener(t *testing.T) {
	app := newTestApp(t, &fakeSource{})

	go app.commitQuery("gopher")
	msg := app.waitForQuery()()
	assert.Equal(t, queryCommittedMsg{query: "gopher"}, msg)

	app.Close()
	assert.Nil(t, app.waitForQuery()())

	done := make(chan struct{})
	go func() {
		app.commitQuery("late")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("commit blocked after close")
	}
}

func TestReaderFlow(t *testing.T) {
	app := loadedApp(t, &fakeSource{posts: fixturePosts(25)})
	app.postList.Select(1)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.NotNil(t, cmd)
	assert.Equal(t, ViewReader, app.view)
	require.NotNil(t, app.currentPost)
	assert.Equal(t, "2", app.currentPost.ID)
	assert.True(t, app.rendering)

	// A render for a post that is no longer open is ignored.
	app.Update(postRenderedMsg{id: "1", content: "wrong post"})
	assert.True(t, app.rendering)

	app.Update(postRenderedMsg{id: "2", content: "rendered body"})
	assert.False(t, app.rendering)
	assert.Contains(t, app.View(), "rendered body")

	app.Update(runes("n"))
	assert.Equal(t, 0, app.state.Page(), "paging is disabled in the reader")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewPosts, app.view)
	assert.Nil(t, app.currentPost)
}

func TestRenderErrorShownInReader(t *testing.T) {
	app := loadedApp(t, &fakeSource{posts: fixturePosts(25)})
	app.Update(tea.KeyMsg{Type: tea.KeyEnter})

	app.Update(errorMsg{err: errors.New("bad markdown")})
	assert.False(t, app.rendering)
	assert.Contains(t, app.viewport.View(), "bad markdown")
}

func TestQuit(t *testing.T) {
	app := loadedApp(t, &fakeSource{posts: fixturePosts(25)})

	_, cmd := app.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())

	select {
	case <-app.done:
	default:
		t.Fatal("quit did not close the app")
	}
}

func TestPostMarkdown(t *testing.T) {
	md := postMarkdown(post.Post{ID: "7", UserID: 2, Title: "  Hello  ", Body: "line one\nline two"})

	assert.Contains(t, md, "# Hello\n")
	assert.Contains(t, md, "Post #7")
	assert.Contains(t, md, "User 2")
	assert.Contains(t, md, "line one\nline two")

	md = postMarkdown(post.Post{Title: "Bare"})
	assert.NotContains(t, md, "Post #")
}

func TestPostItem(t *testing.T) {
	item := postItem{
		post:       post.Post{ID: "4", Title: "eum et est", Body: "a\nmultiline   body"},
		descLength: 80,
	}
	assert.Contains(t, item.Title(), "4. eum et est")
	assert.Contains(t, item.Description(), "a multiline body")
	assert.Equal(t, "eum et est", item.FilterValue())
}

type captureClock struct {
	mu    sync.Mutex
	fired []func()
}

func (c *captureClock) AfterFunc(_ time.Duration, f func()) debounce.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fired = append(c.fired, f)
	return noopTimer{}
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return false }

func TestDebouncedCommitReachesEventLoop(t *testing.T) {
	clock := &captureClock{}
	app := loadedApp(t, &fakeSource{posts: fixturePosts(25)}, WithDebounceClock(clock))
	app.Update(runes("/"))
	app.Update(runes("title 7"))
	require.Len(t, clock.fired, 1)

	go clock.fired[0]()
	msg := app.waitForQuery()()
	require.Equal(t, queryCommittedMsg{query: "title 7"}, msg)

	app.Update(msg)
	assert.Equal(t, []string{"7"}, visibleIDs(app))
}
