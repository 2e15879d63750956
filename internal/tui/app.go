package tui

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/sift/internal/config"
	"github.com/pders01/sift/internal/debounce"
	"github.com/pders01/sift/internal/debuglog"
	"github.com/pders01/sift/internal/pager"
	"github.com/pders01/sift/internal/post"
	"github.com/pders01/sift/internal/search"
	"github.com/pders01/sift/internal/source"
	"github.com/pders01/sift/internal/state"
)

// chrome is the number of rows used by everything except the post list:
// header (2), search box (3), separator and status bar (2).
const chrome = 7

type App struct {
	config     *config.Config
	endpoint   string
	fetcher    *pager.Fetcher
	state      *state.Model
	debouncer  *debounce.Debouncer
	keyHandler *KeyHandler
	keys       keyMap

	postList    list.Model
	searchInput textinput.Model
	viewport    viewport.Model
	spinner     spinner.Model
	help        help.Model

	view        View
	currentPost *post.Post
	rendering   bool
	status      statusLine
	reloadSeq   uint64
	err         error
	width       int
	height      int

	ctx        context.Context
	cancel     context.CancelFunc
	cancelLoad context.CancelFunc
	queries    chan string
	done       chan struct{}
	closeOnce  sync.Once

	rendererMu      sync.Mutex
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

// Option customizes an App.
type Option func(*App)

// WithStartPage opens the browser on the given page instead of the first.
func WithStartPage(page int) Option {
	return func(a *App) {
		a.state.SetPage(page)
	}
}

// WithDebounceClock replaces the clock driving the search debouncer.
func WithDebounceClock(c debounce.Clock) Option {
	return func(a *App) {
		a.debouncer.Close()
		a.debouncer = debounce.New(a.config.Search.Debounce, a.commitQuery, debounce.WithClock(c))
	}
}

// NewApp builds the browser over src. Init issues the first page load.
func NewApp(src source.Source, cfg *config.Config, opts ...Option) *App {
	delegate := list.NewDefaultDelegate()
	postList := list.New([]list.Item{}, delegate, 0, 0)
	postList.Title = "› posts"
	postList.SetShowStatusBar(false)
	postList.SetFilteringEnabled(false)
	postList.SetShowHelp(false)
	postList.SetShowTitle(false)
	postList.Styles.NoItems = StatusInfoStyle

	si := textinput.New()
	si.Placeholder = MsgSearchHint
	si.Prompt = "⌕ "
	si.CharLimit = cfg.Search.MaxQueryLength

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(AccentColor)

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		config:      cfg,
		endpoint:    cfg.API.Endpoint,
		fetcher:     pager.NewFetcher(src, cfg.API.PageSize),
		state:       state.New(search.ParseMode(cfg.Search.DefaultMode)),
		keys:        newKeyMap(cfg.Keys),
		postList:    postList,
		searchInput: si,
		viewport:    viewport.New(0, 0),
		spinner:     sp,
		help:        help.New(),
		view:        ViewPosts,
		ctx:         ctx,
		cancel:      cancel,
		queries:     make(chan string),
		done:        make(chan struct{}),
	}
	app.debouncer = debounce.New(cfg.Search.Debounce, app.commitQuery)
	app.keyHandler = NewKeyHandler(app, cfg)

	for _, opt := range opts {
		opt(app)
	}
	app.syncKeys()

	return app
}

// commitQuery runs on the debouncer's timer goroutine and hands the
// settled query to the event loop.
func (a *App) commitQuery(q string) {
	select {
	case a.queries <- q:
	case <-a.done:
	}
}

// Close releases the debouncer, any in-flight fetch and the query
// listener. It is safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.debouncer.Close()
		if a.cancelLoad != nil {
			a.cancelLoad()
		}
		a.cancel()
		close(a.done)
	})
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	reader := a.config.UI.Reader
	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > reader.WordWrapMaxWidth {
		wordWrapWidth = reader.WordWrapMaxWidth
	}
	if wordWrapWidth < reader.WordWrapMinWidth {
		wordWrapWidth = reader.WordWrapMinWidth
	}

	a.rendererMu.Lock()
	defer a.rendererMu.Unlock()

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	req := a.state.Reload()
	if a.state.Page() > 0 {
		debuglog.Infof("starting on page %d", a.state.Page())
	}
	return tea.Batch(
		a.loadPage(req),
		a.waitForQuery(),
		a.spinner.Tick,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case tea.KeyMsg:
		model, cmd := a.keyHandler.HandleKey(msg)
		a.syncKeys()
		return model, cmd

	case pageLoadedMsg:
		if !a.state.Receive(msg.result) {
			debuglog.Debugf("dropping stale result for page %d (seq %d, current %d)",
				msg.result.Request.Page, msg.result.Request.Seq, a.state.Seq())
			return a, nil
		}
		a.status = a.loadStatus(msg.result)
		a.refreshList()
		if msg.result.Err == nil {
			a.postList.Select(0)
		}
		return a, nil

	case queryCommittedMsg:
		// A commit that raced with a clear or an enter no longer matches
		// the input.
		if msg.query == a.state.Query() {
			a.state.CommitQuery(msg.query)
			a.refreshList()
		}
		return a, a.waitForQuery()

	case postRenderedMsg:
		if a.view == ViewReader && a.currentPost != nil && a.currentPost.ID == msg.id {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.rendering = false
		}
		return a, nil

	case spinner.TickMsg:
		if !a.state.Loading() && !a.rendering {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case errorMsg:
		a.err = msg.err
		if a.rendering {
			a.rendering = false
			a.viewport.SetContent(MsgError(msg.err.Error()) + "\n\nPress " + a.config.Keys.Bindings.Back + " to go back.")
		}
		return a, nil
	}

	switch a.view {
	case ViewPosts:
		var cmd tea.Cmd
		a.postList, cmd = a.postList.Update(msg)
		cmds = append(cmds, cmd)
	case ViewReader:
		if _, ok := msg.(tea.MouseMsg); ok {
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return a, tea.Batch(cmds...)
}

// loadStatus is the status line shown after r has been applied.
func (a *App) loadStatus(r state.Result) statusLine {
	if r.Err != nil {
		if !a.state.HasBatch() {
			return statusLine{}
		}
		if fe := source.AsFetchError(r.Err); fe.IsStatus() {
			return statusLine{kind: StatusWarn, text: MsgKeptBatchStatus(fe.StatusCode)}
		}
		return statusLine{kind: StatusWarn, text: MsgKeptBatch}
	}
	if r.Request.Seq == a.reloadSeq {
		return statusLine{kind: StatusSuccess, text: MsgReloaded(r.Batch.Page)}
	}
	return statusLine{}
}

// syncKeys enables bindings that only apply in some states.
func (a *App) syncKeys() {
	a.keys.PrevPage.SetEnabled(a.state.CanPrev())
}

func (a *App) resize() {
	listHeight := a.height - chrome
	if listHeight < 3 {
		listHeight = 3
	}
	a.postList.SetSize(a.width, listHeight)

	a.viewport.Width = a.width
	a.viewport.Height = a.height - 2

	inputWidth := a.width - 30
	if inputWidth < 10 {
		inputWidth = 10
	}
	a.searchInput.Width = inputWidth
	a.help.Width = a.width
}

// refreshList rebuilds the list items from the state's visible posts.
func (a *App) refreshList() {
	visible := a.state.Visible()
	items := make([]list.Item, len(visible))
	for i, p := range visible {
		items[i] = postItem{post: p, descLength: a.config.UI.Reader.DescriptionLength}
	}
	a.postList.SetItems(items)
}

func (a *App) View() string {
	var content string

	switch a.view {
	case ViewReader:
		if a.rendering {
			content = renderCentered(a.width, a.height-2,
				a.spinner.View()+" "+renderMuted(MsgRenderingPost))
		} else {
			content = a.viewport.View()
		}
	default:
		content = a.postsView()
	}

	separatorWidth := a.width
	if separatorWidth < 1 {
		separatorWidth = 1
	}
	separator := SeparatorStyle.Render(strings.Repeat("─", separatorWidth))

	return lipgloss.JoinVertical(lipgloss.Left, content, separator, a.statusBar())
}

func (a *App) postsView() string {
	header := renderHeader("› "+AppName+" · blog posts", a.endpoint, a.width)

	badge := ModeBadgeStyle.Render(a.state.Mode().Label())
	input := renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width)
	searchRow := lipgloss.JoinHorizontal(lipgloss.Center, input, " ", badge)
	if _, ok := a.debouncer.Pending(); ok {
		searchRow = lipgloss.JoinHorizontal(lipgloss.Center, searchRow, " ", renderMuted("…"))
	}

	listHeight := a.height - chrome
	if listHeight < 3 {
		listHeight = 3
	}

	var body string
	switch {
	case a.state.Loading():
		body = renderCentered(a.width, listHeight, a.spinner.View()+" "+renderMuted(MsgLoadingPosts))
	case a.state.Err() != nil && !a.state.HasBatch():
		body = renderCentered(a.width, listHeight, ErrorMessageStyle.Render(MsgError(a.state.ErrMessage())))
	case !a.state.HasBatch():
		body = renderCentered(a.width, listHeight, GetWelcomeMessage(a.config.Keys.Bindings))
	case len(a.postList.Items()) == 0:
		msg := MsgNoPosts
		if a.state.CommittedQuery() != "" {
			msg = MsgNoMatches
		}
		body = renderCentered(a.width, listHeight, renderMuted(msg))
	default:
		body = a.postList.View()
	}

	if a.state.Err() != nil && a.state.HasBatch() && !a.state.Loading() {
		body = lipgloss.JoinVertical(lipgloss.Left,
			ErrorMessageStyle.Render(MsgError(a.state.ErrMessage())),
			body,
		)
	}

	return lipgloss.NewStyle().
		Width(a.width).
		MaxHeight(a.height - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, header, searchRow, body))
}

func (a *App) statusBar() string {
	var parts []string

	switch a.view {
	case ViewReader:
		if a.currentPost != nil {
			parts = append(parts, renderMuted(truncateEnd(postHeading(*a.currentPost), a.width/2)))
		}
		parts = append(parts, a.help.View(readerKeys{a.keys}))
	default:
		parts = append(parts, renderStatus(StatusInfo, MsgPage(a.state.Page())))
		if a.state.Loading() {
			parts = append(parts, a.spinner.View())
		} else if a.state.HasBatch() {
			parts = append(parts, renderStatus(StatusInfo,
				MsgVisibleCount(len(a.postList.Items()), a.state.Batch().Len())))
		}
		if !a.status.empty() {
			parts = append(parts, renderStatus(a.status.kind, a.status.text))
		}
		if a.err != nil {
			parts = append(parts, renderStatus(StatusError, "✗ "+a.err.Error()))
		}
		parts = append(parts, a.help.View(postsKeys{a.keys}))
	}

	return StatusBarStyle.Width(a.width).Render(strings.Join(parts, " • "))
}

type postItem struct {
	post       post.Post
	descLength int
}

func postHeading(p post.Post) string {
	if p.ID == "" {
		return p.Title
	}
	return p.ID + ". " + p.Title
}

func (i postItem) Title() string {
	return PostTitleStyle.Render(singleLine(postHeading(i.post)))
}

func (i postItem) Description() string {
	desc := singleLine(i.post.Body)
	if i.descLength > 0 {
		desc = truncateEnd(desc, i.descLength)
	}
	return renderMuted(desc)
}

func (i postItem) FilterValue() string { return i.post.Title }
