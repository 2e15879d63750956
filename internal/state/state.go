package state

import (
	"github.com/pders01/sift/internal/pager"
	"github.com/pders01/sift/internal/post"
	"github.com/pders01/sift/internal/search"
)

// Request identifies one page load. Seq increases with every request so a
// result can be matched to the request that is still current.
type Request struct {
	Seq  uint64
	Page int
}

// Result is the outcome of a Request.
type Result struct {
	Request Request
	Batch   post.Batch
	Err     error
}

// Model holds everything the post browser displays. It is not safe for
// concurrent use; the UI event loop owns it.
type Model struct {
	page      int
	batch     post.Batch
	hasBatch  bool
	query     string
	committed string
	mode      search.Mode
	loading   bool
	err       error
	seq       uint64
}

// New returns an empty model on page 0. An invalid mode selects
// search.ModeTitle.
func New(mode search.Mode) *Model {
	if !mode.Valid() {
		mode = search.ModeTitle
	}
	return &Model{mode: mode}
}

func (m *Model) issue() Request {
	m.seq++
	m.loading = true
	m.err = nil
	return Request{Seq: m.seq, Page: m.page}
}

// Reload requests the current page again.
func (m *Model) Reload() Request {
	return m.issue()
}

// SetPage moves to page p, floored at zero. It returns false when the page
// does not change, in which case no request is needed.
func (m *Model) SetPage(p int) (Request, bool) {
	p = pager.Clamp(p)
	if p == m.page {
		return Request{}, false
	}
	m.page = p
	return m.issue(), true
}

// NextPage requests the following page.
func (m *Model) NextPage() (Request, bool) {
	return m.SetPage(pager.Next(m.page))
}

// PrevPage requests the preceding page. On page 0 it reports false.
func (m *Model) PrevPage() (Request, bool) {
	return m.SetPage(pager.Prev(m.page))
}

// SetQuery records the live query text. Filtering does not use it until it
// is committed.
func (m *Model) SetQuery(q string) {
	m.query = q
}

// CommitQuery sets the query the visible posts are filtered with.
func (m *Model) CommitQuery(q string) {
	m.committed = q
}

func (m *Model) SetMode(mode search.Mode) {
	if !mode.Valid() {
		mode = search.ModeTitle
	}
	m.mode = mode
}

// CycleMode advances to the next search mode and returns it.
func (m *Model) CycleMode() search.Mode {
	m.mode = m.mode.Next()
	return m.mode
}

// Receive applies r if it answers the most recent request. Stale results
// are dropped and Receive returns false.
func (m *Model) Receive(r Result) bool {
	if r.Request.Seq != m.seq {
		return false
	}

	m.loading = false
	if r.Err != nil {
		m.err = r.Err
		return true
	}

	m.err = nil
	m.batch = r.Batch
	m.hasBatch = true
	return true
}

// Visible is the current batch filtered by the committed query and mode.
func (m *Model) Visible() []post.Post {
	return search.Filter(m.batch.Posts, m.committed, m.mode)
}

func (m *Model) Page() int              { return m.page }
func (m *Model) Batch() post.Batch      { return m.batch }
func (m *Model) HasBatch() bool         { return m.hasBatch }
func (m *Model) Query() string          { return m.query }
func (m *Model) CommittedQuery() string { return m.committed }
func (m *Model) Mode() search.Mode      { return m.mode }
func (m *Model) Loading() bool          { return m.loading }
func (m *Model) Err() error             { return m.err }
func (m *Model) Seq() uint64            { return m.seq }

// ErrMessage is the error text shown to the user, or "" when there is none.
func (m *Model) ErrMessage() string {
	if m.err == nil {
		return ""
	}
	return m.err.Error()
}

// CanPrev reports whether PrevPage would change the page.
func (m *Model) CanPrev() bool {
	return m.page > 0
}
