package pager

import (
	"context"
	"time"

	"github.com/pders01/sift/internal/debuglog"
	"github.com/pders01/sift/internal/post"
	"github.com/pders01/sift/internal/source"
)

// DefaultPageSize is the number of posts per page.
const DefaultPageSize = 10

// Fetcher loads fixed-size pages from a Source.
type Fetcher struct {
	source   source.Source
	pageSize int
}

// NewFetcher returns a Fetcher reading pageSize records per page from src.
// A non-positive size falls back to DefaultPageSize.
func NewFetcher(src source.Source, pageSize int) *Fetcher {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Fetcher{source: src, pageSize: pageSize}
}

// PageSize is the number of records requested per page.
func (f *Fetcher) PageSize() int {
	return f.pageSize
}

// Offset is the index of the first record on page.
func (f *Fetcher) Offset(page int) int {
	return Clamp(page) * f.pageSize
}

// Load fetches one page. Any failure is returned as a *source.FetchError;
// nothing is retried.
func (f *Fetcher) Load(ctx context.Context, page int) (post.Batch, error) {
	page = Clamp(page)
	offset := f.Offset(page)
	log := debuglog.WithFields(map[string]any{
		"page":   page,
		"offset": offset,
		"limit":  f.pageSize,
	})

	start := time.Now()
	posts, err := f.source.Fetch(ctx, offset, f.pageSize)
	if err != nil {
		fe := source.AsFetchError(err)
		log.Warnf("page load failed after %s: %v", time.Since(start), fe)
		return post.Batch{}, fe
	}

	if len(posts) > f.pageSize {
		log.Debugf("source returned %d posts, truncating", len(posts))
		posts = posts[:f.pageSize]
	}
	if posts == nil {
		posts = []post.Post{}
	}

	log.Infof("loaded %d posts in %s", len(posts), time.Since(start))
	return post.Batch{Page: page, Offset: offset, Posts: posts}, nil
}

// Clamp floors a page index at zero.
func Clamp(page int) int {
	if page < 0 {
		return 0
	}
	return page
}

func Next(page int) int {
	return Clamp(page) + 1
}

// Prev never goes below page zero.
func Prev(page int) int {
	return Clamp(page - 1)
}
