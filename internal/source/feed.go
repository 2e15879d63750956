package source

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/pders01/sift/internal/config"
	"github.com/pders01/sift/internal/post"
)

// FeedSource exposes the items of an RSS or Atom feed as a post collection.
// The feed is fetched on every call; windows are cut client side.
type FeedSource struct {
	getter
	feedURL string
	parser  *gofeed.Parser
}

// NewFeedSource reads the feed at cfg.API.Endpoint.
func NewFeedSource(cfg *config.Config) *FeedSource {
	return &FeedSource{
		getter:  newGetter(cfg),
		feedURL: cfg.API.Endpoint,
		parser:  gofeed.NewParser(),
	}
}

// Fetch downloads and parses the whole feed, then returns the items in
// [start, start+limit).
func (s *FeedSource) Fetch(ctx context.Context, start, limit int) ([]post.Post, error) {
	data, err := s.get(ctx, s.feedURL, "application/rss+xml, application/atom+xml, application/xml, text/xml")
	if err != nil {
		return nil, err
	}

	feed, err := s.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &FeedParseError{URL: s.feedURL, Err: err}
	}

	return window(itemsToPosts(feed.Items), start, limit), nil
}

// FeedParseError is returned when the feed body cannot be parsed. It is
// still reported to callers as a FetchError.
type FeedParseError struct {
	URL string
	Err error
}

func (e *FeedParseError) Error() string {
	return fmt.Sprintf("parsing feed %s: %v", e.URL, e.Err)
}

func (e *FeedParseError) Unwrap() error {
	return e.Err
}

func itemsToPosts(items []*gofeed.Item) []post.Post {
	posts := make([]post.Post, 0, len(items))
	for _, item := range items {
		id := item.GUID
		if id == "" {
			id = item.Link
		}
		posts = append(posts, post.Post{
			ID:    id,
			Title: strings.TrimSpace(item.Title),
			Body:  stripHTML(getContent(item)),
		})
	}
	return posts
}

func getContent(item *gofeed.Item) string {
	if item.Content != "" {
		return item.Content
	}
	return item.Description
}

func window(posts []post.Post, start, limit int) []post.Post {
	if start < 0 {
		start = 0
	}
	if start >= len(posts) || limit <= 0 {
		return []post.Post{}
	}
	end := start + limit
	if end > len(posts) {
		end = len(posts)
	}
	return posts[start:end]
}

var (
	htmlTagRe   = regexp.MustCompile(`<[^>]*>`)
	lineBreakRe = regexp.MustCompile(`(?i)</p>|<br\s*/?>`)
)

// stripHTML reduces feed markup to plain text for matching and display.
func stripHTML(s string) string {
	s = lineBreakRe.ReplaceAllString(s, "\n")
	s = htmlTagRe.ReplaceAllString(s, "")
	return strings.TrimSpace(html.UnescapeString(s))
}
