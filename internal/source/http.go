package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pders01/sift/internal/config"
	"github.com/pders01/sift/internal/post"
)

const (
	defaultUserAgent = "sift/1.0 (post browser; github.com/pders01/sift)"
	defaultTimeout   = 30 * time.Second
	maxBodyBytes     = 4 << 20
)

type getter struct {
	client    *http.Client
	userAgent string
}

func newGetter(cfg *config.Config) getter {
	timeout := cfg.API.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ua := cfg.API.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return getter{
		client:    &http.Client{Timeout: timeout},
		userAgent: ua,
	}
}

func (g getter) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("creating request: %w", err)}
	}

	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("reading response: %w", err)}
	}
	return data, nil
}

// HTTPSource reads pages from a JSON collection endpoint that understands
// the _start and _limit query parameters.
type HTTPSource struct {
	getter
	endpoint string
}

// NewHTTPSource pages through the collection at cfg.API.Endpoint.
func NewHTTPSource(cfg *config.Config) *HTTPSource {
	return &HTTPSource{
		getter:   newGetter(cfg),
		endpoint: cfg.API.Endpoint,
	}
}

// PageURL returns the request URL for a window of the collection.
func (s *HTTPSource) PageURL(start, limit int) (string, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing endpoint: %w", err)
	}
	q := u.Query()
	q.Set("_start", strconv.Itoa(start))
	q.Set("_limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Fetch requests one window and decodes the JSON array in the response.
func (s *HTTPSource) Fetch(ctx context.Context, start, limit int) ([]post.Post, error) {
	pageURL, err := s.PageURL(start, limit)
	if err != nil {
		return nil, &FetchError{URL: s.endpoint, Err: err}
	}

	data, err := s.get(ctx, pageURL, "application/json")
	if err != nil {
		return nil, err
	}

	posts, err := decodePosts(data)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	return posts, nil
}
