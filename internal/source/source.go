package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pders01/sift/internal/config"
	"github.com/pders01/sift/internal/post"
)

// Source returns up to limit posts starting at the given offset.
type Source interface {
	Fetch(ctx context.Context, start, limit int) ([]post.Post, error)
}

// FetchError is the single error kind surfaced by a page load. It covers
// both transport failures and non-2xx responses.
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		status := e.Status
		if status == "" {
			status = http.StatusText(e.StatusCode)
		}
		return fmt.Sprintf("failed to fetch posts: HTTP %d %s", e.StatusCode, status)
	}
	if e.Err != nil {
		return fmt.Sprintf("failed to fetch posts: %v", e.Err)
	}
	return "failed to fetch posts"
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsStatus reports whether the failure came from the response status rather
// than the transport.
func (e *FetchError) IsStatus() bool {
	return e.StatusCode != 0
}

// AsFetchError returns err as a *FetchError, wrapping it when needed.
func AsFetchError(err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &FetchError{Err: err}
}

// New builds the source selected by cfg.API.Kind.
func New(cfg *config.Config) (Source, error) {
	switch cfg.API.Kind {
	case "", config.KindJSON:
		return NewHTTPSource(cfg), nil
	case config.KindFeed:
		return NewFeedSource(cfg), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.API.Kind)
	}
}
