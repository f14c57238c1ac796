// Package fetcher handles web page fetching and content extraction.
package fetcher

import (
	"context"
	"fmt"
	"time"
)

// PageContent represents fetched page data.
type PageContent struct {
	URL         string
	HTML        string
	Title       string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
	Links       []string // Raw hrefs found on the page, resolved to absolute form
	Images      []string // Raw image sources, resolved to absolute form
}

// Options controls fetching behavior.
type Options struct {
	UserAgent    string
	Timeout      time.Duration
	WaitDuration time.Duration // Additional wait after load (dynamic only)
	MaxBodyBytes int64
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		UserAgent:    "webgrab/1.0 (+https://github.com/webgrab/webgrab)",
		Timeout:      30 * time.Second,
		MaxBodyBytes: 6 * 1024 * 1024,
	}
}

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves page content from a URL.
	Fetch(ctx context.Context, url string, opts Options) (PageContent, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns "static", "dynamic" or "auto".
	Type() string
}

// Mode determines how pages are fetched.
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModeStatic  Mode = "static"
	ModeDynamic Mode = "dynamic"
)

// New creates an appropriate fetcher based on mode.
func New(mode Mode, opts Options) (Fetcher, error) {
	switch mode {
	case ModeStatic:
		return NewStatic(opts), nil
	case ModeDynamic:
		return NewDynamic(opts)
	case ModeAuto:
		return NewAuto(opts)
	default:
		return nil, fmt.Errorf("unknown fetch mode: %s", mode)
	}
}
