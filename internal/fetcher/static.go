package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
)

// Static uses Colly for plain HTTP fetching.
type Static struct {
	defaults Options
}

// NewStatic creates a new static fetcher.
func NewStatic(opts Options) *Static {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultOptions().UserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	return &Static{defaults: opts}
}

// Fetch retrieves page content using Colly.
func (f *Static) Fetch(ctx context.Context, targetURL string, opts Options) (PageContent, error) {
	result := PageContent{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	// A fresh collector per request keeps fetches independent. Robots
	// handling lives in the dispatcher, not here.
	c := colly.NewCollector(
		colly.UserAgent(coalesce(opts.UserAgent, f.defaults.UserAgent)),
		colly.IgnoreRobotsTxt(),
		colly.StdlibContext(ctx),
	)

	if opts.MaxBodyBytes > 0 {
		c.MaxBodySize = int(opts.MaxBodyBytes)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.defaults.Timeout
	}
	c.SetRequestTimeout(timeout)

	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
		result.ContentType = r.Headers.Get("Content-Type")
		result.HTML = string(r.Body)
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode > 0 {
			result.StatusCode = r.StatusCode
			fetchErr = NewHTTPError(r.StatusCode)
			return
		}
		fetchErr = Classify(err)
	})

	if err := c.Visit(targetURL); err != nil && fetchErr == nil {
		fetchErr = Classify(err)
	}

	if fetchErr != nil {
		return result, fetchErr
	}

	if err := parseContent(&result); err != nil {
		return result, fmt.Errorf("failed to parse content: %w", err)
	}

	return result, nil
}

// Close releases resources.
func (f *Static) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *Static) Type() string {
	return "static"
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
