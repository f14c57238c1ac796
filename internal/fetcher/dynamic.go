package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/webgrab/webgrab/internal/logger"
)

// Dynamic uses chromedp for JavaScript-rendered pages.
type Dynamic struct {
	defaults  Options
	allocCtx  context.Context
	cancelCtx context.CancelFunc
}

// NewDynamic creates a new dynamic fetcher with a browser instance.
func NewDynamic(opts Options) (*Dynamic, error) {
	logger.Debug("creating dynamic fetcher")

	if opts.UserAgent == "" {
		opts.UserAgent = DefaultOptions().UserAgent
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultOptions().Timeout
	}

	// Headless browser flags chosen to look like a regular session.
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(opts.UserAgent),
		chromedp.WindowSize(1920, 1080),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	return &Dynamic{
		defaults:  opts,
		allocCtx:  allocCtx,
		cancelCtx: cancelAlloc,
	}, nil
}

// Fetch retrieves page content using a headless browser.
func (f *Dynamic) Fetch(ctx context.Context, targetURL string, opts Options) (PageContent, error) {
	logger.Debug("dynamic fetch starting", "url", targetURL)

	result := PageContent{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	// A new browser context per request
	browserCtx, cancelBrowser := chromedp.NewContext(f.allocCtx)
	defer cancelBrowser()

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.defaults.Timeout
	}

	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	// Honor the caller's cancellation as well.
	stop := context.AfterFunc(ctx, cancelBrowser)
	defer stop()

	var html string

	actions := []chromedp.Action{
		chromedp.Navigate(targetURL),
		chromedp.WaitVisible("body"),
	}

	if opts.WaitDuration > 0 {
		actions = append(actions, chromedp.Sleep(opts.WaitDuration))
	}

	actions = append(actions, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(timeoutCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return result, NewError(KindCancelled, ctx.Err())
		}
		logger.Debug("dynamic fetch failed", "url", targetURL, "error", err)
		return result, Classify(fmt.Errorf("browser automation failed: %w", err))
	}

	result.HTML = html
	result.StatusCode = 200 // chromedp doesn't easily expose status codes

	if err := parseContent(&result); err != nil {
		return result, fmt.Errorf("failed to parse content: %w", err)
	}
	logger.Debug("dynamic fetch complete",
		"url", targetURL,
		"html_size", len(html),
		"links_count", len(result.Links))

	return result, nil
}

// Close releases browser resources.
func (f *Dynamic) Close() error {
	if f.cancelCtx != nil {
		f.cancelCtx()
	}
	return nil
}

// Type returns the fetcher type.
func (f *Dynamic) Type() string {
	return "dynamic"
}
