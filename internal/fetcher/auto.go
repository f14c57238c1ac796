package fetcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Auto tries a static fetch first and falls back to the headless browser
// when the page looks JavaScript-rendered.
type Auto struct {
	static  *Static
	dynamic *Dynamic
}

// NewAuto creates a fetcher that auto-detects JS requirements.
func NewAuto(opts Options) (*Auto, error) {
	dynamic, err := NewDynamic(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic fetcher: %w", err)
	}

	return &Auto{
		static:  NewStatic(opts),
		dynamic: dynamic,
	}, nil
}

// Fetch tries static first, then falls back to dynamic if needed.
func (f *Auto) Fetch(ctx context.Context, url string, opts Options) (PageContent, error) {
	content, err := f.static.Fetch(ctx, url, opts)
	if err != nil {
		return content, err
	}

	if needsJavaScript(content.HTML) {
		return f.dynamic.Fetch(ctx, url, opts)
	}

	return content, nil
}

// needsJavaScript checks if a page appears to require JS rendering.
func needsJavaScript(html string) bool {
	lower := strings.ToLower(html)

	// SPA framework markers
	spaMarkers := []string{
		"<div id=\"root\"></div>",   // React
		"<div id=\"app\"></div>",    // Vue
		"<app-root></app-root>",     // Angular
		"<div id=\"__next\"></div>", // Next.js
		"<div id=\"__nuxt\"></div>", // Nuxt.js
		"<div data-reactroot",       // React
	}
	for _, marker := range spaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}

	// Nearly empty body with a JS warning in noscript
	if strings.Contains(lower, "<noscript>") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return false
		}
		body := strings.TrimSpace(doc.Find("body").Text())
		noscript := strings.ToLower(doc.Find("noscript").Text())
		if len(body) < 200 && (strings.Contains(noscript, "javascript") || strings.Contains(noscript, "enable")) {
			return true
		}
	}

	return false
}

// Close releases all fetcher resources.
func (f *Auto) Close() error {
	if f.dynamic != nil {
		return f.dynamic.Close()
	}
	return nil
}

// Type returns the fetcher type.
func (f *Auto) Type() string {
	return "auto"
}
