// Package robots evaluates robots.txt rules with per-host caching.
package robots

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// Agent answers whether a URL may be fetched under its host's robots.txt.
type Agent struct {
	client    *http.Client
	userAgent string
	ttl       time.Duration
	respect   bool

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	fetched time.Time
	rules   *robotstxt.RobotsData
}

// Config controls robots.txt handling.
type Config struct {
	UserAgent string
	CacheTTL  time.Duration
	Respect   bool // When false every URL is allowed
}

// NewAgent constructs a robots agent.
func NewAgent(cfg Config, client *http.Client) *Agent {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	return &Agent{
		client:    client,
		userAgent: cfg.UserAgent,
		ttl:       ttl,
		respect:   cfg.Respect,
		cache:     make(map[string]cacheEntry),
	}
}

// Allowed reports whether the target URL is permitted.
func (a *Agent) Allowed(ctx context.Context, rawURL string) bool {
	if !a.respect {
		return true
	}

	target, err := url.Parse(rawURL)
	if err != nil || !target.IsAbs() {
		return false
	}

	rules, err := a.rules(ctx, target)
	if err != nil {
		// Fail-open on robots errors (common industry practice).
		return true
	}

	group := rules.FindGroup(a.userAgent)
	if group == nil {
		group = rules.FindGroup("*")
		if group == nil {
			return true
		}
	}
	return group.Test(target.Path)
}

func (a *Agent) rules(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	host := strings.ToLower(target.Host)

	a.mu.RLock()
	entry, ok := a.cache[host]
	if ok && time.Since(entry.fetched) < a.ttl {
		a.mu.RUnlock()
		return entry.rules, nil
	}
	a.mu.RUnlock()

	robotsURL := target.Scheme + "://" + target.Host + "/robots.txt"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("robots returned status %d", resp.StatusCode)
	}

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	a.mu.Lock()
	a.cache[host] = cacheEntry{fetched: time.Now(), rules: data}
	a.mu.Unlock()

	return data, nil
}
