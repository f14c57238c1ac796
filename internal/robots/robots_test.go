package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newRobotsServer(t *testing.T, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		if hits != nil {
			hits.Add(1)
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAllowed_DisallowedPath(t *testing.T) {
	srv := newRobotsServer(t, "User-agent: *\nDisallow: /private\n", nil)

	agent := NewAgent(Config{UserAgent: "webgrab", Respect: true}, srv.Client())

	if agent.Allowed(context.Background(), srv.URL+"/private/page") {
		t.Error("disallowed path should be blocked")
	}
	if !agent.Allowed(context.Background(), srv.URL+"/public") {
		t.Error("allowed path should pass")
	}
}

func TestAllowed_RespectDisabled(t *testing.T) {
	srv := newRobotsServer(t, "User-agent: *\nDisallow: /\n", nil)

	agent := NewAgent(Config{UserAgent: "webgrab", Respect: false}, srv.Client())

	if !agent.Allowed(context.Background(), srv.URL+"/anything") {
		t.Error("all URLs should be allowed when respect is disabled")
	}
}

func TestAllowed_CachesPerHost(t *testing.T) {
	var hits atomic.Int32
	srv := newRobotsServer(t, "User-agent: *\nDisallow:\n", &hits)

	agent := NewAgent(Config{UserAgent: "webgrab", Respect: true, CacheTTL: time.Minute}, srv.Client())

	for i := 0; i < 5; i++ {
		agent.Allowed(context.Background(), srv.URL+"/page")
	}

	if got := hits.Load(); got != 1 {
		t.Errorf("expected 1 robots.txt fetch, got %d", got)
	}
}

func TestAllowed_FailOpenOnFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	agent := NewAgent(Config{UserAgent: "webgrab", Respect: true}, srv.Client())

	if !agent.Allowed(context.Background(), srv.URL+"/page") {
		t.Error("robots fetch failure should fail open")
	}
}

func TestAllowed_InvalidURL(t *testing.T) {
	agent := NewAgent(Config{Respect: true}, nil)

	if agent.Allowed(context.Background(), "not-a-url") {
		t.Error("relative URL should not be allowed")
	}
}
