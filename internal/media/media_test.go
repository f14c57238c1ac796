package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/webgrab/webgrab/internal/fetcher"
)

func TestCollect(t *testing.T) {
	page := fetcher.PageContent{
		URL: "http://a.test/page",
		Images: []string{
			"http://a.test/logo.png",
			"http://a.test/logo.png", // duplicate
			"http://cdn.test/banner.jpg",
		},
		Links: []string{
			"http://a.test/about",
			"http://a.test/report.pdf",
			"http://a.test/archive.zip",
			"http://a.test/report.pdf", // duplicate
		},
	}

	refs := Collect(page)

	if len(refs) != 4 {
		t.Fatalf("expected 4 refs, got %d: %+v", len(refs), refs)
	}

	images := 0
	files := 0
	for _, r := range refs {
		if r.SourceURL != page.URL {
			t.Errorf("ref source = %q, want %q", r.SourceURL, page.URL)
		}
		switch r.Kind {
		case KindImage:
			images++
		case KindFile:
			files++
		}
	}
	if images != 2 || files != 2 {
		t.Errorf("expected 2 images and 2 files, got %d and %d", images, files)
	}
}

func TestCollect_PlainLinksIgnored(t *testing.T) {
	page := fetcher.PageContent{
		URL:   "http://a.test/",
		Links: []string{"http://a.test/about", "http://a.test/contact"},
	}

	if refs := Collect(page); len(refs) != 0 {
		t.Errorf("plain page links should not be collected, got %+v", refs)
	}
}

func TestDownloadAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "missing.pdf") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("content of " + r.URL.Path))
	}))
	defer srv.Close()

	dir := t.TempDir()
	d, err := NewDownloader(DownloaderConfig{Dir: dir, Client: srv.Client()})
	if err != nil {
		t.Fatalf("NewDownloader error: %v", err)
	}

	refs := []Ref{
		{TargetURI: srv.URL + "/files/report.pdf", Kind: KindFile},
		{TargetURI: srv.URL + "/files/missing.pdf", Kind: KindFile},
		{TargetURI: srv.URL + "/img/logo.png", Kind: KindImage},
	}

	got := d.DownloadAll(context.Background(), refs)

	if got[0].LocalPath == "" || got[0].Error != "" {
		t.Errorf("first ref should succeed, got %+v", got[0])
	}
	if got[1].LocalPath != "" || got[1].Error == "" {
		t.Errorf("second ref should fail per-asset, got %+v", got[1])
	}
	if got[2].LocalPath == "" {
		t.Errorf("third ref should succeed, got %+v", got[2])
	}

	data, err := os.ReadFile(got[0].LocalPath)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "content of /files/report.pdf" {
		t.Errorf("unexpected file content %q", data)
	}
}

func TestDownloadAll_MaxBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer srv.Close()

	dir := t.TempDir()
	d, err := NewDownloader(DownloaderConfig{Dir: dir, MaxBytes: 100, Client: srv.Client()})
	if err != nil {
		t.Fatalf("NewDownloader error: %v", err)
	}

	got := d.DownloadAll(context.Background(), []Ref{{TargetURI: srv.URL + "/big.pdf"}})
	if got[0].Error != "" {
		t.Fatalf("download should succeed truncated, got error %q", got[0].Error)
	}

	info, err := os.Stat(got[0].LocalPath)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != 100 {
		t.Errorf("expected truncation to 100 bytes, got %d", info.Size())
	}
}

func TestLocalName_CollisionSafe(t *testing.T) {
	a := localName("http://a.test/one/logo.png")
	b := localName("http://a.test/two/logo.png")

	if a == b {
		t.Errorf("same basename from different URLs should not clash: %q", a)
	}
	if !strings.HasSuffix(a, "_logo.png") {
		t.Errorf("expected basename suffix, got %q", a)
	}

	if filepath.Ext(localName("http://a.test/weird%20name.pdf")) != ".pdf" {
		t.Error("extension should be preserved")
	}
}
