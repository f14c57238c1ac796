package crawler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDomainFilter_ExactAndSubdomain(t *testing.T) {
	f := NewDomainFilter()
	if err := f.Exclude("example.org"); err != nil {
		t.Fatalf("Exclude error: %v", err)
	}

	tests := []struct {
		url  string
		want bool
	}{
		{"http://example.org/page", true},
		{"http://example.org", true},
		{"http://sub.example.org/page", true},
		{"http://deep.sub.example.org/", true},
		{"http://example.com/page", false},
		{"http://notexample.org/page", false},
		{"http://example.org.evil.test/", false},
	}

	for _, tt := range tests {
		if got := f.IsExcluded(tt.url); got != tt.want {
			t.Errorf("IsExcluded(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestDomainFilter_ExcludeIdempotent(t *testing.T) {
	f := NewDomainFilter()

	if err := f.Exclude("a.test"); err != nil {
		t.Fatalf("Exclude error: %v", err)
	}
	if err := f.Exclude("a.test"); err != nil {
		t.Fatalf("second Exclude error: %v", err)
	}

	if got := f.Hosts(); len(got) != 1 {
		t.Errorf("expected 1 host, got %v", got)
	}
}

func TestDomainFilter_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "excluded.txt")
	content := "example.org\n\n# comment\nTracker.Test\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	f := NewDomainFilter()
	if err := f.Load(path); err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if !f.IsExcluded("http://example.org/") {
		t.Error("host from file should be excluded")
	}
	if !f.IsExcluded("http://tracker.test/x") {
		t.Error("hosts should be matched case-insensitively")
	}
	if got := f.Hosts(); len(got) != 2 {
		t.Errorf("expected 2 hosts, got %v", got)
	}
}

func TestDomainFilter_LoadMissingFile(t *testing.T) {
	f := NewDomainFilter()
	if err := f.Load(filepath.Join(t.TempDir(), "absent.txt")); err != nil {
		t.Errorf("missing exclusion file should not error, got %v", err)
	}
}

func TestDomainFilter_ExcludeAppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "excluded.txt")
	if err := os.WriteFile(path, []byte("old.test\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := NewDomainFilter()
	if err := f.Load(path); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if err := f.Exclude("new.test"); err != nil {
		t.Fatalf("Exclude error: %v", err)
	}
	// Idempotent re-add must not duplicate the line.
	if err := f.Exclude("new.test"); err != nil {
		t.Fatalf("Exclude error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "new.test"); got != 1 {
		t.Errorf("expected new.test appended once, found %d times in %q", got, data)
	}

	// A fresh filter reloading the file sees the appended host.
	f2 := NewDomainFilter()
	if err := f2.Load(path); err != nil {
		t.Fatalf("reload error: %v", err)
	}
	if !f2.IsExcluded("http://new.test/") {
		t.Error("appended host should survive reload")
	}
}
