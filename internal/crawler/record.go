package crawler

import (
	"time"

	"github.com/webgrab/webgrab/internal/fetcher"
	"github.com/webgrab/webgrab/internal/media"
)

// Status is the lifecycle state of a visit.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// VisitRecord tracks one distinct URL for the lifetime of a run. It is
// created when the URL is dequeued and finalized when the fetch
// completes or exhausts its retries.
type VisitRecord struct {
	URL             string            `json:"url" yaml:"url"`
	Depth           int               `json:"depth" yaml:"depth"`
	Origin          string            `json:"origin,omitempty" yaml:"origin,omitempty"`
	Status          Status            `json:"status" yaml:"status"`
	DiscoveredLinks []string          `json:"discovered_links,omitempty" yaml:"discovered_links,omitempty"`
	Media           []media.Ref       `json:"media,omitempty" yaml:"media,omitempty"`
	ErrorKind       fetcher.ErrorKind `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Attempts        int               `json:"attempts" yaml:"attempts"`
}

// Manifest is the run-level summary, built incrementally and finalized
// when the frontier drains.
type Manifest struct {
	Seed           string    `json:"seed" yaml:"seed"`
	GeneratedAt    time.Time `json:"generated_at" yaml:"generated_at"`
	VisitedCount   int       `json:"visited_count" yaml:"visited_count"`
	SuccessCount   int       `json:"success_count" yaml:"success_count"`
	FailedCount    int       `json:"failed_count" yaml:"failed_count"`
	ExcludedLinks  int       `json:"excluded_links" yaml:"excluded_links"`
	MalformedLinks int       `json:"malformed_links" yaml:"malformed_links"`

	Pages []VisitRecord `json:"pages" yaml:"pages"`

	// DownloadedMedia lists every collected asset, with local paths
	// filled in when download mode was active.
	DownloadedMedia []media.Ref `json:"downloaded_media,omitempty" yaml:"downloaded_media,omitempty"`
}

// Result is the per-page artifact emitted while the crawl runs.
type Result struct {
	URL           string
	Depth         int
	Origin        string
	Status        Status
	Err           error
	ErrorKind     fetcher.ErrorKind
	Title         string
	HTML          string
	Links         []string
	Media         []media.Ref
	Attempts      int
	FetchedAt     time.Time
	FetchDuration time.Duration
}
