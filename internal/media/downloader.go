package media

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dustin/go-humanize"
	"github.com/webgrab/webgrab/internal/logger"
)

// Downloader retrieves assets into a local directory with bounded
// concurrency. Individual failures are recorded on the Ref and never
// abort the batch.
type Downloader struct {
	client      *http.Client
	dir         string
	maxBytes    int64
	concurrency int
}

// DownloaderConfig controls asset downloading.
type DownloaderConfig struct {
	Dir         string
	Timeout     time.Duration
	MaxBytes    int64 // per-asset cap; 0 = unlimited
	Concurrency int
	Client      *http.Client
}

// NewDownloader creates a downloader writing into cfg.Dir.
func NewDownloader(cfg DownloaderConfig) (*Downloader, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("download directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create downloads dir: %w", err)
	}

	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 4
	}

	return &Downloader{
		client:      client,
		dir:         cfg.Dir,
		maxBytes:    cfg.MaxBytes,
		concurrency: concurrency,
	}, nil
}

// DownloadAll fetches every ref concurrently and returns the refs with
// LocalPath or Error filled in. Order is preserved.
func (d *Downloader) DownloadAll(ctx context.Context, refs []Ref) []Ref {
	out := make([]Ref, len(refs))
	copy(out, refs)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for i := range out {
		g.Go(func() error {
			ref := &out[i]
			local, err := d.download(ctx, ref.TargetURI)
			if err != nil {
				logger.Debug("asset download failed", "uri", ref.TargetURI, "error", err)
				ref.Error = err.Error()
				return nil // per-asset failures never fail the batch
			}
			ref.LocalPath = local
			return nil
		})
	}

	_ = g.Wait()
	return out
}

func (d *Downloader) download(ctx context.Context, uri string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	name := localName(uri)
	dest := filepath.Join(d.dir, name)

	file, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	reader := io.Reader(resp.Body)
	if d.maxBytes > 0 {
		reader = io.LimitReader(reader, d.maxBytes)
	}

	n, err := io.Copy(file, reader)
	if err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("write file: %w", err)
	}
	logger.Debug("asset downloaded", "uri", uri, "size", humanize.Bytes(uint64(n)), "path", dest)

	return dest, nil
}

// localName derives a collision-safe filename from the asset URI: the
// URL path's base name prefixed with a short hash of the full URI, so
// two assets named logo.png from different paths never clash.
func localName(uri string) string {
	base := "asset"
	if parsed, err := url.Parse(uri); err == nil {
		if b := path.Base(parsed.Path); b != "" && b != "/" && b != "." {
			base = sanitizeName(b)
		}
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(uri))
	return fmt.Sprintf("%08x_%s", h.Sum32(), base)
}

func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
