// Package storage lays out the results directory for a run and persists
// page artifacts and the final manifest.
package storage

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/webgrab/webgrab/internal/urlutil"
)

// Format selects the manifest encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Store writes one markdown artifact per visited page plus a manifest
// under <root>/<sanitized-host>/, with downloads in a subdirectory.
type Store struct {
	dir          string
	downloadsDir string

	mu   sync.Mutex
	used map[string]struct{}
}

// New creates the results directory tree for a run seeded at seedURL.
func New(root, seedURL string) (*Store, error) {
	name, err := urlutil.SanitizeDirName(seedURL)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(root, name)
	downloadsDir := filepath.Join(dir, "downloads")
	if err := os.MkdirAll(downloadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}

	return &Store{
		dir:          dir,
		downloadsDir: downloadsDir,
		used:         make(map[string]struct{}),
	}, nil
}

// Dir returns the per-run results directory.
func (s *Store) Dir() string {
	return s.dir
}

// DownloadsDir returns the directory media downloads are written to.
func (s *Store) DownloadsDir() string {
	return s.downloadsDir
}

// WritePage persists cleaned page content under a name derived from the
// URL and returns the path. Names are collision-safe within the run:
// when two URLs flatten to the same filename the later one gets a short
// hash suffix.
func (s *Store) WritePage(pageURL, content string) (string, error) {
	name := s.claimName(pageURL)
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write page artifact: %w", err)
	}
	return path, nil
}

func (s *Store) claimName(pageURL string) string {
	name := urlutil.SanitizeFilename(pageURL)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.used[name]; taken {
		h := fnv.New32a()
		_, _ = h.Write([]byte(pageURL))
		suffix := fmt.Sprintf("_%08x.md", h.Sum32())
		name = strings.TrimSuffix(name, ".md")
		if len(name)+len(suffix) > urlutil.MaxFilenameLength {
			name = name[:urlutil.MaxFilenameLength-len(suffix)]
		}
		name += suffix
	}
	s.used[name] = struct{}{}
	return name
}

// WriteManifest encodes the manifest in the given format and returns
// the path it was written to.
func (s *Store) WriteManifest(manifest any, format Format) (string, error) {
	var (
		data []byte
		err  error
		name string
	)

	switch format {
	case FormatYAML:
		name = "manifest.yaml"
		data, err = yaml.Marshal(manifest)
	case FormatJSON, "":
		name = "manifest.json"
		data, err = json.MarshalIndent(manifest, "", "  ")
	default:
		return "", fmt.Errorf("unknown manifest format: %s", format)
	}
	if err != nil {
		return "", fmt.Errorf("encode manifest: %w", err)
	}

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}
