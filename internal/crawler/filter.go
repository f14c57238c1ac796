package crawler

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/webgrab/webgrab/internal/urlutil"
)

// DomainFilter holds the exclusion set. A listed host excludes itself
// and all of its subdomains. The set can grow mid-run; additions are
// appended to the backing file so later runs pick them up.
type DomainFilter struct {
	mu          sync.RWMutex
	hosts       map[string]struct{}
	persistPath string
}

// NewDomainFilter creates an empty filter.
func NewDomainFilter() *DomainFilter {
	return &DomainFilter{hosts: make(map[string]struct{})}
}

// Load reads a line-oriented hostname list and remembers the path for
// appends. A missing file is not an error; the file appears on the
// first exclusion.
func (f *DomainFilter) Load(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persistPath = path

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open exclusion list: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		host := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if host == "" || strings.HasPrefix(host, "#") {
			continue
		}
		f.hosts[host] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read exclusion list: %w", err)
	}
	return nil
}

// IsExcluded reports whether the URL's host matches an excluded host
// exactly or as a subdomain of one.
func (f *DomainFilter) IsExcluded(rawURL string) bool {
	host := urlutil.Hostname(rawURL)
	if host == "" {
		return false
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	for candidate := host; candidate != ""; {
		if _, ok := f.hosts[candidate]; ok {
			return true
		}
		_, rest, ok := strings.Cut(candidate, ".")
		if !ok {
			break
		}
		candidate = rest
	}
	return false
}

// Exclude adds a host to the set. Adding an already excluded host is a
// no-op. New hosts are appended to the exclusion file when one is
// configured.
func (f *DomainFilter) Exclude(host string) error {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.hosts[host]; ok {
		return nil
	}
	f.hosts[host] = struct{}{}

	if f.persistPath == "" {
		return nil
	}

	file, err := os.OpenFile(f.persistPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("append exclusion list: %w", err)
	}
	defer file.Close()

	if _, err := fmt.Fprintln(file, host); err != nil {
		return fmt.Errorf("append exclusion list: %w", err)
	}
	return nil
}

// Hosts returns the excluded hosts, sorted.
func (f *DomainFilter) Hosts() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	hosts := make([]string, 0, len(f.hosts))
	for h := range f.hosts {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}
