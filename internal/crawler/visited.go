package crawler

import "sync"

// Visited is the dedup ledger: it tracks every URL that has been
// scheduled during the run. MarkPending is the single synchronization
// point that prevents duplicate fetches and loops on cyclic link graphs.
type Visited struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewVisited creates an empty ledger.
func NewVisited() *Visited {
	return &Visited{seen: make(map[string]struct{})}
}

// MarkPending records the URL and returns true exactly once per URL per
// run. The check-and-set is atomic: two concurrent callers racing on the
// same URL never both receive true.
func (v *Visited) MarkPending(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.seen[url]; ok {
		return false
	}
	v.seen[url] = struct{}{}
	return true
}

// Seen reports whether the URL has already been scheduled.
func (v *Visited) Seen(url string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.seen[url]
	return ok
}

// Len returns the number of distinct URLs recorded.
func (v *Visited) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.seen)
}
