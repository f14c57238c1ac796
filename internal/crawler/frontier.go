// Package crawler implements the crawl traversal engine: the frontier,
// the visited ledger, domain exclusion, and the fetch/extract/enqueue
// orchestration loop.
package crawler

import "sync"

// Entry is a unit of pending work: a normalized URL, its distance from
// the seed, and the page it was discovered on. Entries are immutable
// once pushed.
type Entry struct {
	URL    string
	Depth  int
	Origin string // empty for the seed
}

// Frontier is the FIFO queue of URLs awaiting fetch. Breadth-first
// ordering falls out of FIFO discipline as long as links are enqueued as
// soon as each page completes.
//
// Depth and page-count bounds are enforced at push time: once either is
// exceeded Push drops the entry instead of queueing it.
type Frontier struct {
	mu       sync.Mutex
	queue    []Entry
	maxDepth int // inclusive; entries deeper are dropped
	maxPages int // total accepted entries; 0 = unlimited
	accepted int
}

// NewFrontier creates a frontier bounded by maxDepth and maxPages.
func NewFrontier(maxDepth, maxPages int) *Frontier {
	return &Frontier{
		queue:    make([]Entry, 0),
		maxDepth: maxDepth,
		maxPages: maxPages,
	}
}

// Push queues an entry. It returns false, dropping the entry, when the
// entry is deeper than the depth bound or the page budget is spent.
func (f *Frontier) Push(e Entry) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if e.Depth > f.maxDepth {
		return false
	}
	if f.maxPages > 0 && f.accepted >= f.maxPages {
		return false
	}

	f.accepted++
	f.queue = append(f.queue, e)
	return true
}

// Pop removes and returns the next entry in FIFO order.
func (f *Frontier) Pop() (Entry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return Entry{}, false
	}

	e := f.queue[0]
	f.queue = f.queue[1:]
	return e, true
}

// Len returns the number of queued entries.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}
