// Package cleaner provides interfaces and implementations for cleaning HTML content.
// Cleaners transform raw HTML into a textual representation worth persisting.
package cleaner

// Cleaner transforms HTML content into a cleaner format.
type Cleaner interface {
	// Clean transforms the input HTML. The output format depends on the
	// implementation (markdown, raw passthrough, etc.).
	Clean(html string) (string, error)

	// Name returns the cleaner type for logging/debugging.
	Name() string
}
