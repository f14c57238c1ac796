package cleaner

import (
	md "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
)

// Markdown converts HTML to markdown, preserving semantic structure.
type Markdown struct {
	domain string
}

// NewMarkdown creates a markdown cleaner. The domain, when set, is used
// to resolve relative links in the converted output.
func NewMarkdown(domain string) *Markdown {
	return &Markdown{domain: domain}
}

// Clean converts the HTML to markdown. Unparseable input yields empty
// output rather than an error.
func (c *Markdown) Clean(html string) (string, error) {
	var opts []converter.ConvertOptionFunc
	if c.domain != "" {
		opts = append(opts, converter.WithDomain(c.domain))
	}

	out, err := md.ConvertString(html, opts...)
	if err != nil {
		return "", err
	}
	return out, nil
}

// Name returns the cleaner type.
func (c *Markdown) Name() string {
	return "markdown"
}
