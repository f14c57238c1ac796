package fetcher

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// parseContent extracts the title, outbound links and image sources from
// fetched HTML. Relative references are resolved against the page URL.
func parseContent(content *PageContent) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content.HTML))
	if err != nil {
		return err
	}

	content.Title = strings.TrimSpace(doc.Find("title").First().Text())

	base, _ := url.Parse(content.URL)

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists || href == "" {
			return
		}
		if strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		if resolved, ok := resolve(base, href); ok {
			content.Links = append(content.Links, resolved)
		}
	})

	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, exists := s.Attr("src")
		if !exists || src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		if resolved, ok := resolve(base, src); ok {
			content.Images = append(content.Images, resolved)
		}
	})

	return nil
}

func resolve(base *url.URL, ref string) (string, bool) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	if !parsed.IsAbs() {
		if base == nil {
			return "", false
		}
		parsed = base.ResolveReference(parsed)
	}
	return parsed.String(), true
}
