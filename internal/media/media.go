// Package media collects downloadable asset references from fetched
// pages and, in download mode, retrieves them.
package media

import (
	"net/url"
	"path"
	"strings"

	"github.com/webgrab/webgrab/internal/fetcher"
)

// Kind distinguishes images from other downloadable files.
type Kind string

const (
	KindImage Kind = "image"
	KindFile  Kind = "file"
)

// Ref is a single discoverable asset on a page. LocalPath is filled in
// once the asset has been downloaded; Error records a per-asset download
// failure.
type Ref struct {
	SourceURL string `json:"source_url" yaml:"source_url"`
	TargetURI string `json:"target_uri" yaml:"target_uri"`
	Kind      Kind   `json:"kind" yaml:"kind"`
	LocalPath string `json:"local_path,omitempty" yaml:"local_path,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// File extensions treated as downloadable documents when linked from a page.
var fileExtensions = map[string]struct{}{
	".pdf": {}, ".zip": {}, ".tar": {}, ".gz": {}, ".7z": {},
	".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {}, ".ppt": {}, ".pptx": {},
	".csv": {}, ".epub": {}, ".mp3": {}, ".mp4": {},
}

// Collect extracts asset references from a fetched page: every image
// source, plus any link pointing at a downloadable file. Duplicate
// targets within the page are collapsed, first occurrence wins.
func Collect(page fetcher.PageContent) []Ref {
	var refs []Ref
	seen := make(map[string]struct{})

	for _, src := range page.Images {
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		refs = append(refs, Ref{SourceURL: page.URL, TargetURI: src, Kind: KindImage})
	}

	for _, link := range page.Links {
		if !isFileLink(link) {
			continue
		}
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		refs = append(refs, Ref{SourceURL: page.URL, TargetURI: link, Kind: KindFile})
	}

	return refs
}

func isFileLink(link string) bool {
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}
	ext := strings.ToLower(path.Ext(parsed.Path))
	_, ok := fileExtensions[ext]
	return ok
}
