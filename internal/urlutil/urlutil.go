// Package urlutil canonicalizes URLs and derives filesystem-safe names
// from them. Normalization is the identity used for crawl deduplication:
// two URLs naming the same resource must normalize to the same string.
package urlutil

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// MaxFilenameLength is the filename limit on common filesystems (NTFS, ext4).
const MaxFilenameLength = 255

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// Normalize resolves rawURL against base (base may be nil for absolute
// URLs) and returns its canonical form: lowercased scheme and host,
// default port stripped, fragment stripped, bare root slash removed.
// It is a pure function; equal inputs always yield equal outputs.
func Normalize(rawURL string, base *url.URL) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", rawURL, err)
	}

	if !parsed.IsAbs() {
		if base == nil {
			return "", fmt.Errorf("relative URL %q without base", rawURL)
		}
		parsed = base.ResolveReference(parsed)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	parsed.Scheme = scheme

	parsed.Host = strings.ToLower(parsed.Host)
	hostname := parsed.Hostname()
	if hostname == "" {
		return "", fmt.Errorf("URL %q has empty host", rawURL)
	}
	if parsed.Port() == defaultPorts[scheme] {
		if strings.Contains(hostname, ":") {
			// IPv6 literal, keep the brackets.
			parsed.Host = "[" + hostname + "]"
		} else {
			parsed.Host = hostname
		}
	}

	parsed.Fragment = ""
	parsed.RawFragment = ""

	// Only the bare root slash carries no identity: http://host/ is
	// http://host. Deeper paths keep it; /a/ and /a may name different
	// resources.
	if parsed.Path == "/" {
		parsed.Path = ""
		parsed.RawPath = ""
	}

	return parsed.String(), nil
}

// Hostname returns the lowercased host of a URL without any port.
func Hostname(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// SameHost reports whether two URLs share a host.
func SameHost(url1, url2 string) bool {
	h1 := Hostname(url1)
	h2 := Hostname(url2)
	return h1 != "" && h1 == h2
}

// SanitizeFilename turns a URL into a markdown filename: scheme removed,
// slashes replaced with underscores, capped at MaxFilenameLength. Overly
// long names are retried with percent-decoding and finally truncated.
func SanitizeFilename(rawURL string) string {
	filename := flatten(rawURL) + ".md"
	if len(filename) <= MaxFilenameLength {
		return filename
	}

	if decoded, err := url.QueryUnescape(rawURL); err == nil {
		decodedName := flatten(decoded) + ".md"
		if len(decodedName) <= MaxFilenameLength {
			return decodedName
		}
	}

	return filename[:MaxFilenameLength-len("_truncated.md")] + "_truncated.md"
}

var dirNamePattern = regexp.MustCompile(`[^a-zA-Z0-9]`)

// SanitizeDirName derives a directory name from a URL's host, replacing
// every character outside [a-zA-Z0-9] with an underscore.
func SanitizeDirName(rawURL string) (string, error) {
	host := Hostname(rawURL)
	if host == "" {
		// Fall back to the text after the scheme separator, the way a
		// bare hostname argument would be read.
		rest := rawURL
		if _, after, ok := strings.Cut(rawURL, "//"); ok {
			rest = after
		}
		rest, _, _ = strings.Cut(rest, "/")
		host = strings.TrimSpace(rest)
	}
	if host == "" {
		return "", fmt.Errorf("cannot derive directory name from %q", rawURL)
	}
	return dirNamePattern.ReplaceAllString(host, "_"), nil
}

func flatten(rawURL string) string {
	s := strings.TrimPrefix(rawURL, "https://")
	s = strings.TrimPrefix(s, "http://")
	return strings.ReplaceAll(s, "/", "_")
}
