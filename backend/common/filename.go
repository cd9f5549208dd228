package common

import (
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var filenameStripRegexp = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces name to a flat ASCII file name that is safe to use
// as a blob key and as a URL path segment. It may return "".
func SecureFilename(name string) string {
	asciiOnly := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	normalized, _, err := transform.String(asciiOnly, name)
	if err != nil {
		normalized = ""
	}

	for _, sep := range []string{"/", "\\"} {
		normalized = strings.ReplaceAll(normalized, sep, " ")
	}
	joined := strings.Join(strings.Fields(normalized), "_")
	return strings.Trim(filenameStripRegexp.ReplaceAllString(joined, ""), "._")
}

// TruncateFilename shortens name to at most max bytes, keeping the
// extension when there is room for it.
func TruncateFilename(name string, max int) string {
	if len(name) <= max {
		return name
	}
	ext := path.Ext(name)
	if len(ext) >= max {
		return name[:max]
	}
	return name[:max-len(ext)] + ext
}
