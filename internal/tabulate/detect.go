package tabulate

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DefaultKeywords matches the signup form's category question. Matching
// is accent-insensitive, so one spelling covers both "paróquia" and
// "paroquia" headers.
var DefaultKeywords = []string{"paroquia", "cidade", "qual sua"}

// DefaultFallbackColumn is the position of the category question on the
// standard signup form, used when no header matches a keyword.
const DefaultFallbackColumn = 4

// Detector picks the category column out of a header row.
type Detector interface {
	Detect(header []string) (int, bool)
}

// KeywordDetector selects the first header containing any of its
// keywords, compared case- and accent-insensitively. When no header
// matches, it falls back to a fixed position, provided the row is wide
// enough to have one. A negative Fallback disables the fallback.
type KeywordDetector struct {
	Keywords []string
	Fallback int
}

// NewKeywordDetector returns a detector over the given keywords, or
// DefaultKeywords when none are given, with the standard positional
// fallback.
func NewKeywordDetector(keywords ...string) *KeywordDetector {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	return &KeywordDetector{Keywords: keywords, Fallback: DefaultFallbackColumn}
}

// Detect returns the index of the category column and whether one was
// found. Headers are scanned left to right; the first keyword hit wins.
func (d *KeywordDetector) Detect(header []string) (int, bool) {
	for i, cell := range header {
		folded := fold(cell)
		if folded == "" {
			continue
		}
		for _, keyword := range d.Keywords {
			if kw := fold(keyword); kw != "" && strings.Contains(folded, kw) {
				return i, true
			}
		}
	}
	if d.Fallback >= 0 && len(header) > d.Fallback {
		return d.Fallback, true
	}
	return 0, false
}

// Matches runs of whitespace.
var whitespaceRun = regexp.MustCompile(`\s+`)

// fold lowercases s and strips accents so "Paróquia" and "PAROQUIA"
// compare equal. Whitespace runs collapse to a single space.
func fold(s string) string {
	// Normalize unicode (decompose accented characters).
	s = norm.NFKD.String(s)

	// Remove non-ASCII characters.
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = whitespaceRun.ReplaceAllString(s, " ")

	return strings.TrimSpace(s)
}
