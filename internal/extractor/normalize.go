package extractor

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"conspectus/internal/domain"
)

const (
	// How far back from the cap a sentence or paragraph boundary may sit
	// and still be preferred over a hard cut.
	boundaryLookback = 200

	truncationMarker = "..."
)

var multiBlankLineRe = regexp.MustCompile(`\n{3,}`)

// Normalize trims and caps extracted text to max characters. When the text
// exceeds the cap, the cut prefers the nearest sentence or paragraph
// boundary within the lookback window; otherwise it cuts hard. Same input
// and cap always yield the same output.
func Normalize(text string, max int) string {
	text = strings.TrimSpace(text)
	text = multiBlankLineRe.ReplaceAllString(text, "\n\n")

	runes := []rune(text)
	if len(runes) <= max {
		return text
	}

	// The marker counts against the cap so the invariant stays intact.
	cut := max - len(truncationMarker)
	if boundary := lastBoundary(runes[:cut]); boundary > 0 && boundary >= cut-boundaryLookback {
		cut = boundary
	}

	return strings.TrimSpace(string(runes[:cut])) + truncationMarker
}

// lastBoundary returns the index just past the last sentence or paragraph
// boundary, or -1 when there is none.
func lastBoundary(runes []rune) int {
	for i := len(runes) - 1; i > 0; i-- {
		switch runes[i] {
		case '\n':
			return i
		case ' ':
			switch runes[i-1] {
			case '.', '!', '?':
				return i
			}
		}
	}
	return -1
}

// NormalizeArticle returns a copy of the article with content capped to the
// source limit and the length invariant restored.
func NormalizeArticle(a domain.Article) domain.Article {
	normalized := a
	normalized.Content = Normalize(a.Content, a.Source.ContentCap())
	normalized.ContentLength = utf8.RuneCountInString(normalized.Content)
	return normalized
}
