package domain

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies where an article came from. Every source has its own
// extraction strategy, content cap and prompt template.
type Source string

const (
	SourceHabr      Source = "habr"
	SourceGitHub    Source = "github"
	SourceInfostart Source = "infostart"
)

const (
	articleContentCap = 8000
	// GitHub content is aggregated from several markdown files, so its
	// cap is doubled.
	githubContentCap = 2 * articleContentCap
)

// ParseSource validates a raw source string.
func ParseSource(raw string) (Source, error) {
	s := Source(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case SourceHabr, SourceGitHub, SourceInfostart:
		return s, nil
	default:
		return "", fmt.Errorf("unknown source: %q", raw)
	}
}

// ContentCap returns the maximum content length in characters for the source.
func (s Source) ContentCap() int {
	if s == SourceGitHub {
		return githubContentCap
	}
	return articleContentCap
}

// Article is an extracted content snapshot. It is created by the extractor
// router, never mutated afterwards, and discarded after summarization unless
// persisted as a SummaryRecord.
type Article struct {
	URL           string
	Source        Source
	Title         string
	Author        string
	PublishedDate string
	Content       string
	ContentLength int

	// GitHub-only extras.
	Description string
	Stars       string
	Language    string
	Files       []string
}

// SummaryRecord is the persisted outcome of a pipeline run. Exactly one
// record exists per URL.
type SummaryRecord struct {
	ID            int64
	URL           string
	Source        Source
	Title         string
	Author        string
	PublishedDate string
	Content       string
	Summary       string
	ModelUsed     string
	RequestedBy   *int64
	ProcessedAt   time.Time

	Description string
	Stars       string
	Language    string
}

// ProviderKind is an inference backend category.
type ProviderKind string

const (
	ProviderLocal ProviderKind = "local"
	ProviderCloud ProviderKind = "cloud"
)

// ModelSpec identifies a summarization backend. Every model name maps to
// exactly one provider kind.
type ModelSpec struct {
	Name     string
	Provider ProviderKind
}
