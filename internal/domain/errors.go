package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the article store.
var (
	// ErrNotFound indicates that no record exists for the requested URL.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey indicates that a record for the URL already exists.
	// The unique constraint on the URL column is the sole mechanism that
	// keeps concurrent inserts from both succeeding.
	ErrDuplicateKey = errors.New("record already exists")
)

// ExtractReason classifies an extraction failure.
type ExtractReason string

const (
	ExtractNetwork           ExtractReason = "network"
	ExtractParse             ExtractReason = "parse"
	ExtractEmptyContent      ExtractReason = "empty_content"
	ExtractUnsupportedSource ExtractReason = "unsupported_source"
)

// ExtractionError is a structured extraction failure. Unsupported domains
// produce it before any network call is made.
type ExtractionError struct {
	Reason ExtractReason
	URL    string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s (%s): %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("extract %s (%s)", e.URL, e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ProviderErrorKind classifies a summarization backend failure.
type ProviderErrorKind string

const (
	ProviderUnavailable   ProviderErrorKind = "unavailable"
	ProviderAuthMissing   ProviderErrorKind = "auth_missing"
	ProviderTimeout       ProviderErrorKind = "timeout"
	ProviderUpstreamError ProviderErrorKind = "upstream_error"
	ProviderRateLimited   ProviderErrorKind = "rate_limited"
)

// ProviderError is a structured model-provider failure. Providers never
// retry internally; retry policy belongs to the caller.
type ProviderError struct {
	Kind  ProviderErrorKind
	Model string
	Err   error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s (%s): %v", e.Model, e.Kind, e.Err)
	}
	return fmt.Sprintf("provider %s (%s)", e.Model, e.Kind)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Stage names a pipeline phase for failure reporting.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageSummarize Stage = "summarize"
	StagePersist   Stage = "persist"
)

// PipelineError is the only error type that crosses the pipeline boundary.
// Callers branch on Stage and the wrapped cause, never on panics.
type PipelineError struct {
	Stage Stage
	Cause error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline stage %s: %v", e.Stage, e.Cause)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}
