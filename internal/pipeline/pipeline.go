// Package pipeline orchestrates the URL-to-summary flow: cache check,
// extraction, normalization, generation, persistence. Every failure leaves
// the system exactly as it was; a record appears only after a summary has
// been generated.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"conspectus/internal/domain"
	"conspectus/internal/extractor"
	"conspectus/internal/provider"
)

// Extractor turns a URL into an article. *extractor.Router satisfies it.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (*domain.Article, error)
}

// Store is the slice of the article store the pipeline needs.
type Store interface {
	Get(ctx context.Context, url string) (*domain.SummaryRecord, error)
	Insert(ctx context.Context, article *domain.Article, summary, model string, requestedBy *int64) (*domain.SummaryRecord, error)
	Update(ctx context.Context, url, summary, model string) (*domain.SummaryRecord, error)
}

// Request describes one processing run.
type Request struct {
	URL   string
	Model string

	// RequestedBy attributes the run to a chat user; nil for CLI and
	// scheduled runs.
	RequestedBy *int64

	// Regenerate skips the cache check and replaces the stored summary,
	// keeping the extracted article fields.
	Regenerate bool
}

// Result is the outcome of a successful run. CacheHit and Regenerated are
// mutually exclusive.
type Result struct {
	Record      *domain.SummaryRecord
	CacheHit    bool
	Regenerated bool
}

type Pipeline struct {
	extractor Extractor
	registry  *provider.Registry
	store     Store
	sink      *ArtifactSink
	log       *slog.Logger
}

// New builds a pipeline. The sink may be nil to disable file artifacts.
func New(
	ex Extractor,
	registry *provider.Registry,
	st Store,
	sink *ArtifactSink,
	log *slog.Logger,
) *Pipeline {
	return &Pipeline{
		extractor: ex,
		registry:  registry,
		store:     st,
		sink:      sink,
		log:       log,
	}
}

// Process runs the pipeline for one URL. Any returned error is a
// *domain.PipelineError naming the stage that failed.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	log := p.log.With(
		"requestID", uuid.NewString(),
		"url", req.URL)

	if !req.Regenerate {
		record, err := p.store.Get(ctx, req.URL)
		if err == nil {
			log.InfoContext(ctx, "Cache hit",
				"model", record.ModelUsed)
			cacheHitsTotal.Inc()

			return &Result{Record: record, CacheHit: true}, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, p.fail(ctx, log, domain.StagePersist, fmt.Errorf("check cache: %w", err))
		}
	}

	// Model resolution comes before extraction: a misconfigured model must
	// not cost a network round trip.
	spec, summarizer, err := p.registry.Resolve(req.Model)
	if err != nil {
		return nil, p.fail(ctx, log, domain.StageSummarize, err)
	}

	start := time.Now()

	article, err := p.extractor.Extract(ctx, req.URL)
	if err != nil {
		return nil, p.fail(ctx, log, domain.StageExtract, err)
	}

	normalized := extractor.NormalizeArticle(*article)
	if normalized.Content == "" {
		return nil, p.fail(ctx, log, domain.StageExtract, &domain.ExtractionError{
			Reason: domain.ExtractEmptyContent,
			URL:    req.URL,
		})
	}

	// The extraction snapshot is written before the model call so it can
	// be inspected even when summarization fails.
	if p.sink != nil {
		if err := p.sink.Write(ctx, &normalized); err != nil {
			log.WarnContext(ctx, "Failed to write artifact",
				"error", err)
		}
	}

	summary, err := summarizer.Summarize(ctx, &normalized, spec)
	if err != nil {
		return nil, p.fail(ctx, log, domain.StageSummarize, err)
	}

	result, err := p.persist(ctx, log, req, &normalized, summary, spec.Name)
	if err != nil {
		return nil, err
	}

	articlesProcessedTotal.WithLabelValues(string(normalized.Source), spec.Name).Inc()
	processingDuration.WithLabelValues(string(normalized.Source)).Observe(time.Since(start).Seconds())

	log.InfoContext(ctx, "Processed article",
		"source", normalized.Source,
		"model", spec.Name,
		"contentLength", normalized.ContentLength,
		"regenerated", result.Regenerated,
		"duration", time.Since(start).String())

	return result, nil
}

func (p *Pipeline) persist(
	ctx context.Context,
	log *slog.Logger,
	req Request,
	article *domain.Article,
	summary string,
	model string,
) (*Result, error) {
	if req.Regenerate {
		record, err := p.store.Update(ctx, req.URL, summary, model)
		if err == nil {
			return &Result{Record: record, Regenerated: true}, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, p.fail(ctx, log, domain.StagePersist, err)
		}
		// Nothing stored to refresh; fall through to a plain insert.
	}

	record, err := p.store.Insert(ctx, article, summary, model, req.RequestedBy)
	if err == nil {
		return &Result{Record: record}, nil
	}

	// Lost the insert race: a concurrent run stored this URL first. Its
	// record is the answer, and the generated summary is discarded.
	if errors.Is(err, domain.ErrDuplicateKey) {
		log.InfoContext(ctx, "Concurrent run stored this URL first")

		record, err := p.store.Get(ctx, req.URL)
		if err != nil {
			return nil, p.fail(ctx, log, domain.StagePersist, err)
		}

		cacheHitsTotal.Inc()

		return &Result{Record: record, CacheHit: true}, nil
	}

	return nil, p.fail(ctx, log, domain.StagePersist, err)
}

func (p *Pipeline) fail(
	ctx context.Context,
	log *slog.Logger,
	stage domain.Stage,
	cause error,
) error {
	log.ErrorContext(ctx, "Pipeline stage failed",
		"stage", stage,
		"error", cause)
	failuresTotal.WithLabelValues(string(stage)).Inc()

	return &domain.PipelineError{Stage: stage, Cause: cause}
}
