package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"conspectus/internal/domain"
)

// Extractor is a source-specific extraction strategy. Implementations fetch
// the raw document, parse title, author, date and main content, and fill
// source-specific extras. A parse step that finds nothing still yields an
// article with empty fields; only network and document-level failures are
// errors.
type Extractor interface {
	Source() domain.Source
	Extract(ctx context.Context, rawURL string) (*domain.Article, error)
}

// Router classifies URLs by domain and dispatches to the registered
// strategy. Adding a source is registering one entry, not editing a
// conditional chain.
type Router struct {
	byDomain map[string]Extractor
	log      *slog.Logger
}

func NewRouter(log *slog.Logger) *Router {
	return &Router{
		byDomain: make(map[string]Extractor),
		log:      log,
	}
}

// Register binds domain patterns to a strategy. A pattern matches the host
// itself and any of its subdomains.
func (r *Router) Register(domains []string, ex Extractor) {
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		r.byDomain[d] = ex
	}
}

// Classify resolves a URL to a source without touching the network.
func (r *Router) Classify(rawURL string) (domain.Source, bool) {
	ex := r.resolve(rawURL)
	if ex == nil {
		return "", false
	}
	return ex.Source(), true
}

// Extract routes the URL to its strategy. Unsupported domains short-circuit
// before any network call.
func (r *Router) Extract(ctx context.Context, rawURL string) (*domain.Article, error) {
	rawURL = strings.TrimSpace(rawURL)

	ex := r.resolve(rawURL)
	if ex == nil {
		return nil, &domain.ExtractionError{
			Reason: domain.ExtractUnsupportedSource,
			URL:    rawURL,
			Err:    fmt.Errorf("no strategy for URL"),
		}
	}

	article, err := ex.Extract(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	r.log.InfoContext(ctx, "Article is extracted",
		"url", article.URL,
		"source", article.Source,
		"title", article.Title,
		"contentLength", article.ContentLength)

	return article, nil
}

func (r *Router) resolve(rawURL string) Extractor {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Host == "" {
		return nil
	}

	host := strings.ToLower(parsed.Hostname())
	for d, ex := range r.byDomain {
		if host == d || strings.HasSuffix(host, "."+d) {
			return ex
		}
	}

	return nil
}
