package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"conspectus/internal/domain"
)

const (
	fetchTimeout = 10 * time.Second
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	maxResponseBytes = 10 << 20
)

// NewHTTPClient returns the client used for all source fetches. No retries
// at this layer.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: fetchTimeout}
}

type fetcher struct {
	client *http.Client
}

// statusError preserves the HTTP status code so callers can treat some
// codes (a missing docs/ directory, say) as non-fatal.
type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.status)
}

func isStatus(err error, code int) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == code
}

func newFetcher(client *http.Client) *fetcher {
	if client == nil {
		client = NewHTTPClient()
	}
	return &fetcher{client: client}
}

// get downloads a document body. Timeouts and non-2xx statuses come back as
// network extraction errors.
func (f *fetcher) get(ctx context.Context, pageURL string, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &domain.ExtractionError{
			Reason: domain.ExtractNetwork,
			URL:    pageURL,
			Err:    fmt.Errorf("build request: %w", err),
		}
	}
	req.Header.Set("User-Agent", userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		reason := domain.ExtractNetwork
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("no response within %s", fetchTimeout)
		}
		return nil, &domain.ExtractionError{
			Reason: reason,
			URL:    pageURL,
			Err:    err,
		}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.ExtractionError{
			Reason: domain.ExtractNetwork,
			URL:    pageURL,
			Err:    &statusError{code: resp.StatusCode, status: resp.Status},
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &domain.ExtractionError{
			Reason: domain.ExtractNetwork,
			URL:    pageURL,
			Err:    fmt.Errorf("read body: %w", err),
		}
	}

	return body, nil
}

// document fetches a page and parses it into a goquery document. The raw
// bytes are returned as well so callers can run fallback parsers on them.
func (f *fetcher) document(ctx context.Context, pageURL string) (*goquery.Document, []byte, error) {
	body, err := f.get(ctx, pageURL, "")
	if err != nil {
		return nil, nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, nil, &domain.ExtractionError{
			Reason: domain.ExtractParse,
			URL:    pageURL,
			Err:    fmt.Errorf("parse document: %w", err),
		}
	}

	return doc, body, nil
}
