package extractor

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conspectus/internal/domain"
)

type staticExtractor struct {
	source domain.Source
}

func (s *staticExtractor) Source() domain.Source {
	return s.source
}

func (s *staticExtractor) Extract(_ context.Context, rawURL string) (*domain.Article, error) {
	return &domain.Article{URL: rawURL, Source: s.source}, nil
}

func newTestRouter() *Router {
	r := NewRouter(slog.Default())
	r.Register([]string{"habr.com"}, &staticExtractor{source: domain.SourceHabr})
	r.Register([]string{"github.com"}, &staticExtractor{source: domain.SourceGitHub})
	r.Register([]string{"infostart.ru"}, &staticExtractor{source: domain.SourceInfostart})
	return r
}

func TestRouterClassify(t *testing.T) {
	r := newTestRouter()

	tests := []struct {
		url       string
		source    domain.Source
		supported bool
	}{
		{"https://habr.com/ru/articles/984968/", domain.SourceHabr, true},
		{"https://github.com/acme/widgets", domain.SourceGitHub, true},
		{"https://infostart.ru/1c/articles/123456/", domain.SourceInfostart, true},
		{"https://infostart.ru/public/886103/", domain.SourceInfostart, true},
		{"https://www.habr.com/ru/articles/1/", domain.SourceHabr, true},
		{"https://example.com/x", "", false},
		{"https://habr.com.evil.example/x", "", false},
		{"not a url", "", false},
	}

	for _, tt := range tests {
		source, ok := r.Classify(tt.url)
		assert.Equal(t, tt.supported, ok, tt.url)
		assert.Equal(t, tt.source, source, tt.url)
	}
}

func TestRouterExtractUnsupportedShortCircuits(t *testing.T) {
	r := newTestRouter()

	_, err := r.Extract(context.Background(), "https://example.com/x")
	require.Error(t, err)

	var extractErr *domain.ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, domain.ExtractUnsupportedSource, extractErr.Reason)
}

func TestRouterExtractDispatches(t *testing.T) {
	r := newTestRouter()

	article, err := r.Extract(context.Background(), "  https://habr.com/ru/articles/984968/ ")
	require.NoError(t, err)
	assert.Equal(t, domain.SourceHabr, article.Source)
	assert.Equal(t, "https://habr.com/ru/articles/984968/", article.URL)
}
