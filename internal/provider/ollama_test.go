package provider

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conspectus/internal/domain"
)

var gemmaSpec = domain.ModelSpec{Name: "gemma3:12b", Provider: domain.ProviderLocal}

func habrTestArticle() *domain.Article {
	return &domain.Article{
		URL:     "https://habr.com/ru/articles/1/",
		Source:  domain.SourceHabr,
		Title:   "Заголовок",
		Content: "текст статьи",
	}
}

func TestOllamaSummarize(t *testing.T) {
	var gotReq ollamaChatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "  конспект статьи  "},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL, slog.Default())

	summary, err := p.Summarize(context.Background(), habrTestArticle(), gemmaSpec)
	require.NoError(t, err)
	assert.Equal(t, "конспект статьи", summary)

	assert.Equal(t, "gemma3:12b", gotReq.Model)
	assert.False(t, gotReq.Stream)
	assert.InDelta(t, 0.3, gotReq.Options.Temperature, 0.001)
	assert.Equal(t, 1000, gotReq.Options.NumPredict)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
}

func TestOllamaSummarizeServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	p := NewOllamaProvider(server.URL, slog.Default())

	_, err := p.Summarize(context.Background(), habrTestArticle(), gemmaSpec)

	var provErr *domain.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, domain.ProviderUnavailable, provErr.Kind)
	assert.Equal(t, "gemma3:12b", provErr.Model)
}

func TestOllamaSummarizeUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model runner crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL, slog.Default())

	_, err := p.Summarize(context.Background(), habrTestArticle(), gemmaSpec)

	var provErr *domain.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, domain.ProviderUpstreamError, provErr.Kind)
}

func TestOllamaSummarizeTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL, slog.Default())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.Summarize(ctx, habrTestArticle(), gemmaSpec)

	var provErr *domain.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, domain.ProviderTimeout, provErr.Kind)
}

func TestOllamaCheckAvailability(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		_, err := w.Write([]byte(`{"models":[{"name":"gemma3:12b"},{"name":"llama3:8b"}]}`))
		require.NoError(t, err)
	}))
	defer server.Close()

	p := NewOllamaProvider(server.URL, slog.Default())

	assert.NoError(t, p.CheckAvailability(context.Background(), gemmaSpec))

	err := p.CheckAvailability(
		context.Background(),
		domain.ModelSpec{Name: "mistral:7b", Provider: domain.ProviderLocal},
	)

	var provErr *domain.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, domain.ProviderUnavailable, provErr.Kind)
}
