package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conspectus/internal/domain"
)

func githubRepoHTML() string {
	return `<!DOCTYPE html>
<html><body>
<p class="f4">A widget factory for the modern age</p>
<a href="/acme/widgets/stargazers">1.2k stars</a>
<span itemprop="programmingLanguage">Go</span>
<article class="markdown-body"><p>Fallback readme text.</p></article>
</body></html>`
}

func newGithubTestServer(t *testing.T, docsStatus int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/acme/widgets", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(githubRepoHTML()))
	})
	mux.HandleFunc("/repos/acme/widgets/contents", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `[
			{"name": "README.md", "path": "README.md", "type": "file", "download_url": "%s/files/readme"},
			{"name": "ARCHITECTURE.md", "path": "ARCHITECTURE.md", "type": "file", "download_url": "%s/files/arch"},
			{"name": "main.go", "path": "main.go", "type": "file", "download_url": "%s/files/main"},
			{"name": "docs", "path": "docs", "type": "dir", "download_url": ""}
		]`, server.URL, server.URL, server.URL)
	})
	mux.HandleFunc("/repos/acme/widgets/contents/docs", func(w http.ResponseWriter, _ *http.Request) {
		if docsStatus != http.StatusOK {
			w.WriteHeader(docsStatus)
			return
		}
		fmt.Fprintf(w, `[
			{"name": "guide.md", "path": "docs/guide.md", "type": "file", "download_url": "%s/files/guide"}
		]`, server.URL)
	})
	mux.HandleFunc("/files/readme", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# Widgets\nThe readme body."))
	})
	mux.HandleFunc("/files/arch", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# Architecture\nLayered design."))
	})
	mux.HandleFunc("/files/guide", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# Guide\nUsage guide."))
	})

	server = httptest.NewServer(mux)
	return server
}

func newGithubTestExtractor(server *httptest.Server) *GitHubExtractor {
	e := NewGitHubExtractor(server.Client(), slog.Default())
	e.htmlBase = server.URL
	e.apiBase = server.URL
	return e
}

func TestGithubExtractAggregatesMarkdownFiles(t *testing.T) {
	server := newGithubTestServer(t, http.StatusOK)
	defer server.Close()

	e := newGithubTestExtractor(server)

	article, err := e.Extract(context.Background(), "https://github.com/acme/widgets")
	require.NoError(t, err)

	assert.Equal(t, domain.SourceGitHub, article.Source)
	assert.Equal(t, "acme/widgets", article.Title)
	assert.Equal(t, "acme", article.Author)
	assert.Equal(t, "A widget factory for the modern age", article.Description)
	assert.Equal(t, "1.2k", article.Stars)
	assert.Equal(t, "Go", article.Language)

	assert.Equal(t, []string{"README.md", "ARCHITECTURE.md", "docs/guide.md"}, article.Files)
	assert.Contains(t, article.Content, "The readme body.")
	assert.Contains(t, article.Content, "Layered design.")
	assert.Contains(t, article.Content, "Usage guide.")
	assert.Contains(t, article.Content, "FILE: README.md")
	assert.NotContains(t, article.Content, "main.go")
}

func TestGithubExtractMissingDocsDirIsFine(t *testing.T) {
	server := newGithubTestServer(t, http.StatusNotFound)
	defer server.Close()

	e := newGithubTestExtractor(server)

	article, err := e.Extract(context.Background(), "https://github.com/acme/widgets/issues/5")
	require.NoError(t, err)

	// Deep links collapse to the canonical repository URL.
	assert.Equal(t, server.URL+"/acme/widgets", article.URL)
	assert.Equal(t, []string{"README.md", "ARCHITECTURE.md"}, article.Files)
}

func TestGithubExtractAPIDownFallsBackToHTML(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/acme/widgets", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(githubRepoHTML()))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	e := newGithubTestExtractor(server)

	article, err := e.Extract(context.Background(), "https://github.com/acme/widgets")
	require.NoError(t, err)

	assert.Contains(t, article.Content, "Fallback readme text.")
	assert.Equal(t, []string{"README.md"}, article.Files)
}

func TestGithubExtractMalformedURL(t *testing.T) {
	e := NewGitHubExtractor(nil, slog.Default())

	_, err := e.Extract(context.Background(), "https://github.com/onlyowner")
	require.Error(t, err)

	var extractErr *domain.ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, domain.ExtractParse, extractErr.Reason)
}
