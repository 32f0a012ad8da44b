package extractor

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conspectus/internal/domain"
)

const infostartArticleHTML = `<!DOCTYPE html>
<html><body>
<h1 class="main-title">Обмен данными в 1С</h1>
<a href="/profile/users/4242/">expert_1c</a>
<div class="kurs-spoiler">
  <p>Основной текст публикации.</p>
  <p>&gt;</p>
  <iframe src="x"></iframe>
  <nav>хлебные крошки</nav>
  <div class="comments"><p>первый комментарий</p></div>
  <p>Вторая часть текста.</p>
</div>
</body></html>`

func TestInfostartExtract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(infostartArticleHTML))
	}))
	defer server.Close()

	e := NewInfostartExtractor(server.Client(), slog.Default())

	article, err := e.Extract(context.Background(), server.URL+"/1c/articles/123456/")
	require.NoError(t, err)

	assert.Equal(t, domain.SourceInfostart, article.Source)
	assert.Equal(t, "Обмен данными в 1С", article.Title)
	assert.Equal(t, "expert_1c", article.Author)
	assert.Contains(t, article.Content, "Основной текст публикации.")
	assert.Contains(t, article.Content, "Вторая часть текста.")
	assert.NotContains(t, article.Content, "комментарий")
	assert.NotContains(t, article.Content, "хлебные крошки")
	assert.NotContains(t, article.Content, ">")
}

func TestInfostartExtractContentFallbackChain(t *testing.T) {
	html := `<html><body>
	<h1 class="main-title">Заголовок</h1>
	<div class="public-text-wrapper"><p>Текст из резервного блока.</p></div>
	</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(html))
	}))
	defer server.Close()

	e := NewInfostartExtractor(server.Client(), slog.Default())

	article, err := e.Extract(context.Background(), server.URL+"/public/886103/")
	require.NoError(t, err)
	assert.Contains(t, article.Content, "Текст из резервного блока.")
}

func TestInfostartExtractNoContentNode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h1 class="main-title">Пусто</h1></body></html>`))
	}))
	defer server.Close()

	e := NewInfostartExtractor(server.Client(), slog.Default())

	article, err := e.Extract(context.Background(), server.URL+"/public/1/")
	require.NoError(t, err)
	assert.Empty(t, article.Content)
	assert.Equal(t, "Пусто", article.Title)
}
