package store

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conspectus/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(
		context.Background(),
		filepath.Join(t.TempDir(), "test.sqlite"),
		slog.Default(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})

	return s
}

func testArticle(url string) *domain.Article {
	return &domain.Article{
		URL:           url,
		Source:        domain.SourceHabr,
		Title:         "Тестовая статья",
		Author:        "author",
		PublishedDate: "12 мая 2025",
		Content:       "Содержимое статьи.",
		ContentLength: 18,
	}
}

func TestStoreInsertAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID := int64(42)

	exists, err := s.Exists(ctx, "https://habr.com/ru/articles/1/")
	require.NoError(t, err)
	assert.False(t, exists)

	record, err := s.Insert(ctx, testArticle("https://habr.com/ru/articles/1/"), "конспект", "gemma3:12b", &userID)
	require.NoError(t, err)

	assert.Equal(t, "https://habr.com/ru/articles/1/", record.URL)
	assert.Equal(t, domain.SourceHabr, record.Source)
	assert.Equal(t, "конспект", record.Summary)
	assert.Equal(t, "gemma3:12b", record.ModelUsed)
	require.NotNil(t, record.RequestedBy)
	assert.Equal(t, userID, *record.RequestedBy)
	assert.False(t, record.ProcessedAt.IsZero())

	exists, err = s.Exists(ctx, "https://habr.com/ru/articles/1/")
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := s.Get(ctx, "https://habr.com/ru/articles/1/")
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, record.Summary, got.Summary)
}

func TestStoreGetByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	record, err := s.Insert(ctx, testArticle("https://habr.com/ru/articles/5/"), "конспект", "gemma3:12b", nil)
	require.NoError(t, err)

	got, err := s.GetByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.URL, got.URL)

	_, err = s.GetByID(ctx, record.ID+1000)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreGetNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "https://habr.com/ru/articles/404/")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreInsertDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, testArticle("https://habr.com/ru/articles/2/"), "первый", "gemma3:12b", nil)
	require.NoError(t, err)

	_, err = s.Insert(ctx, testArticle("https://habr.com/ru/articles/2/"), "второй", "gpt-4", nil)
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)

	// The first write survives.
	got, err := s.Get(ctx, "https://habr.com/ru/articles/2/")
	require.NoError(t, err)
	assert.Equal(t, "первый", got.Summary)
}

func TestStoreConcurrentInsertsSingleWinner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const goroutines = 8

	var wg sync.WaitGroup
	errs := make([]error, goroutines)

	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.Insert(ctx, testArticle("https://habr.com/ru/articles/3/"), "конспект", "gemma3:12b", nil)
		}()
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	}

	assert.Equal(t, 1, winners)
}

func TestStoreUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inserted, err := s.Insert(ctx, testArticle("https://habr.com/ru/articles/4/"), "старый конспект", "gemma3:12b", nil)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	updated, err := s.Update(ctx, "https://habr.com/ru/articles/4/", "новый конспект", "gpt-4")
	require.NoError(t, err)

	assert.Equal(t, inserted.ID, updated.ID)
	assert.Equal(t, inserted.URL, updated.URL)
	assert.Equal(t, inserted.Title, updated.Title)
	assert.Equal(t, "новый конспект", updated.Summary)
	assert.Equal(t, "gpt-4", updated.ModelUsed)
	assert.True(t, updated.ProcessedAt.After(inserted.ProcessedAt))
}

func TestStoreUpdateNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Update(context.Background(), "https://habr.com/ru/articles/404/", "summary", "gpt-4")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreListByRequester(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := int64(1)
	bob := int64(2)

	_, err := s.Insert(ctx, testArticle("https://habr.com/ru/articles/10/"), "a", "gemma3:12b", &alice)
	require.NoError(t, err)
	_, err = s.Insert(ctx, testArticle("https://habr.com/ru/articles/11/"), "b", "gemma3:12b", &bob)
	require.NoError(t, err)
	_, err = s.Insert(ctx, testArticle("https://habr.com/ru/articles/12/"), "c", "gemma3:12b", &alice)
	require.NoError(t, err)

	records, err := s.ListByRequester(ctx, alice, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	for _, r := range records {
		require.NotNil(t, r.RequestedBy)
		assert.Equal(t, alice, *r.RequestedBy)
	}
}

func TestStoreListProcessedSince(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, testArticle("https://habr.com/ru/articles/20/"), "a", "gemma3:12b", nil)
	require.NoError(t, err)

	records, err := s.ListProcessedSince(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, records, 1)

	records, err = s.ListProcessedSince(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, records)
}
