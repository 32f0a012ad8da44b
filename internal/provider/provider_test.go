package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conspectus/internal/domain"
)

type stubSummarizer struct {
	summary string
}

func (s *stubSummarizer) Summarize(
	_ context.Context,
	_ *domain.Article,
	_ domain.ModelSpec,
) (string, error) {
	return s.summary, nil
}

func (s *stubSummarizer) CheckAvailability(_ context.Context, _ domain.ModelSpec) error {
	return nil
}

func newTestRegistry() *Registry {
	registry := NewRegistry("gemma3:12b")
	registry.Register(
		domain.ModelSpec{Name: "gemma3:12b", Provider: domain.ProviderLocal},
		&stubSummarizer{summary: "local"},
	)
	registry.Register(
		domain.ModelSpec{Name: "gpt-3.5-turbo", Provider: domain.ProviderCloud},
		&stubSummarizer{summary: "cloud"},
	)
	registry.Register(
		domain.ModelSpec{Name: "gpt-4", Provider: domain.ProviderCloud},
		&stubSummarizer{summary: "cloud"},
	)
	return registry
}

func TestRegistryResolve(t *testing.T) {
	registry := newTestRegistry()

	spec, impl, err := registry.Resolve("gemma3:12b")
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderLocal, spec.Provider)
	require.NotNil(t, impl)

	spec, _, err = registry.Resolve("gpt-4")
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderCloud, spec.Provider)
}

func TestRegistryResolveUnknownModel(t *testing.T) {
	registry := newTestRegistry()

	_, _, err := registry.Resolve("mistral:7b")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestRegistryResolveDefault(t *testing.T) {
	registry := newTestRegistry()

	spec, _, err := registry.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "gemma3:12b", spec.Name)
	assert.Equal(t, domain.ProviderLocal, spec.Provider)
}

func TestRegistryModelsSorted(t *testing.T) {
	registry := newTestRegistry()

	specs := registry.Models()
	require.Len(t, specs, 3)
	assert.Equal(t, "gemma3:12b", specs[0].Name)
	assert.Equal(t, "gpt-3.5-turbo", specs[1].Name)
	assert.Equal(t, "gpt-4", specs[2].Name)
}

func TestBuildPromptPerSource(t *testing.T) {
	habr := &domain.Article{
		Source:        domain.SourceHabr,
		Title:         "Заголовок",
		Author:        "автор",
		PublishedDate: "12 мая 2025",
		Content:       "текст статьи",
	}

	system, user, err := BuildPrompt(habr)
	require.NoError(t, err)
	assert.Contains(t, system, "фильтр статей")
	assert.Contains(t, user, "ЗАГОЛОВОК: Заголовок")
	assert.Contains(t, user, "текст статьи")

	github := &domain.Article{
		Source:      domain.SourceGitHub,
		Title:       "acme/widgets",
		Author:      "acme",
		Description: "Widget toolkit",
		Stars:       "1.2k",
		Language:    "Go",
		Content:     "readme",
	}

	system, user, err = BuildPrompt(github)
	require.NoError(t, err)
	assert.Contains(t, system, "open-source")
	assert.Contains(t, user, "ЗВЁЗДЫ: 1.2k")
	assert.Contains(t, user, "ЯЗЫК: Go")

	infostart := &domain.Article{
		Source:  domain.SourceInfostart,
		Title:   "Обмен данными",
		Content: "текст публикации",
	}

	system, user, err = BuildPrompt(infostart)
	require.NoError(t, err)
	assert.Contains(t, system, "1С")
	assert.Contains(t, user, "текст публикации")
}

func TestBuildPromptDeterministic(t *testing.T) {
	article := &domain.Article{
		Source:  domain.SourceHabr,
		Title:   "Заголовок",
		Content: "текст",
	}

	system1, user1, err := BuildPrompt(article)
	require.NoError(t, err)
	system2, user2, err := BuildPrompt(article)
	require.NoError(t, err)

	assert.Equal(t, system1, system2)
	assert.Equal(t, user1, user2)
}

func TestBuildPromptFillsDefaults(t *testing.T) {
	article := &domain.Article{
		Source: domain.SourceGitHub,
		Title:  "acme/widgets",
	}

	_, user, err := BuildPrompt(article)
	require.NoError(t, err)
	assert.Contains(t, user, "ОПИСАНИЕ: Нет описания")
	assert.Contains(t, user, "ЗВЁЗДЫ: 0")
	assert.Contains(t, user, "README отсутствует")
}

func TestBuildPromptUnknownSource(t *testing.T) {
	_, _, err := BuildPrompt(&domain.Article{Source: domain.Source("medium")})
	assert.Error(t, err)
}
