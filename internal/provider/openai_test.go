package provider

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conspectus/internal/domain"
)

func TestOpenAIMissingKey(t *testing.T) {
	p := NewOpenAIProvider("", slog.Default())

	spec := domain.ModelSpec{Name: "gpt-4", Provider: domain.ProviderCloud}

	_, err := p.Summarize(context.Background(), habrTestArticle(), spec)

	var provErr *domain.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, domain.ProviderAuthMissing, provErr.Kind)
	assert.Equal(t, "gpt-4", provErr.Model)

	err = p.CheckAvailability(context.Background(), spec)
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, domain.ProviderAuthMissing, provErr.Kind)
}
