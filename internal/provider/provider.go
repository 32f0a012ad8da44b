// Package provider abstracts summary generation over local and cloud
// inference backends. Providers never retry on their own; the pipeline owns
// retry policy.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"conspectus/internal/domain"
)

// Generation parameters are fixed at design level: deterministic-leaning
// output, bounded length.
const (
	generationTemperature = 0.3
	generationMaxTokens   = 1000
)

// ErrUnknownModel is a configuration error: the model name maps to no
// registered provider.
var ErrUnknownModel = errors.New("unknown model")

// Summarizer generates a summary for an extracted article with a
// source-aware prompt.
type Summarizer interface {
	Summarize(ctx context.Context, article *domain.Article, model domain.ModelSpec) (string, error)

	// CheckAvailability is an advisory probe used to fail fast with a clear
	// message instead of after a slow network call. A nil result does not
	// guarantee the real call will succeed.
	CheckAvailability(ctx context.Context, model domain.ModelSpec) error
}

// Registry maps model names to provider implementations. Adding a backend
// is registering one entry, not editing call sites.
type Registry struct {
	byName       map[string]registration
	defaultModel string
}

type registration struct {
	spec domain.ModelSpec
	impl Summarizer
}

func NewRegistry(defaultModel string) *Registry {
	return &Registry{
		byName:       make(map[string]registration),
		defaultModel: strings.TrimSpace(defaultModel),
	}
}

func (r *Registry) Register(spec domain.ModelSpec, impl Summarizer) {
	r.byName[spec.Name] = registration{spec: spec, impl: impl}
}

// Resolve finds the provider for a model name. An empty name selects the
// default model.
func (r *Registry) Resolve(name string) (domain.ModelSpec, Summarizer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = r.defaultModel
	}

	reg, ok := r.byName[name]
	if !ok {
		return domain.ModelSpec{}, nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}

	return reg.spec, reg.impl, nil
}

// Default returns the model used when the caller supplies none.
func (r *Registry) Default() (domain.ModelSpec, error) {
	spec, _, err := r.Resolve("")
	return spec, err
}

// Models lists every registered model, sorted by name.
func (r *Registry) Models() []domain.ModelSpec {
	specs := make([]domain.ModelSpec, 0, len(r.byName))
	for _, reg := range r.byName {
		specs = append(specs, reg.spec)
	}

	sort.Slice(specs, func(i, j int) bool {
		return specs[i].Name < specs[j].Name
	})

	return specs
}
