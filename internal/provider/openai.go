package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/sony/gobreaker"

	"conspectus/internal/domain"
)

const openAIRequestTimeout = 30 * time.Second

// OpenAIProvider calls the OpenAI Chat Completions API. A circuit breaker
// guards it so a failing upstream sheds load quickly instead of burning a
// slow timeout per request.
type OpenAIProvider struct {
	client     openai.Client
	configured bool
	breaker    *gobreaker.CircuitBreaker
	log        *slog.Logger
}

func NewOpenAIProvider(apiKey string, log *slog.Logger) *OpenAIProvider {
	apiKey = strings.TrimSpace(apiKey)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openai",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String())
		},
	})

	return &OpenAIProvider{
		client:     openai.NewClient(option.WithAPIKey(apiKey)),
		configured: apiKey != "",
		breaker:    breaker,
		log:        log,
	}
}

func (p *OpenAIProvider) Summarize(
	ctx context.Context,
	article *domain.Article,
	model domain.ModelSpec,
) (string, error) {
	if !p.configured {
		return "", &domain.ProviderError{
			Kind:  domain.ProviderAuthMissing,
			Model: model.Name,
			Err:   errors.New("OPENAI_API_KEY is not set"),
		}
	}

	system, user, err := BuildPrompt(article)
	if err != nil {
		return "", &domain.ProviderError{
			Kind:  domain.ProviderUpstreamError,
			Model: model.Name,
			Err:   err,
		}
	}

	start := time.Now()

	result, err := p.breaker.Execute(func() (any, error) {
		callCtx, cancel := context.WithTimeout(ctx, openAIRequestTimeout)
		defer cancel()

		resp, err := p.client.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
			Model: openai.ChatModel(model.Name),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(system),
				openai.UserMessage(user),
			},
			Temperature: openai.Float(generationTemperature),
			MaxTokens:   openai.Int(generationMaxTokens),
		})
		if err != nil {
			return nil, err
		}

		if len(resp.Choices) == 0 {
			return nil, errors.New("response contains no choices")
		}

		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	})
	if err != nil {
		return "", p.classifyError(model.Name, err)
	}

	summary, _ := result.(string)
	if summary == "" {
		return "", &domain.ProviderError{
			Kind:  domain.ProviderUpstreamError,
			Model: model.Name,
			Err:   errors.New("response contains no content"),
		}
	}

	p.log.InfoContext(ctx, "Generated summary with cloud model",
		"model", model.Name,
		"duration", time.Since(start).String())

	return summary, nil
}

// CheckAvailability only verifies configuration; a real API call is too
// expensive for a startup probe.
func (p *OpenAIProvider) CheckAvailability(_ context.Context, model domain.ModelSpec) error {
	if !p.configured {
		return &domain.ProviderError{
			Kind:  domain.ProviderAuthMissing,
			Model: model.Name,
			Err:   errors.New("OPENAI_API_KEY is not set"),
		}
	}
	return nil
}

func (p *OpenAIProvider) classifyError(model string, err error) error {
	kind := domain.ProviderUpstreamError

	var apiErr *openai.Error

	switch {
	case errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		kind = domain.ProviderUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		kind = domain.ProviderTimeout
	case errors.As(err, &apiErr):
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = domain.ProviderAuthMissing
		case http.StatusTooManyRequests:
			kind = domain.ProviderRateLimited
		}
	}

	return &domain.ProviderError{
		Kind:  kind,
		Model: model,
		Err:   fmt.Errorf("do request: %w", err),
	}
}
