package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"conspectus/internal/domain"
)

// Local generation has no hard upper bound on latency comparable to a cloud
// API; large models on modest hardware routinely take a minute or more.
const ollamaRequestTimeout = 120 * time.Second

// OllamaProvider runs summarization against a local Ollama server over its
// HTTP API.
type OllamaProvider struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

func NewOllamaProvider(baseURL string, log *slog.Logger) *OllamaProvider {
	return &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: ollamaRequestTimeout},
		log:     log,
	}
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (p *OllamaProvider) Summarize(
	ctx context.Context,
	article *domain.Article,
	model domain.ModelSpec,
) (string, error) {
	system, user, err := BuildPrompt(article)
	if err != nil {
		return "", &domain.ProviderError{
			Kind:  domain.ProviderUpstreamError,
			Model: model.Name,
			Err:   err,
		}
	}

	body, err := json.Marshal(ollamaChatRequest{
		Model: model.Name,
		Messages: []ollamaMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: false,
		Options: ollamaOptions{
			Temperature: generationTemperature,
			NumPredict:  generationMaxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.baseURL+"/api/chat",
		bytes.NewReader(body),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()

	resp, err := p.client.Do(req)
	if err != nil {
		return "", p.wrapTransportError(model.Name, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			p.log.ErrorContext(ctx, "Failed to close response body",
				"error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

		kind := domain.ProviderUpstreamError
		if resp.StatusCode == http.StatusTooManyRequests {
			kind = domain.ProviderRateLimited
		}

		return "", &domain.ProviderError{
			Kind:  kind,
			Model: model.Name,
			Err:   fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(payload))),
		}
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", &domain.ProviderError{
			Kind:  domain.ProviderUpstreamError,
			Model: model.Name,
			Err:   fmt.Errorf("decode response: %w", err),
		}
	}

	summary := strings.TrimSpace(chatResp.Message.Content)
	if summary == "" {
		return "", &domain.ProviderError{
			Kind:  domain.ProviderUpstreamError,
			Model: model.Name,
			Err:   errors.New("response contains no content"),
		}
	}

	p.log.InfoContext(ctx, "Generated summary with local model",
		"model", model.Name,
		"duration", time.Since(start).String())

	return summary, nil
}

// CheckAvailability asks the server for its loaded models and verifies the
// requested one is among them.
func (p *OllamaProvider) CheckAvailability(ctx context.Context, model domain.ModelSpec) error {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		p.baseURL+"/api/tags",
		nil,
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return p.wrapTransportError(model.Name, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			p.log.ErrorContext(ctx, "Failed to close response body",
				"error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return &domain.ProviderError{
			Kind:  domain.ProviderUpstreamError,
			Model: model.Name,
			Err:   fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return &domain.ProviderError{
			Kind:  domain.ProviderUpstreamError,
			Model: model.Name,
			Err:   fmt.Errorf("decode response: %w", err),
		}
	}

	for _, m := range tags.Models {
		if m.Name == model.Name {
			return nil
		}
	}

	return &domain.ProviderError{
		Kind:  domain.ProviderUnavailable,
		Model: model.Name,
		Err:   fmt.Errorf("model is not loaded on %s", p.baseURL),
	}
}

func (p *OllamaProvider) wrapTransportError(model string, err error) error {
	kind := domain.ProviderUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		kind = domain.ProviderTimeout
	}

	return &domain.ProviderError{
		Kind:  kind,
		Model: model,
		Err:   err,
	}
}
