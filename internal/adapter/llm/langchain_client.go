// Package llm adapts remote completion APIs to domain.CompletionClient.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"sop-quiz/internal/config"
	"sop-quiz/internal/domain"
	"sop-quiz/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
)

// LangchainClient sends prompts through any langchaingo llms.Model.
type LangchainClient struct {
	model     llms.Model
	modelName string
}

// NewLangchainClient builds the langchaingo backend named by cfg.Provider.
func NewLangchainClient(cfg config.LLMConfig) (*LangchainClient, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	var (
		model llms.Model
		err   error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(cfg.APIKey),
			openai.WithModel(cfg.Model),
			openai.WithHTTPClient(httpClient),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		model, err = openai.New(opts...)
	case config.ProviderAzure:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("llm.base_url is required for the azure provider")
		}
		model, err = openai.New(
			openai.WithAPIType(openai.APITypeAzure),
			openai.WithToken(cfg.APIKey),
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithAPIVersion(cfg.APIVersion),
			openai.WithModel(cfg.Model),
			openai.WithHTTPClient(httpClient),
		)
	case config.ProviderOllama:
		opts := []ollama.Option{
			ollama.WithModel(cfg.Model),
			ollama.WithHTTPClient(httpClient),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		model, err = ollama.New(opts...)
	default:
		return nil, fmt.Errorf("provider %q is not served by langchaingo", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", cfg.Provider, err)
	}

	return NewLangchainClientWithModel(model, cfg.Model), nil
}

// NewLangchainClientWithModel wraps an already constructed model.
func NewLangchainClientWithModel(model llms.Model, modelName string) *LangchainClient {
	return &LangchainClient{model: model, modelName: modelName}
}

// Complete implements domain.CompletionClient.
func (c *LangchainClient) Complete(ctx context.Context, prompt domain.Prompt, opts domain.SamplingOptions) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, prompt.System),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt.User),
	}

	resp, err := c.model.GenerateContent(ctx, messages,
		llms.WithTemperature(opts.Temperature),
		llms.WithTopP(opts.TopP),
		llms.WithFrequencyPenalty(opts.FrequencyPenalty),
		llms.WithPresencePenalty(opts.PresencePenalty),
		llms.WithMaxTokens(opts.MaxTokens),
	)
	if err != nil {
		if errors.Is(err, openai.ErrEmptyResponse) {
			return "", nil
		}
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 {
		logger.Get().Warn("Completion returned no choices", zap.String("model", c.modelName))
		return "", nil
	}
	return resp.Choices[0].Content, nil
}

var _ domain.CompletionClient = (*LangchainClient)(nil)
