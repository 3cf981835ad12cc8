package llm

import (
	"context"
	"math"
	"net/http"
	"strings"

	"sop-quiz/internal/config"
	"sop-quiz/internal/domain"

	openai "github.com/sashabaranov/go-openai"
)

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAISDKClient talks to the chat completions endpoint with go-openai.
type OpenAISDKClient struct {
	client chatCompleter
	model  string
}

// NewOpenAISDKClient creates a client for cfg.Model. A base_url ending in
// ".openai.azure.com" switches to Azure deployment routing.
func NewOpenAISDKClient(cfg config.LLMConfig) *OpenAISDKClient {
	var clientCfg openai.ClientConfig
	if isAzureEndpoint(cfg.BaseURL) {
		clientCfg = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.APIVersion != "" {
			clientCfg.APIVersion = cfg.APIVersion
		}
	} else {
		clientCfg = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAISDKClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

// Complete implements domain.CompletionClient.
func (c *OpenAISDKClient) Complete(ctx context.Context, prompt domain.Prompt, opts domain.SamplingOptions) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
		Temperature:      temperature(opts.Temperature),
		TopP:             float32(opts.TopP),
		FrequencyPenalty: float32(opts.FrequencyPenalty),
		PresencePenalty:  float32(opts.PresencePenalty),
		MaxTokens:        opts.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// temperature keeps an explicit 0 from being dropped by omitempty, which
// would make the API fall back to its default of 1.
func temperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

func isAzureEndpoint(baseURL string) bool {
	return strings.HasSuffix(strings.TrimRight(baseURL, "/"), ".openai.azure.com")
}

var _ domain.CompletionClient = (*OpenAISDKClient)(nil)
