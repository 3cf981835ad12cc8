package llm

import (
	"sop-quiz/internal/config"
	"sop-quiz/internal/domain"
)

// New returns the completion client selected by cfg.Provider.
func New(cfg config.LLMConfig) (domain.CompletionClient, error) {
	if cfg.Provider == config.ProviderOpenAISDK {
		return NewOpenAISDKClient(cfg), nil
	}
	return NewLangchainClient(cfg)
}
