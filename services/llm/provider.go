package llm

import (
	"fmt"

	"github.com/ameshram/learnify/config"
)

// New returns the gateway for the configured provider.
func New(cfg *config.Config) (Gateway, error) {
	switch cfg.ModelProvider {
	case config.ProviderAnthropic:
		return NewAnthropicGateway(cfg.AnthropicAPIKey, cfg.DefaultModel, cfg.MaxTokensTeaching), nil
	case config.ProviderOpenAI:
		gw, err := NewOpenAIGateway(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.MaxTokensTeaching)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		return gw, nil
	default:
		return nil, fmt.Errorf("unsupported model provider: %q", cfg.ModelProvider)
	}
}
