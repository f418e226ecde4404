// Package llm constructs provider transports from prompt settings.
package llm

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/promptic"
	"github.com/m-mizutani/promptic/llm/claude"
	"github.com/m-mizutani/promptic/llm/gemini"
	"github.com/m-mizutani/promptic/llm/gpt"
)

// FromSettings returns the transport for the provider named in settings.
// Credentials and endpoints are read from the environment:
//
//   - openai: OPENAI_API_KEY
//   - azure:  AZURE_OPENAI_ENDPOINT_URL, AZURE_OPENAI_API_KEY, AZURE_OPENAI_API_VERSION
//   - grok:   GROK_API_KEY
//   - claude: ANTHROPIC_API_KEY
//   - gemini: GEMINI_PROJECT_ID, GEMINI_LOCATION
//
// A missing variable or an unknown provider is a configuration error.
func FromSettings(ctx context.Context, settings promptic.PromptSettings) (promptic.Transport, error) {
	switch settings.Provider {
	case promptic.ProviderOpenAI:
		apiKey, err := requireEnv("OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		return gpt.New(ctx, apiKey)

	case promptic.ProviderAzure:
		endpoint, err := requireEnv("AZURE_OPENAI_ENDPOINT_URL")
		if err != nil {
			return nil, err
		}
		apiKey, err := requireEnv("AZURE_OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		apiVersion, err := requireEnv("AZURE_OPENAI_API_VERSION")
		if err != nil {
			return nil, err
		}
		return gpt.NewAzure(ctx, apiKey, endpoint, apiVersion)

	case promptic.ProviderGrok:
		apiKey, err := requireEnv("GROK_API_KEY")
		if err != nil {
			return nil, err
		}
		return gpt.NewGrok(ctx, apiKey)

	case promptic.ProviderClaude:
		apiKey, err := requireEnv("ANTHROPIC_API_KEY")
		if err != nil {
			return nil, err
		}
		return claude.New(ctx, apiKey)

	case promptic.ProviderGemini:
		projectID, err := requireEnv("GEMINI_PROJECT_ID")
		if err != nil {
			return nil, err
		}
		location, err := requireEnv("GEMINI_LOCATION")
		if err != nil {
			return nil, err
		}
		return gemini.New(ctx, projectID, location)

	default:
		return nil, goerr.Wrap(promptic.ErrUnsupportedProvider,
			"invalid provider: "+settings.Provider,
			goerr.V("provider", settings.Provider),
		)
	}
}

func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", goerr.New(key + " is not set")
	}
	return value, nil
}
