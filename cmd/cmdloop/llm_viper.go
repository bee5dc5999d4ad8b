package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/quailyquaily/cmdloop/llm"
	"github.com/quailyquaily/cmdloop/providers/openai"
)

func llmProviderFromViper() string {
	return normalizeProvider(viper.GetString("llm.provider"))
}

func llmEndpointFromViper() string {
	switch llmProviderFromViper() {
	case "azure":
		return firstNonEmpty(viper.GetString("llm.azure.endpoint"), viper.GetString("llm.endpoint"))
	default:
		return strings.TrimSpace(viper.GetString("llm.endpoint"))
	}
}

func llmAPIKeyFromViper() string {
	switch llmProviderFromViper() {
	case "azure":
		return firstNonEmpty(viper.GetString("llm.azure.api_key"), viper.GetString("llm.api_key"))
	default:
		return strings.TrimSpace(viper.GetString("llm.api_key"))
	}
}

func llmModelFromViper() string {
	switch llmProviderFromViper() {
	case "azure":
		return firstNonEmpty(viper.GetString("llm.azure.deployment"), viper.GetString("llm.model"))
	default:
		return strings.TrimSpace(viper.GetString("llm.model"))
	}
}

func normalizeProvider(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return "openai"
	}
	return provider
}

// llmClientFromViper builds a client for any OpenAI-compatible endpoint.
func llmClientFromViper() (llm.Client, error) {
	switch p := llmProviderFromViper(); p {
	case "openai", "azure", "openai_compatible":
		if llmAPIKeyFromViper() == "" && llmEndpointFromViper() == "" {
			return nil, fmt.Errorf("llm.api_key is required for provider %q", p)
		}
		return openai.New(llmEndpointFromViper(), llmAPIKeyFromViper()), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", p)
	}
}
