package factory

import (
	"fmt"

	"library-assistant-be/pkg/llm"
	"library-assistant-be/pkg/llm/huggingface"
	"library-assistant-be/pkg/llm/ollama"
)

// NewLLMProvider builds the configured backend. An empty provider type
// disables LLM-backed steps; callers then use their deterministic fallbacks.
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "":
		return nil, nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "huggingface", "openai":
		return huggingface.NewHuggingFaceProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
