package factory

import (
	"fmt"

	"notebook-ai-be/pkg/llm"
	"notebook-ai-be/pkg/llm/gemini"
	"notebook-ai-be/pkg/llm/ollama"
)

// NewLLMProvider builds the configured chat backend. The provider set is
// closed: anything outside it is a configuration error.
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "gemini":
		return gemini.NewGeminiProvider(apiKey, baseURL, modelName)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
