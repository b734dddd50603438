package embedding

import "fmt"

// NewProvider builds the configured embedding backend.
func NewProvider(providerType, model, ollamaBaseURL, geminiAPIKey string) (EmbeddingProvider, error) {
	switch providerType {
	case "ollama":
		return NewOllamaProvider(ollamaBaseURL, model), nil
	case "gemini":
		return NewGeminiProvider(geminiAPIKey, model), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", providerType)
	}
}
