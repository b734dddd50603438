package factory

import (
	"testing"

	"notebook-ai-be/pkg/llm/gemini"
	"notebook-ai-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProviderOllama(t *testing.T) {
	p, err := NewLLMProvider("ollama", "llama3", "http://ollama.internal:11434", "")
	require.NoError(t, err)
	ollamaProvider, ok := p.(*ollama.OllamaProvider)
	require.True(t, ok)
	assert.Equal(t, "http://ollama.internal:11434", ollamaProvider.BaseURL)
}

func TestNewLLMProviderGeminiCustomBaseURL(t *testing.T) {
	p, err := NewLLMProvider("gemini", "gemini-2.0-flash", "http://gemini-proxy:9999", "key")
	require.NoError(t, err)
	geminiProvider, ok := p.(*gemini.GeminiProvider)
	require.True(t, ok)
	assert.Equal(t, "http://gemini-proxy:9999", geminiProvider.BaseURL)
}

func TestNewLLMProviderGeminiDefaultBaseURL(t *testing.T) {
	p, err := NewLLMProvider("gemini", "gemini-2.0-flash", "", "key")
	require.NoError(t, err)
	geminiProvider := p.(*gemini.GeminiProvider)
	assert.Equal(t, "https://generativelanguage.googleapis.com", geminiProvider.BaseURL)
}

func TestNewLLMProviderUnknownCode(t *testing.T) {
	_, err := NewLLMProvider("claude", "m", "", "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM provider")
}
