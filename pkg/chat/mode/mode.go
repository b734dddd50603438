package mode

import (
	"fmt"
	"strings"
)

// Mode is the grounding strategy for a single chat turn.
type Mode string

const (
	ModeRAG     Mode = "RAG"      // internal document retrieval only
	ModeWeb     Mode = "WEB"      // live web search only
	ModeHybrid  Mode = "HYBRID"   // retrieval plus web, RAG primary
	ModeLLMOnly Mode = "LLM_ONLY" // the model's own knowledge
)

// Parse validates a client-supplied mode string.
func Parse(raw string) (Mode, error) {
	switch Mode(strings.ToUpper(strings.TrimSpace(raw))) {
	case ModeRAG:
		return ModeRAG, nil
	case ModeWeb:
		return ModeWeb, nil
	case ModeHybrid:
		return ModeHybrid, nil
	case ModeLLMOnly:
		return ModeLLMOnly, nil
	default:
		return "", fmt.Errorf("unknown chat mode: %s", raw)
	}
}
