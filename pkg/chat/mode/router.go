package mode

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"notebook-ai-be/internal/pkg/logger"
	"notebook-ai-be/pkg/chat/parser"
	"notebook-ai-be/pkg/llm"
)

// RouteInput is everything the classifier may look at for one turn.
type RouteInput struct {
	Query            string
	ExplicitMode     Mode // empty means classify
	OcrText          string
	AttachmentTypes  []string
	AttachmentCount  int
	FormattedHistory string
}

// Router resolves the grounding mode for a turn. An explicit mode wins
// unchanged; otherwise an auxiliary LLM call classifies the query into
// WEB, HYBRID or LLM_ONLY. RAG is never chosen automatically, it is
// reachable only by explicit selection.
type Router struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewRouter(llmProvider llm.LLMProvider, log logger.ILogger) *Router {
	return &Router{
		llmProvider: llmProvider,
		logger:      log,
	}
}

func (r *Router) Resolve(ctx context.Context, input RouteInput) Mode {
	if input.ExplicitMode != "" {
		return input.ExplicitMode
	}

	raw, err := r.llmProvider.Generate(ctx, r.buildClassificationPrompt(input), llm.WithTemperature(0.0))
	if err != nil {
		r.logger.Warn("mode-router", "classification call failed, falling back to LLM_ONLY", map[string]interface{}{
			"error": err.Error(),
		})
		return ModeLLMOnly
	}

	resolved, ok := parseClassification(raw)
	if !ok {
		r.logger.Warn("mode-router", "unparseable classification, falling back to LLM_ONLY", map[string]interface{}{
			"raw": raw,
		})
		return ModeLLMOnly
	}
	return resolved
}

// parseClassification reads the single-field contract {"mode": "..."} and
// rejects anything outside the automatic set.
func parseClassification(raw string) (Mode, bool) {
	candidate, ok := parser.ExtractJSONObject(raw)
	if !ok {
		return "", false
	}

	var decoded struct {
		Mode string `json:"mode"`
	}
	if err := json.Unmarshal([]byte(candidate), &decoded); err != nil {
		return "", false
	}

	switch Mode(strings.ToUpper(strings.TrimSpace(decoded.Mode))) {
	case ModeWeb:
		return ModeWeb, true
	case ModeHybrid:
		return ModeHybrid, true
	case ModeLLMOnly:
		return ModeLLMOnly, true
	default:
		// RAG or garbage: not a legal automatic outcome.
		return "", false
	}
}

func (r *Router) buildClassificationPrompt(input RouteInput) string {
	var sb strings.Builder

	sb.WriteString("<task>\n")
	sb.WriteString("Classify the grounding strategy for the user's next chat message.\n")
	sb.WriteString("Choose exactly one of: WEB, HYBRID, LLM_ONLY.\n")
	sb.WriteString("</task>\n\n")

	sb.WriteString("<guidelines>\n")
	sb.WriteString("- Named or specific entities (organizations, events, places), or anything that needs fresh information: lean HYBRID\n")
	sb.WriteString("- Conversational or general-knowledge questions: lean LLM_ONLY\n")
	sb.WriteString("- Explicitly time-sensitive or news queries where the user's own documents are certainly irrelevant: WEB\n")
	sb.WriteString("</guidelines>\n\n")

	if input.FormattedHistory != "" {
		sb.WriteString("<recent_history>\n")
		sb.WriteString(input.FormattedHistory)
		sb.WriteString("\n</recent_history>\n\n")
	}

	if input.AttachmentCount > 0 {
		fmt.Fprintf(&sb, "<attachments count=%q types=%q/>\n\n",
			fmt.Sprintf("%d", input.AttachmentCount), strings.Join(input.AttachmentTypes, ","))
	}

	if input.OcrText != "" {
		sb.WriteString("<attachment_text>\n")
		sb.WriteString(input.OcrText)
		sb.WriteString("\n</attachment_text>\n\n")
	}

	sb.WriteString("<user_message>\n")
	sb.WriteString(input.Query)
	sb.WriteString("\n</user_message>\n\n")

	sb.WriteString("Respond with ONLY this JSON object and nothing else:\n")
	sb.WriteString(`{"mode": "WEB" | "HYBRID" | "LLM_ONLY"}`)

	return sb.String()
}
