package prompt

import (
	"encoding/json"
	"strings"

	"notebook-ai-be/pkg/chat/assembler"
	"notebook-ai-be/pkg/chat/mode"
	"notebook-ai-be/pkg/llm"
)

const (
	maxUserTurns      = 5
	maxAssistantTurns = 5
)

// Builder renders one TurnContext plus recent history into a single
// prompt with a machine-checkable output contract.
type Builder struct {
	turnCtx *assembler.TurnContext
	history []llm.Message
}

func NewBuilder(turnCtx *assembler.TurnContext, history []llm.Message) *Builder {
	return &Builder{
		turnCtx: turnCtx,
		history: history,
	}
}

// SelectRecent keeps the last maxUserTurns user messages and the last
// maxAssistantTurns assistant messages, each limited independently by
// role, merged back into chronological order.
func SelectRecent(history []llm.Message) []llm.Message {
	keep := make([]bool, len(history))
	userSeen, assistantSeen := 0, 0
	for i := len(history) - 1; i >= 0; i-- {
		switch history[i].Role {
		case "user":
			if userSeen < maxUserTurns {
				keep[i] = true
				userSeen++
			}
		case "assistant", "model":
			if assistantSeen < maxAssistantTurns {
				keep[i] = true
				assistantSeen++
			}
		}
	}

	selected := make([]llm.Message, 0, userSeen+assistantSeen)
	for i, msg := range history {
		if keep[i] {
			selected = append(selected, msg)
		}
	}
	return selected
}

func (b *Builder) Build() string {
	var sb strings.Builder

	b.writeTask(&sb)
	b.writeTranscript(&sb)
	b.writeContext(&sb)
	b.writeOutputContract(&sb)
	b.writeUserQuery(&sb)

	return sb.String()
}

func (b *Builder) writeTask(sb *strings.Builder) {
	sb.WriteString("<task>\n")
	sb.WriteString("You are an assistant answering the user's question inside their notebook.\n")
	switch b.turnCtx.Mode {
	case mode.ModeRAG:
		sb.WriteString("Ground your answer strictly in the retrieved document passages provided in the context.\n")
	case mode.ModeWeb:
		sb.WriteString("Ground your answer in the web search results provided in the context.\n")
	case mode.ModeHybrid:
		sb.WriteString("Ground your answer in the retrieved document passages and the web search results provided in the context.\n")
		sb.WriteString("When both kinds of evidence exist, the document passages are the PRIMARY grounding; web results are supplementary, for fresh information only.\n")
	case mode.ModeLLMOnly:
		sb.WriteString("Answer from your own knowledge. No external evidence is supplied for this turn.\n")
	}
	sb.WriteString("</task>\n\n")
}

func (b *Builder) writeTranscript(sb *strings.Builder) {
	recent := SelectRecent(b.history)
	if len(recent) == 0 {
		return
	}

	sb.WriteString("<conversation_history>\n")
	for _, msg := range recent {
		role := "User"
		if msg.Role == "assistant" || msg.Role == "model" {
			role = "Assistant"
		}
		sb.WriteString(role)
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("</conversation_history>\n\n")
}

func (b *Builder) writeContext(sb *strings.Builder) {
	contextJson, err := json.MarshalIndent(b.turnCtx, "", "  ")
	if err != nil {
		// TurnContext is plain data, this cannot realistically fail.
		contextJson = []byte("{}")
	}

	sb.WriteString("<context>\n")
	sb.WriteString("```json\n")
	sb.Write(contextJson)
	sb.WriteString("\n```\n")
	sb.WriteString("</context>\n\n")
}

func (b *Builder) writeOutputContract(sb *strings.Builder) {
	sb.WriteString("<output_contract>\n")
	sb.WriteString("Respond with EXACTLY one JSON object of this shape and nothing else:\n")
	sb.WriteString(`{"answer": string, "sources": [{"source_type": "RAG"|"WEB", ...}]}` + "\n\n")

	switch b.turnCtx.Mode {
	case mode.ModeRAG:
		sb.WriteString("Only sources of type RAG are allowed. Each RAG source is {\"source_type\": \"RAG\", \"file_id\": string, \"chunk_index\": number, \"score\": number}.\n")
	case mode.ModeWeb:
		sb.WriteString("Only sources of type WEB are allowed. Each WEB source is {\"source_type\": \"WEB\", \"web_index\": number, \"score\": number}, where web_index indexes into the webResults array supplied above.\n")
	case mode.ModeHybrid:
		sb.WriteString("Sources may be RAG ({\"source_type\": \"RAG\", \"file_id\": string, \"chunk_index\": number, \"score\": number}) or WEB ({\"source_type\": \"WEB\", \"web_index\": number, \"score\": number}), or both.\n")
		sb.WriteString("When both document passages and web results were supplied, cite the document passages as primary grounding.\n")
	case mode.ModeLLMOnly:
		sb.WriteString("The sources array MUST be empty: \"sources\": [].\n")
	}

	sb.WriteString("\nRules:\n")
	sb.WriteString("- NEVER fabricate a source. A source must correspond to a chunk or web result actually present in the context: RAG sources by (file_id, chunk_index), WEB sources by web_index.\n")
	sb.WriteString("- score is your own assessment of how much that source contributed to the answer, between 0.00 and 1.00 with two decimals.\n")
	sb.WriteString("</output_contract>\n\n")
}

func (b *Builder) writeUserQuery(sb *strings.Builder) {
	sb.WriteString("<user_question>\n")
	sb.WriteString(b.turnCtx.Query)
	if b.turnCtx.OcrText != "" {
		sb.WriteString("\n\n(Supplementary text extracted from the user's attachments, lower weight:)\n")
		sb.WriteString(b.turnCtx.OcrText)
	}
	sb.WriteString("\n</user_question>\n\n")
	sb.WriteString("Now respond with the JSON object only:")
}
