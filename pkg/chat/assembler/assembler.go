package assembler

import (
	"context"
	"fmt"
	"strings"

	"notebook-ai-be/internal/pkg/logger"
	"notebook-ai-be/pkg/chat/mode"
	"notebook-ai-be/pkg/chat/retrieval"
	"notebook-ai-be/pkg/websearch"

	"github.com/google/uuid"
)

// TurnContext is the single structured, bounded context object for one
// chat turn. It is rendered verbatim into the prompt as fenced JSON.
type TurnContext struct {
	Mode          mode.Mode                  `json:"mode"`
	Query         string                     `json:"query"`
	OcrText       string                     `json:"ocrText,omitempty"`
	Chunks        []retrieval.RetrievedChunk `json:"ragChunks,omitempty"`
	WebQuery      string                     `json:"webQuery,omitempty"`
	SearchTimeMs  int64                      `json:"searchTimeMs,omitempty"`
	WebResults    []websearch.SearchItem     `json:"webResults,omitempty"`
	HasRagContext bool                       `json:"hasRagContext"`
	HasWebResults bool                       `json:"hasWebResults"`
}

// ChunkRetriever narrows the vector retriever for assembly.
type ChunkRetriever interface {
	Retrieve(ctx context.Context, query string, fileIds []uuid.UUID) ([]retrieval.RetrievedChunk, error)
}

// Assembler fuses the user query, OCR text, retrieved passages and web
// results into one TurnContext per mode.
type Assembler struct {
	retriever ChunkRetriever
	searcher  websearch.Searcher
	enricher  *websearch.ImageEnricher
	logger    logger.ILogger
}

func NewAssembler(retriever ChunkRetriever, searcher websearch.Searcher, enricher *websearch.ImageEnricher, log logger.ILogger) *Assembler {
	return &Assembler{
		retriever: retriever,
		searcher:  searcher,
		enricher:  enricher,
		logger:    log,
	}
}

// ComposeQuery merges the user's question with OCR text. The question is
// primary; OCR text rides along as lower-weight supplementary context and
// never substitutes for a missing question.
func ComposeQuery(query, ocrText string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("empty user question")
	}
	ocrText = strings.TrimSpace(ocrText)
	if ocrText == "" {
		return query, nil
	}
	return query + "\n\nSupplementary context extracted from attachments (lower weight):\n" + ocrText, nil
}

// Assemble builds the TurnContext for the resolved mode. Retrieval and
// web search failures here are fatal to the turn: nothing has been
// prompted yet, so the caller surfaces them instead of degrading.
func (a *Assembler) Assemble(ctx context.Context, m mode.Mode, query, ocrText string, fileIds []uuid.UUID) (*TurnContext, error) {
	effectiveQuery, err := ComposeQuery(query, ocrText)
	if err != nil {
		return nil, err
	}

	turnCtx := &TurnContext{
		Mode:    m,
		Query:   strings.TrimSpace(query),
		OcrText: strings.TrimSpace(ocrText),
	}

	switch m {
	case mode.ModeRAG:
		if err := a.populateRag(ctx, turnCtx, effectiveQuery, fileIds); err != nil {
			return nil, err
		}
	case mode.ModeWeb:
		if err := a.populateWeb(ctx, turnCtx, effectiveQuery); err != nil {
			return nil, err
		}
	case mode.ModeHybrid:
		// Both legs run independently; the four flag combinations are
		// all legal and drive prompt precedence downstream.
		if err := a.populateRag(ctx, turnCtx, effectiveQuery, fileIds); err != nil {
			return nil, err
		}
		if err := a.populateWeb(ctx, turnCtx, effectiveQuery); err != nil {
			return nil, err
		}
	case mode.ModeLLMOnly:
		// No grounding at all.
	default:
		return nil, fmt.Errorf("unknown chat mode: %s", m)
	}

	return turnCtx, nil
}

func (a *Assembler) populateRag(ctx context.Context, turnCtx *TurnContext, effectiveQuery string, fileIds []uuid.UUID) error {
	chunks, err := a.retriever.Retrieve(ctx, effectiveQuery, fileIds)
	if err != nil {
		return fmt.Errorf("retrieve chunks: %w", err)
	}
	turnCtx.Chunks = chunks
	turnCtx.HasRagContext = len(chunks) > 0
	return nil
}

func (a *Assembler) populateWeb(ctx context.Context, turnCtx *TurnContext, effectiveQuery string) error {
	result, err := a.searcher.Search(ctx, effectiveQuery)
	if err != nil {
		return fmt.Errorf("web search: %w", err)
	}

	if a.enricher != nil {
		a.enricher.Enrich(ctx, result.Items)
	}

	turnCtx.WebQuery = result.Query
	turnCtx.SearchTimeMs = result.SearchTimeMs
	turnCtx.WebResults = result.Items
	turnCtx.HasWebResults = len(result.Items) > 0

	a.logger.Debug("assembler", "web search complete", map[string]interface{}{
		"query":        result.Query,
		"searchTimeMs": result.SearchTimeMs,
		"resultCount":  len(result.Items),
	})
	return nil
}
