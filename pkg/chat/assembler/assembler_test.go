package assembler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"notebook-ai-be/internal/pkg/logger"
	"notebook-ai-be/pkg/chat/mode"
	"notebook-ai-be/pkg/chat/retrieval"
	"notebook-ai-be/pkg/websearch"

	"github.com/google/uuid"
)

type stubRetriever struct {
	chunks   []retrieval.RetrievedChunk
	err      error
	gotQuery string
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string, fileIds []uuid.UUID) ([]retrieval.RetrievedChunk, error) {
	s.gotQuery = query
	return s.chunks, s.err
}

type stubSearcher struct {
	result   *websearch.SearchResult
	err      error
	gotQuery string
}

func (s *stubSearcher) Search(ctx context.Context, query string) (*websearch.SearchResult, error) {
	s.gotQuery = query
	return s.result, s.err
}

func newTestAssembler(r ChunkRetriever, s websearch.Searcher) *Assembler {
	return NewAssembler(r, s, nil, logger.NewIsolatedLogger("/tmp/assembler_test.log"))
}

func TestComposeQuery(t *testing.T) {
	t.Run("empty question is a hard error", func(t *testing.T) {
		if _, err := ComposeQuery("   ", "some ocr text"); err == nil {
			t.Fatal("OCR text alone must never substitute for a question")
		}
	})

	t.Run("question only", func(t *testing.T) {
		got, err := ComposeQuery("What is X?", "")
		if err != nil || got != "What is X?" {
			t.Fatalf("got %q, err %v", got, err)
		}
	})

	t.Run("question plus ocr", func(t *testing.T) {
		got, err := ComposeQuery("What is X?", "invoice total 42")
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(got, "What is X?") {
			t.Errorf("user question must lead: %q", got)
		}
		if !strings.Contains(got, "invoice total 42") {
			t.Errorf("ocr text missing: %q", got)
		}
	})
}

func TestAssembleModes(t *testing.T) {
	fileId := uuid.New()
	chunks := []retrieval.RetrievedChunk{{FileId: fileId, ChunkIndex: 0, Content: "c", Similarity: 0.8, Distance: 0.2}}
	webResult := &websearch.SearchResult{
		Query:        "What is X?",
		SearchTimeMs: 12,
		Items:        []websearch.SearchItem{{Title: "X", Link: "https://x.example", Snippet: "about X"}},
	}

	t.Run("RAG populates chunks only", func(t *testing.T) {
		searcher := &stubSearcher{result: webResult}
		a := newTestAssembler(&stubRetriever{chunks: chunks}, searcher)
		got, err := a.Assemble(context.Background(), mode.ModeRAG, "What is X?", "", []uuid.UUID{fileId})
		if err != nil {
			t.Fatal(err)
		}
		if !got.HasRagContext || got.HasWebResults {
			t.Errorf("flags = (%v, %v), want (true, false)", got.HasRagContext, got.HasWebResults)
		}
		if searcher.gotQuery != "" {
			t.Error("web searcher must not run in RAG mode")
		}
	})

	t.Run("WEB populates results and latency", func(t *testing.T) {
		a := newTestAssembler(&stubRetriever{chunks: chunks}, &stubSearcher{result: webResult})
		got, err := a.Assemble(context.Background(), mode.ModeWeb, "What is X?", "", nil)
		if err != nil {
			t.Fatal(err)
		}
		if got.HasRagContext || !got.HasWebResults {
			t.Errorf("flags = (%v, %v), want (false, true)", got.HasRagContext, got.HasWebResults)
		}
		if got.WebQuery != "What is X?" || got.SearchTimeMs != 12 {
			t.Errorf("web bookkeeping = (%q, %d)", got.WebQuery, got.SearchTimeMs)
		}
	})

	t.Run("HYBRID populates both independently", func(t *testing.T) {
		a := newTestAssembler(&stubRetriever{}, &stubSearcher{result: webResult})
		got, err := a.Assemble(context.Background(), mode.ModeHybrid, "What is X?", "", nil)
		if err != nil {
			t.Fatal(err)
		}
		// Empty allow-list: no RAG context, web still present.
		if got.HasRagContext {
			t.Error("HasRagContext should be false with no chunks")
		}
		if !got.HasWebResults {
			t.Error("HasWebResults should be true")
		}
	})

	t.Run("LLM_ONLY populates neither", func(t *testing.T) {
		retriever := &stubRetriever{chunks: chunks}
		searcher := &stubSearcher{result: webResult}
		a := newTestAssembler(retriever, searcher)
		got, err := a.Assemble(context.Background(), mode.ModeLLMOnly, "What is X?", "", []uuid.UUID{fileId})
		if err != nil {
			t.Fatal(err)
		}
		if got.HasRagContext || got.HasWebResults || len(got.Chunks) != 0 || len(got.WebResults) != 0 {
			t.Errorf("LLM_ONLY context not empty: %+v", got)
		}
		if retriever.gotQuery != "" || searcher.gotQuery != "" {
			t.Error("no external call may run in LLM_ONLY mode")
		}
	})
}

func TestAssembleOcrSupplementsQuery(t *testing.T) {
	retriever := &stubRetriever{}
	a := newTestAssembler(retriever, &stubSearcher{result: &websearch.SearchResult{}})
	fileId := uuid.New()

	if _, err := a.Assemble(context.Background(), mode.ModeRAG, "Summarize this", "receipt: 3 items", []uuid.UUID{fileId}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(retriever.gotQuery, "Summarize this") || !strings.Contains(retriever.gotQuery, "receipt: 3 items") {
		t.Errorf("effective query = %q", retriever.gotQuery)
	}
}

func TestAssemblePropagatesRetrievalFailure(t *testing.T) {
	a := newTestAssembler(&stubRetriever{err: errors.New("pgvector down")}, &stubSearcher{})
	if _, err := a.Assemble(context.Background(), mode.ModeRAG, "q", "", []uuid.UUID{uuid.New()}); err == nil {
		t.Fatal("retrieval failure before prompting must be fatal to the turn")
	}
}
