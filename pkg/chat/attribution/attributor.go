package attribution

import (
	"math"
	"sort"
	"strconv"

	"notebook-ai-be/internal/entity"
	"notebook-ai-be/pkg/chat/parser"
	"notebook-ai-be/pkg/chat/retrieval"
	"notebook-ai-be/pkg/websearch"

	"github.com/google/uuid"
)

const ragProvider = "rag"

// Attributor reconciles the model's claimed sources against the evidence
// actually supplied for the turn. Unresolved or malformed claims are
// dropped, never errored.
type Attributor struct{}

func NewAttributor() *Attributor {
	return &Attributor{}
}

// Resolve maps claims to evidence and returns one ranked, de-duplicated,
// typed source list: score descending, unscored entries last.
func (a *Attributor) Resolve(claimed []parser.ClaimedSource, chunks []retrieval.RetrievedChunk, webItems []websearch.SearchItem, webProvider string) []entity.MessageSource {
	sources := make([]entity.MessageSource, 0, len(claimed))
	seenChunks := make(map[string]bool)
	seenWeb := make(map[int]bool)

	for _, claim := range claimed {
		switch claim.SourceType {
		case entity.SourceTypeRAG:
			if source, ok := a.resolveRag(claim, chunks, seenChunks); ok {
				sources = append(sources, source)
			}
		case entity.SourceTypeWEB:
			if source, ok := a.resolveWeb(claim, webItems, webProvider, seenWeb); ok {
				sources = append(sources, source)
			}
		}
	}

	sort.SliceStable(sources, func(i, j int) bool {
		si, sj := sources[i].Score, sources[j].Score
		if si == nil {
			return false
		}
		if sj == nil {
			return true
		}
		return *si > *sj
	})

	return sources
}

func (a *Attributor) resolveRag(claim parser.ClaimedSource, chunks []retrieval.RetrievedChunk, seen map[string]bool) (entity.MessageSource, bool) {
	if claim.FileId == "" || claim.ChunkIndex == nil {
		return entity.MessageSource{}, false
	}
	fileId, err := uuid.Parse(claim.FileId)
	if err != nil {
		return entity.MessageSource{}, false
	}

	var evidence *retrieval.RetrievedChunk
	for i := range chunks {
		if chunks[i].FileId == fileId && chunks[i].ChunkIndex == *claim.ChunkIndex {
			evidence = &chunks[i]
			break
		}
	}
	// A RAG claim with no matching retrieved chunk is a fabrication.
	if evidence == nil {
		return entity.MessageSource{}, false
	}

	key := fileId.String() + "#" + strconv.Itoa(*claim.ChunkIndex)
	if seen[key] {
		return entity.MessageSource{}, false
	}
	seen[key] = true

	chunkIndex := *claim.ChunkIndex
	similarity := evidence.Similarity
	distance := evidence.Distance
	return entity.MessageSource{
		SourceType: entity.SourceTypeRAG,
		Provider:   ragProvider,
		Score:      normalizeScore(claim.Score),
		FileId:     &fileId,
		ChunkIndex: &chunkIndex,
		Content:    evidence.Content,
		Similarity: &similarity,
		Distance:   &distance,
	}, true
}

func (a *Attributor) resolveWeb(claim parser.ClaimedSource, webItems []websearch.SearchItem, webProvider string, seen map[int]bool) (entity.MessageSource, bool) {
	if claim.WebIndex == nil {
		return entity.MessageSource{}, false
	}
	idx := *claim.WebIndex
	if seen[idx] {
		return entity.MessageSource{}, false
	}

	source := entity.MessageSource{
		SourceType: entity.SourceTypeWEB,
		Provider:   webProvider,
		Score:      normalizeScore(claim.Score),
		WebIndex:   &idx,
	}

	if idx >= 0 && idx < len(webItems) {
		item := webItems[idx]
		source.Url = item.Link
		source.Title = item.Title
		source.Snippet = item.Snippet
		source.ImageUrl = item.ImageUrl
	} else {
		// Evidence lookup failed: claimed values are the fallback.
		if claim.Url == "" {
			return entity.MessageSource{}, false
		}
		source.Url = claim.Url
		source.Title = claim.Title
		source.Snippet = claim.Snippet
		if claim.Provider != "" {
			source.Provider = claim.Provider
		}
	}

	seen[idx] = true
	return source, true
}

// normalizeScore clamps into [0, 1] and rounds to two decimals.
func normalizeScore(score *float64) *float64 {
	if score == nil {
		return nil
	}
	s := *score
	if s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}
	s = math.Round(s*100) / 100
	return &s
}
