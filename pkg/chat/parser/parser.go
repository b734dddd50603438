package parser

import (
	"encoding/json"
	"strings"
)

// ClaimedSource is one entry of the model's "sources" array, taken as-is
// before attribution resolves it against the real evidence.
type ClaimedSource struct {
	SourceType string   `json:"source_type"`
	FileId     string   `json:"file_id,omitempty"`
	ChunkIndex *int     `json:"chunk_index,omitempty"`
	WebIndex   *int     `json:"web_index,omitempty"`
	Url        string   `json:"url,omitempty"`
	Title      string   `json:"title,omitempty"`
	Snippet    string   `json:"snippet,omitempty"`
	Provider   string   `json:"provider,omitempty"`
	Score      *float64 `json:"score,omitempty"`
}

// ParsedResponse is the structured form of one LLM reply.
type ParsedResponse struct {
	Answer  string          `json:"answer"`
	Sources []ClaimedSource `json:"sources"`
}

// ExtractJSONObject cuts the first balanced JSON object out of free-form
// text: find the first '{', scan forward counting brace depth, cut at the
// matching '}'. Braces inside JSON strings are skipped.
func ExtractJSONObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}

// Parse turns raw LLM output into a ParsedResponse. It is total: when no
// well-formed JSON object can be extracted or decoded, the raw text becomes
// the answer verbatim and the sources list is empty.
func Parse(raw string) *ParsedResponse {
	fallback := &ParsedResponse{
		Answer:  raw,
		Sources: []ClaimedSource{},
	}

	candidate, ok := ExtractJSONObject(raw)
	if !ok {
		return fallback
	}

	var parsed ParsedResponse
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return fallback
	}
	if parsed.Answer == "" {
		return fallback
	}
	if parsed.Sources == nil {
		parsed.Sources = []ClaimedSource{}
	}
	return &parsed
}
