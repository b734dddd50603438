package utils

import "unicode"

const boundaryWindow = 120

// ChunkText splits text into overlapping chunks of at most chunkSize
// runes. Chunk boundaries prefer whitespace within boundaryWindow runes
// of the cut so words are not split mid-token. Overlap preserves context
// across adjacent chunks for retrieval.
func ChunkText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize
	}

	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}
		cut := backtrackToBoundary(runes, end)
		if cut <= start {
			cut = end
		}
		chunks = append(chunks, string(runes[start:cut]))
	}
	return chunks
}

func backtrackToBoundary(runes []rune, end int) int {
	low := end - boundaryWindow
	if low < 0 {
		low = 0
	}
	for i := end; i > low; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
