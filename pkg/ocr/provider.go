package ocr

import (
	"context"
	"strings"
)

// Provider extracts text from an uploaded attachment. Implementations are
// treated as black-box text producers.
type Provider interface {
	ExtractText(ctx context.Context, data []byte, contentType string) (string, error)
}

// NormalizeText collapses whitespace and strips control bytes so extracted
// text is safe to embed and prompt with.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\x00", " ")
	text = strings.ToValidUTF8(text, "")
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}
