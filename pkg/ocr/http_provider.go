package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPProvider posts attachment bytes to an external OCR endpoint and
// reads back `{"text": "..."}`. PDF attachments short-circuit to local
// extraction, the remote service only sees images.
type HTTPProvider struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

var _ Provider = &HTTPProvider{}

func NewHTTPProvider(endpoint, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type ocrResponse struct {
	Text string `json:"text"`
}

func (p *HTTPProvider) ExtractText(ctx context.Context, data []byte, contentType string) (string, error) {
	if strings.Contains(contentType, "pdf") {
		return ExtractPDFText(data)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.Endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if p.APIKey != "" {
		req.Header.Set("X-API-Key", p.APIKey)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ocr error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var parsed ocrResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	return NormalizeText(parsed.Text), nil
}
