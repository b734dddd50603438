package websearch

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/patrickmn/go-cache"
)

var ogImagePattern = regexp.MustCompile(
	`<meta[^>]+(?:property|name)=["']og:image["'][^>]+content=["']([^"']+)["']|<meta[^>]+content=["']([^"']+)["'][^>]+(?:property|name)=["']og:image["']`,
)

// ImageEnricher resolves a preview image for web results by fetching the
// linked page and scraping its og:image tag. Best effort: failures leave
// the item untouched. Lookups are cached so repeated results across turns
// do not refetch the page.
type ImageEnricher struct {
	cache  *cache.Cache
	client *http.Client
}

func NewImageEnricher() *ImageEnricher {
	return &ImageEnricher{
		// 1 hour expiration, purge every 10 minutes
		cache: cache.New(1*time.Hour, 10*time.Minute),
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Enrich fills ImageUrl on each item in place.
func (e *ImageEnricher) Enrich(ctx context.Context, items []SearchItem) {
	for i := range items {
		if items[i].Link == "" || items[i].ImageUrl != "" {
			continue
		}
		items[i].ImageUrl = e.lookup(ctx, items[i].Link)
	}
}

func (e *ImageEnricher) lookup(ctx context.Context, pageURL string) string {
	if x, found := e.cache.Get(pageURL); found {
		return x.(string)
	}

	imageURL := e.fetchOgImage(ctx, pageURL)
	// Negative results are cached too, a page without og:image stays that way.
	e.cache.Set(pageURL, imageURL, cache.DefaultExpiration)
	return imageURL
}

func (e *ImageEnricher) fetchOgImage(ctx context.Context, pageURL string) string {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; notebook-ai/1.0)")

	resp, err := e.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	// og:image lives in <head>, 64KB is plenty.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return ""
	}

	match := ogImagePattern.FindSubmatch(body)
	if match == nil {
		return ""
	}
	if len(match[1]) > 0 {
		return string(match[1])
	}
	return string(match[2])
}
