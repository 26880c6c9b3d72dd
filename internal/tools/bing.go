package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/html"
)

const desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"

// BingImages scrapes Bing image search results. Result anchors carry an "m"
// attribute holding JSON with the media URL.
type BingImages struct {
	BaseURL string
	Client  *http.Client
}

// NewBingImages returns a searcher against the public Bing endpoint.
func NewBingImages() *BingImages {
	return &BingImages{
		BaseURL: "https://www.bing.com/images/search",
		Client:  &http.Client{Timeout: 20 * time.Second},
	}
}

// Search returns the first result's media URL, or "" when nothing matched.
func (b *BingImages) Search(ctx context.Context, query string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.BaseURL+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return "", fmt.Errorf("tools: bing request: %w", err)
	}
	req.Header.Set("User-Agent", desktopUserAgent)

	resp, err := b.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tools: bing fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tools: bing status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("tools: bing parse: %w", err)
	}

	var found string
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "a" || !hasClass(n, "iusc") {
			return true
		}
		raw := attr(n, "m")
		if raw == "" {
			return true
		}
		var meta struct {
			MediaURL string `json:"murl"`
		}
		if json.Unmarshal([]byte(raw), &meta) != nil || meta.MediaURL == "" {
			return true
		}
		found = meta.MediaURL
		return false
	})
	return found, nil
}
