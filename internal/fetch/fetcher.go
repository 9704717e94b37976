package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	appErr "github.com/xxxsen/merlin/internal/pkg/errors"
)

// Fetcher resolves a URL to plain extracted text. Implementations must not
// return markup.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (title string, text string, err error)
}

type httpFetcher struct {
	client  *http.Client
	maxBody int64
}

func NewHTTPFetcher(timeout time.Duration) Fetcher {
	return &httpFetcher{
		client:  &http.Client{Timeout: timeout},
		maxBody: 4 << 20,
	}
}

func (f *httpFetcher) Fetch(ctx context.Context, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", appErr.ErrFetch, err)
	}
	req.Header.Set("User-Agent", "merlin/1.0")
	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", appErr.ErrFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", "", fmt.Errorf("%w: unexpected status %s", appErr.ErrFetch, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return "", "", fmt.Errorf("%w: read body: %v", appErr.ErrFetch, err)
	}
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") || looksLikeHTML(body) {
		title, text := extractHTMLText(body)
		if strings.TrimSpace(text) == "" {
			return "", "", fmt.Errorf("%w: no extractable text", appErr.ErrFetch)
		}
		return title, text, nil
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "", "", fmt.Errorf("%w: empty body", appErr.ErrFetch)
	}
	return "", text, nil
}

func looksLikeHTML(body []byte) bool {
	head := strings.ToLower(string(body[:min(len(body), 512)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}

// extractHTMLText walks the DOM collecting visible text, skipping script,
// style and head noise.
func extractHTMLText(body []byte) (string, string) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", ""
	}
	var title string
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "svg":
				return
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			}
		}
		if n.Type == html.TextNode {
			if txt := strings.TrimSpace(n.Data); txt != "" {
				parts = append(parts, txt)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title, strings.Join(parts, "\n")
}
