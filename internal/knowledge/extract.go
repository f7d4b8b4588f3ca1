package knowledge

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/agentcore/core/internal/net/ssrf"
)

// ContentExtractor fetches a URL and pulls readable text out of its HTML via
// goquery, rejecting requests that resolve to private or reserved address
// space so a BROWSER/SEARCH_WEB-driven fetch can't be used to probe internal
// infrastructure.
type ContentExtractor struct {
	httpClient    *http.Client
	skipSSRFCheck bool // disabled only in tests, against an explicit local fixture server
}

// NewContentExtractor builds a ContentExtractor with the given per-request
// timeout.
func NewContentExtractor(timeout time.Duration) *ContentExtractor {
	return &ContentExtractor{
		httpClient: &http.Client{Timeout: timeout},
	}
}

const maxExtractedChars = 20000

// Extract fetches rawURL and returns its visible text content, truncated to
// maxExtractedChars. Script, style, nav, and footer elements are dropped
// before text extraction so the result is mostly article body.
func (e *ContentExtractor) Extract(ctx context.Context, rawURL string) (string, error) {
	if err := e.guardAgainstSSRF(rawURL); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("knowledge: build request: %w", err)
	}
	req.Header.Set("User-Agent", "agentcore-knowledge/1.0")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("knowledge: fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("knowledge: fetch %s: status %d", rawURL, resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, 5<<20) // 5MiB cap on raw HTML
	doc, err := goquery.NewDocumentFromReader(limited)
	if err != nil {
		return "", fmt.Errorf("knowledge: parse html: %w", err)
	}

	doc.Find("script, style, nav, footer, noscript").Remove()

	text := strings.TrimSpace(collapseWhitespace(doc.Find("body").Text()))
	if len(text) > maxExtractedChars {
		text = text[:maxExtractedChars]
	}
	return text, nil
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// guardAgainstSSRF rejects URLs whose host is a blocked name (cloud metadata
// endpoints, .internal/.local suffixes) or resolves to private, loopback, or
// reserved address space, so a BROWSER/SEARCH_WEB-driven fetch can't be used
// to probe internal infrastructure.
func (e *ContentExtractor) guardAgainstSSRF(rawURL string) error {
	if e.skipSSRFCheck {
		return nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("knowledge: invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("knowledge: unsupported scheme %q", parsed.Scheme)
	}

	if err := ssrf.ValidatePublicHostname(parsed.Hostname()); err != nil {
		return fmt.Errorf("knowledge: refusing to fetch %s: %w", rawURL, err)
	}
	return nil
}
