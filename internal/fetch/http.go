package fetch

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// maxBodyBytes caps how much of a response body is read; anything larger is
// truncated rather than failing the page.
const maxBodyBytes = 10 << 20 // 10 MiB

// HTTPFetcher fetches pages with net/http. A fetch that exceeds the timeout
// is reported as an error and treated by callers as a per-page skip.
type HTTPFetcher struct {
	client     *http.Client
	userAgents []string
	rng        *rand.Rand
}

// NewHTTPFetcher creates an HTTPFetcher with the given per-page timeout
// ceiling and User-Agent rotation list.
func NewHTTPFetcher(timeout time.Duration, userAgents []string) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPFetcher{
		client:     &http.Client{Timeout: timeout},
		userAgents: userAgents,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Fetch retrieves rawURL and parses HTML responses into a queryable
// document. Non-HTML responses return a Page with no document; callers
// check Page.IsHTML.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}
	if ua := f.userAgent(); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	page := &Page{
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}

	if !strings.Contains(page.ContentType, "html") {
		// Drain a little so the connection can be reused, then bail
		io.CopyN(io.Discard, resp.Body, 4096)
		return page, nil
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", page.FinalURL, err)
	}
	page.doc = doc
	return page, nil
}

// userAgent picks a random entry from the rotation list.
func (f *HTTPFetcher) userAgent() string {
	if len(f.userAgents) == 0 {
		return ""
	}
	return f.userAgents[f.rng.Intn(len(f.userAgents))]
}
