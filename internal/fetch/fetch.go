// Package fetch defines the narrow page-retrieval contract the crawler
// depends on, together with the default net/http implementation. The
// crawler never sees anything below this contract, so the retrieval
// mechanism can change without touching traversal logic.
package fetch

import (
	"context"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// Page is the result of fetching a single URL.
type Page struct {
	// FinalURL is the URL after redirects
	FinalURL string

	// StatusCode is the HTTP status of the final response
	StatusCode int

	// ContentType is the final response's Content-Type header value
	ContentType string

	doc *goquery.Document
}

// Fetcher retrieves one page. Implementations must respect ctx for
// cancellation and apply their own fetch timeout ceiling.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// IsHTML reports whether the response carried parseable HTML.
func (p *Page) IsHTML() bool {
	return p.doc != nil && strings.Contains(p.ContentType, "html")
}

// Title returns the document title, empty for non-HTML pages.
func (p *Page) Title() string {
	if p.doc == nil {
		return ""
	}
	return strings.TrimSpace(p.doc.Find("title").First().Text())
}

// Links returns the raw href values of all anchors on the page, in document
// order. Filtering and resolution are the crawler's concern.
func (p *Page) Links() []string {
	if p.doc == nil {
		return nil
	}
	var hrefs []string
	p.doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok && href != "" {
			hrefs = append(hrefs, href)
		}
	})
	return hrefs
}

// Markdown converts the page to markdown with script and style content
// removed. Returns empty output for non-HTML pages.
func (p *Page) Markdown() (string, error) {
	if p.doc == nil {
		return "", nil
	}
	p.doc.Find("script, style").Remove()

	converter := md.NewConverter("", true, nil)
	return converter.Convert(p.doc.Selection), nil
}
