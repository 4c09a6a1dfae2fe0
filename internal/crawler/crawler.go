package crawler

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/harrison/contextpacker/internal/fetch"
	"github.com/harrison/contextpacker/internal/filelock"
	"github.com/harrison/contextpacker/internal/models"
	"github.com/harrison/contextpacker/internal/msgbus"
	"github.com/harrison/contextpacker/internal/task"
)

// pollInterval slices pacing delays so cancellation is observed promptly
// even mid-pause.
const pollInterval = 100 * time.Millisecond

// frontierItem is one pending fetch: the absolute URL and its link depth
// from the start URL.
type frontierItem struct {
	url   string
	depth int
}

// Crawler runs BFS crawls. The fetcher is the only retrieval dependency;
// the bus receives every observable event including the terminal status.
type Crawler struct {
	fetcher fetch.Fetcher
	bus     *msgbus.Bus
	rng     *rand.Rand
}

// New creates a Crawler publishing to bus and fetching through fetcher.
func New(fetcher fetch.Fetcher, bus *msgbus.Bus) *Crawler {
	return &Crawler{
		fetcher: fetcher,
		bus:     bus,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Crawl walks the link graph breadth-first from cfg.StartURL, saving each
// page as markdown under cfg.OutputDir. It terminates when the frontier
// empties, the saved-page count reaches cfg.MaxPages, or cancellation is
// observed. The returned Status is the job's terminal message; the caller
// (the task manager's job wrapper) publishes it. Per-page fetch failures
// are logged and skipped.
func (c *Crawler) Crawl(cfg models.CrawlRequest, cancel *task.CancelToken) msgbus.Status {
	if err := cfg.Validate(); err != nil {
		return msgbus.Status{Kind: msgbus.StatusError, Detail: err.Error()}
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return msgbus.Status{Kind: msgbus.StatusError, Detail: fmt.Sprintf("cannot create output directory: %v", err)}
	}

	c.bus.Publish(msgbus.Log{Text: "Starting web crawl..."})

	startHost := Host(cfg.StartURL)
	frontier := []frontierItem{{url: cfg.StartURL, depth: 0}}
	visited := NewVisitedSet(cfg.MaxPages)
	visited.Add(Normalize(cfg.StartURL, cfg.IgnoreQueries))
	saved := 0

	for len(frontier) > 0 && saved < cfg.MaxPages {
		if cancel.IsSet() {
			break
		}

		item := frontier[0]
		frontier = frontier[1:]

		c.bus.Publish(msgbus.Progress{Value: saved, Max: cfg.MaxPages})
		c.bus.Publish(msgbus.Log{Text: fmt.Sprintf("GET (Depth %d): %s", item.depth, item.url)})

		page, err := c.fetcher.Fetch(context.Background(), item.url)
		if err != nil {
			c.bus.Publish(msgbus.Log{Text: fmt.Sprintf("  -> FETCH ERROR on %s: %v", item.url, err)})
			continue
		}

		c.pause(cfg.MinPause, cfg.MaxPause, cancel)
		if cancel.IsSet() {
			break
		}

		if page.StatusCode == 404 {
			c.bus.Publish(msgbus.Log{Text: fmt.Sprintf("  -> Skipping (404 Not Found): %s", page.FinalURL)})
			continue
		}
		if !page.IsHTML() {
			c.bus.Publish(msgbus.Log{Text: fmt.Sprintf("  -> Skipping (non-HTML %q): %s", page.ContentType, page.FinalURL)})
			continue
		}

		finalURL := page.FinalURL
		if cfg.IgnoreQueries {
			finalURL = Normalize(finalURL, true)
		}
		visited.Add(Normalize(finalURL, cfg.IgnoreQueries))

		content, err := page.Markdown()
		if err != nil {
			c.bus.Publish(msgbus.Log{Text: fmt.Sprintf("  -> PROCESSING ERROR on %s: %v", finalURL, err)})
			continue
		}

		filename := SanitizeFilename(finalURL) + ".md"
		outputPath := filepath.Join(cfg.OutputDir, filename)
		if err := filelock.AtomicWrite(outputPath, []byte(content)); err != nil {
			c.bus.Publish(msgbus.Log{Text: fmt.Sprintf("  -> WRITE ERROR on %s: %v", outputPath, err)})
			continue
		}

		saved++
		c.bus.Publish(msgbus.FileSaved{
			URL:      finalURL,
			Path:     outputPath,
			Filename: filename,
			Saved:    saved,
			Max:      cfg.MaxPages,
			QueueLen: len(frontier),
		})

		if item.depth < cfg.MaxDepth {
			frontier = c.enqueueLinks(frontier, page, finalURL, item.depth, cfg, startHost, visited)
		}
	}

	if cancel.IsSet() {
		return msgbus.Status{Kind: msgbus.StatusCancelled, Detail: "Process cancelled by user."}
	}
	return msgbus.Status{
		Kind:   msgbus.StatusCompleted,
		Detail: fmt.Sprintf("Web scrape finished. Saved %d pages.", saved),
	}
}

// enqueueLinks resolves, normalizes and filters the page's outbound anchors
// and appends unseen survivors to the frontier at depth+1.
func (c *Crawler) enqueueLinks(frontier []frontierItem, page *fetch.Page, baseURL string, depth int, cfg models.CrawlRequest, startHost string, visited *VisitedSet) []frontierItem {
	for _, href := range page.Links() {
		if skippableHref(href) {
			continue
		}

		abs := Resolve(baseURL, href)
		if abs == "" {
			continue
		}
		normalized := Normalize(abs, cfg.IgnoreQueries)

		if cfg.StayOnSubdomain && Host(abs) != startHost {
			continue
		}
		if len(cfg.ExcludePaths) > 0 && matchesAny(abs, cfg.ExcludePaths) {
			continue
		}
		if len(cfg.IncludePaths) > 0 && !matchesAny(abs, cfg.IncludePaths) {
			continue
		}

		if visited.Add(normalized) {
			frontier = append(frontier, frontierItem{url: abs, depth: depth + 1})
		}
	}
	return frontier
}

// pause sleeps for a duration drawn uniformly from [min, max], polling the
// cancel token so a cancel mid-pause returns within one poll interval.
func (c *Crawler) pause(min, max time.Duration, cancel *task.CancelToken) {
	if max <= 0 {
		return
	}
	delay := min
	if span := max - min; span > 0 {
		delay += time.Duration(c.rng.Int63n(int64(span)))
	}
	deadline := time.Now().Add(delay)
	for time.Now().Before(deadline) {
		if cancel.IsSet() {
			return
		}
		remaining := time.Until(deadline)
		if remaining > pollInterval {
			remaining = pollInterval
		}
		time.Sleep(remaining)
	}
}
