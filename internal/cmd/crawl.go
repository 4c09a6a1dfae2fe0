package cmd

import (
	"github.com/spf13/cobra"

	"github.com/harrison/contextpacker/internal/crawler"
	"github.com/harrison/contextpacker/internal/fetch"
	"github.com/harrison/contextpacker/internal/models"
	"github.com/harrison/contextpacker/internal/msgbus"
	"github.com/harrison/contextpacker/internal/task"
)

// NewCrawlCommand creates the crawl command
func NewCrawlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <start-url>",
		Short: "Crawl a site into local markdown pages",
		Long: `Crawl walks a site breadth-first from the start URL, converts each
HTML page to markdown, and saves one file per page.

Pages are fetched with a randomized pause between requests. The crawl
stops when the frontier is empty, the page limit is reached, or it is
interrupted.

Examples:
  contextpacker crawl https://docs.example.com
  contextpacker crawl https://docs.example.com --max-pages 50 --max-depth 3
  contextpacker crawl https://docs.example.com -o ./docs --include /guide/
  contextpacker crawl https://example.com --no-subdomain-only --ignore-queries`,
		Args: cobra.ExactArgs(1),
		RunE: crawlCommand,
	}

	cmd.Flags().StringP("output", "o", "", "Output directory (default: a fresh session directory)")
	cmd.Flags().Int("max-pages", 0, "Maximum pages to save (0 = config default)")
	cmd.Flags().Int("max-depth", -1, "Maximum link depth (-1 = config default)")
	cmd.Flags().Duration("min-pause", -1, "Minimum pause between requests (-1 = config default)")
	cmd.Flags().Duration("max-pause", -1, "Maximum pause between requests (-1 = config default)")
	cmd.Flags().Bool("no-subdomain-only", false, "Follow links to other hosts")
	cmd.Flags().Bool("ignore-queries", false, "Treat URLs differing only in query string as the same page")
	cmd.Flags().StringSlice("include", nil, "Only follow URLs matching these prefixes or path fragments")
	cmd.Flags().StringSlice("exclude", nil, "Never follow URLs matching these prefixes or path fragments")

	return cmd
}

// crawlCommand implements the crawl command logic
func crawlCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output, err = a.sessionDir()
		if err != nil {
			return err
		}
		a.log.Infof("Saving pages to %s", output)
	}

	req := models.CrawlRequest{
		StartURL:        args[0],
		OutputDir:       output,
		MaxPages:        a.cfg.Crawler.MaxPages,
		MaxDepth:        a.cfg.Crawler.MaxDepth,
		MinPause:        a.cfg.Crawler.MinPause,
		MaxPause:        a.cfg.Crawler.MaxPause,
		StayOnSubdomain: true,
	}
	if v, _ := cmd.Flags().GetInt("max-pages"); v > 0 {
		req.MaxPages = v
	}
	if v, _ := cmd.Flags().GetInt("max-depth"); v >= 0 {
		req.MaxDepth = v
	}
	if v, _ := cmd.Flags().GetDuration("min-pause"); v >= 0 {
		req.MinPause = v
	}
	if v, _ := cmd.Flags().GetDuration("max-pause"); v >= 0 {
		req.MaxPause = v
	}
	if v, _ := cmd.Flags().GetBool("no-subdomain-only"); v {
		req.StayOnSubdomain = false
	}
	req.IgnoreQueries, _ = cmd.Flags().GetBool("ignore-queries")
	req.IncludePaths, _ = cmd.Flags().GetStringSlice("include")
	req.ExcludePaths, _ = cmd.Flags().GetStringSlice("exclude")

	fetcher := fetch.NewHTTPFetcher(a.cfg.Crawler.FetchTimeout, a.cfg.Crawler.UserAgents)
	c := crawler.New(fetcher, a.bus)

	installInterruptCancel(a)
	a.start()
	return a.run(task.SlotDownload, func(cancel *task.CancelToken) msgbus.Status {
		return c.Crawl(req, cancel)
	})
}
