package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvidoni/sociograph/scrape"
)

var (
	scrapeOut     string
	scrapeTimeout time.Duration
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>...",
	Short: "Fetch web pages and print their readable text",
	Long: `Scrape downloads one or more URLs, honouring robots.txt and a
per-domain rate limit, and prints the paragraph text of each page.

Example:
  sociograph scrape https://example.org/news/launch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVar(&scrapeOut, "out", "", "write combined text to a file instead of stdout")
	scrapeCmd.Flags().DurationVar(&scrapeTimeout, "timeout", 2*time.Minute, "overall timeout for all fetches")
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	scraper := scrape.New(scrape.Config{
		UserAgent:     cfg.Scrape.UserAgent,
		Timeout:       time.Duration(cfg.Scrape.TimeoutSeconds) * time.Second,
		CacheTTL:      time.Duration(cfg.Scrape.CacheTTLSeconds) * time.Second,
		RatePerDomain: cfg.Scrape.RatePerSecond,
		RespectRobots: cfg.Scrape.RespectRobots,
	})

	ctx, cancel := context.WithTimeout(context.Background(), scrapeTimeout)
	defer cancel()

	pages, err := scraper.FetchAll(ctx, args)
	if err != nil {
		return err
	}

	out := os.Stdout
	if scrapeOut != "" {
		f, err := os.Create(scrapeOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	for _, page := range pages {
		if page == nil {
			continue
		}
		if page.Title != "" {
			fmt.Fprintf(out, "# %s (%s)\n\n", page.Title, page.URL)
		} else {
			fmt.Fprintf(out, "# %s\n\n", page.URL)
		}
		fmt.Fprintln(out, page.Text)
		fmt.Fprintln(out)
	}
	return nil
}
