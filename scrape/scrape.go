package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var (
	// ErrNotHTML is returned when a URL does not serve an HTML page.
	ErrNotHTML = errors.New("scrape: response is not HTML")

	// ErrRobotsDisallowed is returned when robots.txt forbids fetching a URL.
	ErrRobotsDisallowed = errors.New("scrape: fetch disallowed by robots.txt")
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	defaultTimeout   = 10 * time.Second
	defaultCacheTTL  = 15 * time.Minute
	defaultRate      = 1.0

	// fetchConcurrency bounds parallel fetches in FetchAll.
	fetchConcurrency = 4
)

// Page is the readable content of one fetched URL: the page title and the
// text of its paragraph elements.
type Page struct {
	URL       string    `json:"url"`
	Title     string    `json:"title,omitempty"`
	Text      string    `json:"text"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Config controls fetching behaviour. Zero values fall back to defaults;
// RespectRobots must be set explicitly.
type Config struct {
	UserAgent     string
	Timeout       time.Duration
	CacheTTL      time.Duration
	RatePerDomain float64
	RespectRobots bool
}

// Scraper fetches web pages and reduces them to plain text. Fetched pages
// are cached by URL, requests are rate limited per host, and robots.txt is
// honoured when configured. Safe for concurrent use.
type Scraper struct {
	cfg    Config
	client *http.Client
	pages  *gocache.Cache

	mu       sync.Mutex
	robots   map[string]*robotstxt.RobotsData
	limiters map[string]*rate.Limiter
}

// New returns a Scraper for the given configuration.
func New(cfg Config) *Scraper {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	if cfg.RatePerDomain <= 0 {
		cfg.RatePerDomain = defaultRate
	}
	return &Scraper{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		pages:    gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		robots:   make(map[string]*robotstxt.RobotsData),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Fetch downloads one URL and extracts its paragraph text. Results are
// served from cache within the TTL without touching the network.
func (s *Scraper) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("scrape: parse url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("scrape: unsupported scheme %q", parsed.Scheme)
	}

	if cached, ok := s.pages.Get(rawURL); ok {
		return cached.(*Page), nil
	}

	if s.cfg.RespectRobots && !s.allowed(ctx, parsed) {
		return nil, fmt.Errorf("%w: %s", ErrRobotsDisallowed, rawURL)
	}

	if err := s.limiter(parsed.Host).Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("scrape: build request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scrape: fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("scrape: fetch %s: status %d", rawURL, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return nil, fmt.Errorf("%w: content type %q", ErrNotHTML, ct)
	}

	title, text, err := extractText(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("scrape: parse html: %w", err)
	}

	page := &Page{URL: rawURL, Title: title, Text: text, FetchedAt: time.Now()}
	s.pages.Set(rawURL, page, gocache.DefaultExpiration)
	return page, nil
}

// FetchAll fetches every URL with at most fetchConcurrency requests in
// flight. Results preserve input order; the first failure aborts the batch.
func (s *Scraper) FetchAll(ctx context.Context, urls []string) ([]*Page, error) {
	pages := make([]*Page, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, u := range urls {
		g.Go(func() error {
			page, err := s.Fetch(ctx, u)
			if err != nil {
				return err
			}
			pages[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

// allowed checks robots.txt for the URL's host. An unreachable or broken
// robots.txt does not block the fetch.
func (s *Scraper) allowed(ctx context.Context, u *url.URL) bool {
	data, err := s.robotsFor(ctx, u)
	if err != nil {
		slog.Debug("scrape: robots.txt unavailable, allowing fetch",
			"host", u.Host, "error", err)
		return true
	}
	return data.TestAgent(u.Path, s.cfg.UserAgent)
}

// robotsFor returns the cached robots.txt rules for the URL's host,
// fetching them on first use.
func (s *Scraper) robotsFor(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	s.mu.Lock()
	data, ok := s.robots[u.Host]
	s.mu.Unlock()
	if ok {
		return data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.robots[u.Host] = data
	s.mu.Unlock()
	return data, nil
}

// limiter returns the per-host rate limiter, creating it on first use.
func (s *Scraper) limiter(host string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(s.cfg.RatePerDomain), 1)
		s.limiters[host] = l
	}
	return l
}

// extractText parses an HTML document and returns its title and the
// trimmed text of its paragraph elements joined by blank lines.
func extractText(r io.Reader) (title, text string, err error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", "", err
	}

	var paragraphs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "title":
				if title == "" {
					title = strings.TrimSpace(nodeText(n))
				}
				return
			case "p":
				if t := strings.TrimSpace(nodeText(n)); t != "" {
					paragraphs = append(paragraphs, t)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return title, strings.Join(paragraphs, "\n\n"), nil
}

// nodeText concatenates the text nodes under n, skipping script-like
// elements.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
