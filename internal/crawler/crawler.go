package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	colly "github.com/gocolly/colly/v2"
	"golang.org/x/net/html/charset"

	"rag-chatbot-backend/internal/logger"
	"rag-chatbot-backend/models"
)

// ErrSeedUnreachable is returned when the seed URL itself cannot be fetched.
// Failures on any other page are non-fatal: the page is skipped and the
// crawl continues.
var ErrSeedUnreachable = errors.New("seed URL unreachable")

var httpTransport = &http.Transport{
	DisableCompression: false, // enables gzip decompression
}

// Crawler fetches linked pages reachable from a seed URL, confined to the
// seed's host. Each crawl invocation gets a fresh collector; nothing is
// persisted between invocations.
type Crawler struct {
	maxPages int
	timeout  time.Duration
}

func New(maxPages int, timeout time.Duration) *Crawler {
	if maxPages <= 0 {
		maxPages = 50
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Crawler{maxPages: maxPages, timeout: timeout}
}

// Crawl traverses hyperlinks from seedURL up to maxDepth hops away and
// returns the raw HTML documents found. Cross-host links are never
// followed. URLs are deduplicated in normalized form within one
// invocation, so cyclic link graphs terminate.
func (cr *Crawler) Crawl(ctx context.Context, seedURL string, maxDepth int) ([]models.RawDocument, error) {
	parsedSeed, err := url.Parse(seedURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %v", ErrSeedUnreachable, err)
	}
	if parsedSeed.Scheme == "" {
		parsedSeed.Scheme = "https"
		seedURL = parsedSeed.String()
	}

	normalizedSeed, err := normalizeURL(seedURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL format: %v", ErrSeedUnreachable, err)
	}

	seedHost := hostKey(parsedSeed.Hostname())

	// colly counts the seed visit as depth 1, so N hops away is depth N+1.
	c := colly.NewCollector(colly.MaxDepth(maxDepth + 1))
	c.WithTransport(httpTransport)
	c.SetRequestTimeout(cr.timeout)
	c.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	var (
		docsMu sync.Mutex
		docs   []models.RawDocument
	)
	processed := sync.Map{}
	var seedErr error
	var seedErrMu sync.Mutex

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	c.OnResponse(func(r *colly.Response) {
		contentType := r.Headers.Get("Content-Type")
		if contentType != "" && !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml+xml") {
			// Binary or non-HTML content: skip the page, keep crawling.
			return
		}

		// Go's transport decompresses gzip; brotli needs handling here.
		if strings.Contains(r.Headers.Get("Content-Encoding"), "br") {
			decompressed, err := io.ReadAll(brotli.NewReader(bytes.NewReader(r.Body)))
			if err == nil {
				r.Body = decompressed
			}
		}

		// Decode whatever charset the page declares into UTF-8.
		if len(r.Body) > 0 {
			utf8Reader, err := charset.NewReader(bytes.NewReader(r.Body), contentType)
			if err == nil {
				if decoded, readErr := io.ReadAll(utf8Reader); readErr == nil && len(decoded) > 0 {
					r.Body = decoded
				}
			}
		}
	})

	c.OnHTML("html", func(e *colly.HTMLElement) {
		docsMu.Lock()
		defer docsMu.Unlock()

		if len(docs) >= cr.maxPages {
			return
		}

		normalized, err := normalizeURL(e.Request.URL.String())
		if err != nil {
			return
		}
		if _, seen := processed.LoadOrStore(normalized, true); seen {
			return
		}

		docs = append(docs, models.RawDocument{
			URL:        normalized,
			Title:      strings.TrimSpace(e.DOM.Find("title").Text()),
			HTML:       string(e.Response.Body),
			StatusCode: e.Response.StatusCode,
			FetchedAt:  time.Now(),
		})

		e.DOM.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok || href == "" {
				return
			}
			hrefLower := strings.ToLower(href)
			if strings.HasPrefix(href, "#") ||
				strings.HasPrefix(hrefLower, "javascript:") ||
				strings.HasPrefix(hrefLower, "mailto:") ||
				strings.HasPrefix(hrefLower, "tel:") {
				return
			}

			absolute := e.Request.AbsoluteURL(href)
			if absolute == "" {
				return
			}
			normalizedLink, err := normalizeURL(absolute)
			if err != nil {
				return
			}
			if !sameHost(normalizedLink, seedHost) {
				return
			}
			if _, seen := processed.Load(normalizedLink); seen {
				return
			}
			// colly enforces the depth bound and skips already-visited URLs.
			e.Request.Visit(normalizedLink)
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		requestURL := r.Request.URL.String()
		normalized, _ := normalizeURL(requestURL)

		if strings.Contains(err.Error(), "already visited") {
			return
		}

		logger.Warn("page fetch failed", "url", requestURL, "status", r.StatusCode, "err", err)

		if normalized == normalizedSeed {
			seedErrMu.Lock()
			if r.StatusCode != 0 {
				seedErr = fmt.Errorf("HTTP %d: %v", r.StatusCode, err)
			} else {
				seedErr = err
			}
			seedErrMu.Unlock()
		}
	})

	logger.Info("starting crawl", "seed", normalizedSeed, "max_depth", maxDepth, "max_pages", cr.maxPages)

	if err := c.Visit(normalizedSeed); err != nil && !strings.Contains(err.Error(), "already visited") {
		return nil, fmt.Errorf("%w: %v", ErrSeedUnreachable, err)
	}
	c.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	docsMu.Lock()
	defer docsMu.Unlock()

	if len(docs) == 0 {
		seedErrMu.Lock()
		defer seedErrMu.Unlock()
		if seedErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrSeedUnreachable, seedErr)
		}
	}

	logger.Info("crawl finished", "seed", normalizedSeed, "pages", len(docs))
	return docs, nil
}

// normalizeURL converts a URL to a canonical form for duplicate detection:
// no fragment, lowercase scheme and host, no trailing slash on non-root
// paths, default ports stripped.
func normalizeURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	parsed.Fragment = ""

	path := parsed.Path
	if path == "" {
		path = "/"
	} else if path != "/" {
		path = strings.TrimSuffix(path, "/")
		if path == "" {
			path = "/"
		}
	}
	parsed.Path = path

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)

	if (parsed.Port() == "80" && parsed.Scheme == "http") ||
		(parsed.Port() == "443" && parsed.Scheme == "https") {
		host, _, _ := strings.Cut(parsed.Host, ":")
		parsed.Host = host
	}

	return parsed.String(), nil
}

// hostKey strips a leading www. so www and bare variants compare equal.
func hostKey(hostname string) string {
	return strings.TrimPrefix(strings.ToLower(hostname), "www.")
}

func sameHost(rawURL, seedHost string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return hostKey(parsed.Hostname()) == seedHost
}
