// Package extract locates image references inside product pages.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

// ErrNoImage reports that the page was fetched and parsed but the
// structural rule matched nothing. It is distinct from transport failures
// so callers can account the two separately.
var ErrNoImage = errors.New("no image reference on page")

// Rule is the declarative structural selector: a container marker and an
// image marker combined as a descendant selector. Swapping the rule does
// not touch pipeline logic.
type Rule struct {
	Container string
	Image     string
}

// Selector renders the combined CSS selector.
func (r Rule) Selector() string {
	return strings.TrimSpace(r.Container) + " " + strings.TrimSpace(r.Image)
}

// Config controls extractor behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	Rule      Rule
}

// Extractor fetches product pages and applies the structural rule.
type Extractor struct {
	cfg  Config
	base *colly.Collector
}

// New builds an Extractor with a pooled HTTP transport.
func New(cfg Config) *Extractor {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Rule.Container == "" {
		cfg.Rule.Container = "a.img-holder"
	}
	if cfg.Rule.Image == "" {
		cfg.Rule.Image = "img.img-fluid"
	}

	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	// Product pages, not a crawl: the sites serve these pages to browsers.
	c.IgnoreRobotsTxt = true
	// Failed discs are retried on later runs within the same process lifetime.
	c.AllowURLRevisit = true

	return &Extractor{cfg: cfg, base: c}
}

// ImageURL fetches pageURL and returns the absolute image reference the
// rule points at, or ErrNoImage when the page carries no match.
func (e *Extractor) ImageURL(ctx context.Context, pageURL string) (string, error) {
	collector := e.base.Clone()
	if e.cfg.UserAgent != "" {
		collector.UserAgent = e.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(e.cfg.Timeout)

	var (
		src      string
		fetchErr error
	)
	collector.OnHTML(e.cfg.Rule.Selector(), func(el *colly.HTMLElement) {
		if src == "" {
			src = strings.TrimSpace(el.Attr("src"))
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := visit(ctx, collector, pageURL); err != nil {
		return "", err
	}
	if fetchErr != nil {
		return "", fmt.Errorf("fetch page %s: %w", pageURL, fetchErr)
	}
	if src == "" {
		return "", ErrNoImage
	}
	return Resolve(pageURL, src)
}

func visit(ctx context.Context, collector *colly.Collector, pageURL string) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(pageURL)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("page fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("visit %s: %w", pageURL, err)
		}
		return nil
	}
}

// Resolve turns a scraped reference into an absolute URL. A reference
// beginning with "//" is protocol-relative and inherits the page scheme;
// one beginning with "/" is host-relative and inherits scheme and host;
// anything else is treated as already absolute.
func Resolve(pageURL, ref string) (string, error) {
	switch {
	case strings.HasPrefix(ref, "//"):
		page, err := url.Parse(pageURL)
		if err != nil {
			return "", fmt.Errorf("parse page url: %w", err)
		}
		return page.Scheme + ":" + ref, nil
	case strings.HasPrefix(ref, "/"):
		page, err := url.Parse(pageURL)
		if err != nil {
			return "", fmt.Errorf("parse page url: %w", err)
		}
		return fmt.Sprintf("%s://%s%s", page.Scheme, page.Host, ref), nil
	default:
		return ref, nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
