package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// Page is the raw result of fetching one URL.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.URL, e.Code)
}

// NotFound reports whether the status means the page does not exist.
func (e *StatusError) NotFound() bool {
	return e.Code == http.StatusNotFound || e.Code == http.StatusGone
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

type FetcherOptions struct {
	// UserAgent defaults to a randomly chosen desktop browser string.
	UserAgent string
	Timeout   time.Duration
	// Delay is the minimum spacing between requests to the same domain.
	Delay       time.Duration
	RandomDelay time.Duration
}

// CollyFetcher fetches pages one at a time through a single rate-limited collector.
type CollyFetcher struct {
	logger    *slog.Logger
	collector *colly.Collector
}

func NewCollyFetcher(logger *slog.Logger, opts FetcherOptions) (*CollyFetcher, error) {
	ua := opts.UserAgent
	if ua == "" {
		ua = randomUserAgent()
	}
	c := colly.NewCollector(colly.AllowURLRevisit(), colly.UserAgent(ua))
	if opts.Timeout > 0 {
		c.SetRequestTimeout(opts.Timeout)
	}
	err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       opts.Delay,
		RandomDelay: opts.RandomDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("configure rate limit: %w", err)
	}
	logger.Debug("Fetcher ready", "ua", ua)
	return &CollyFetcher{logger: logger, collector: c}, nil
}

func (f *CollyFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Clones share the backend, so the limit rule and timeout still apply.
	c := f.collector.Clone()

	var page *Page
	var status int
	c.OnResponse(func(r *colly.Response) {
		page = &Page{URL: r.Request.URL.String(), StatusCode: r.StatusCode, Body: r.Body}
	})
	c.OnError(func(r *colly.Response, err error) {
		status = r.StatusCode
	})

	f.logger.Debug("Fetching page", "url", url)
	if err := c.Visit(url); err != nil {
		if status != 0 {
			return nil, &StatusError{URL: url, Code: status}
		}
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	c.Wait()

	if page == nil {
		return nil, errors.New("fetch " + url + ": no response")
	}
	return page, nil
}
