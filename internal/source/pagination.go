package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shanehull/estatecrawler/internal/extract"
)

var ErrInvalidStartURL = errors.New("invalid start URL")

var pageSegmentRe = regexp.MustCompile(`/page/\d+/?$`)

type Mode string

const (
	ModeAuto      Mode = "auto"
	ModeCounted   Mode = "counted"
	ModeHeuristic Mode = "heuristic"
)

type StopReason string

const (
	StopLastPage            StopReason = "last_page"
	StopEmptyPage           StopReason = "empty_page"
	StopConsecutiveFailures StopReason = "consecutive_failures"
	StopMaxPages            StopReason = "max_pages"
	StopStartFailed         StopReason = "start_failed"
	StopCancelled           StopReason = "cancelled"
)

// Crawl is the outcome of discovering listing URLs for one start URL.
type Crawl struct {
	URLs         []string
	PagesFetched int
	Stop         StopReason
}

type PaginatorOptions struct {
	Mode        Mode
	MaxFailures int
	MaxPages    int
}

// Paginator walks listing pages and collects detail URLs in presentation order.
type Paginator struct {
	logger    *slog.Logger
	fetcher   Fetcher
	extractor *extract.Extractor
	opts      PaginatorOptions
}

func NewPaginator(logger *slog.Logger, fetcher Fetcher, extractor *extract.Extractor, opts PaginatorOptions) *Paginator {
	if opts.Mode == "" {
		opts.Mode = ModeAuto
	}
	if opts.MaxFailures <= 0 {
		opts.MaxFailures = 3
	}
	return &Paginator{logger: logger, fetcher: fetcher, extractor: extractor, opts: opts}
}

// crawlState lives for a single Discover call.
type crawlState struct {
	page     int
	failures int
	fetched  int
	urls     []string
}

// ValidateStartURL rejects URLs that cannot start a crawl.
func ValidateStartURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidStartURL, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidStartURL, raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q: missing host", ErrInvalidStartURL, raw)
	}
	return u, nil
}

// Discover returns every detail URL reachable through the pagination of startURL.
// Fetch failures never surface as errors; only an invalid start URL does.
func (p *Paginator) Discover(ctx context.Context, startURL string) (Crawl, error) {
	if _, err := ValidateStartURL(startURL); err != nil {
		return Crawl{}, err
	}

	if p.opts.Mode == ModeHeuristic {
		return p.heuristic(ctx, startURL, nil), nil
	}

	// The start page gets the same consecutive-failure budget as any other page.
	var start *goquery.Document
	var err error
	for failures := 0; failures < p.opts.MaxFailures; {
		if ctx.Err() != nil {
			return p.finish(crawlState{urls: []string{}}, StopCancelled), nil
		}
		if start, err = p.fetchDoc(ctx, startURL); err == nil {
			break
		}
		failures++
		p.logger.Warn("Start page failed", "url", startURL, "consecutive_failures", failures, "not_found", notFound(err), "err", err)
	}
	if err != nil {
		p.logger.Warn("Start page failed, no listings collected", "url", startURL)
		return p.finish(crawlState{urls: []string{}}, StopStartFailed), nil
	}

	last, ok := p.extractor.LastPage(start)
	if !ok {
		if p.opts.Mode == ModeCounted {
			p.logger.Warn("No last page indicator, falling back to heuristic pagination", "url", startURL)
		}
		return p.heuristic(ctx, startURL, start), nil
	}
	return p.counted(ctx, startURL, start, last), nil
}

func (p *Paginator) counted(ctx context.Context, base string, first *goquery.Document, last int) Crawl {
	if p.opts.MaxPages > 0 && last > p.opts.MaxPages {
		p.logger.Warn("Last page exceeds max pages, truncating", "last_page", last, "max_pages", p.opts.MaxPages)
		last = p.opts.MaxPages
	}
	p.logger.Info("Counted pagination", "url", base, "last_page", last)

	st := crawlState{page: 1, fetched: 1, urls: p.extractor.ListingURLs(first)}
	for st.page = 2; st.page <= last; st.page++ {
		if ctx.Err() != nil {
			return p.finish(st, StopCancelled)
		}
		pageURL := PageURL(base, st.page)
		doc, err := p.fetchDoc(ctx, pageURL)
		if err != nil {
			p.logger.Warn("Listing page failed, skipping", "url", pageURL, "not_found", notFound(err), "err", err)
			continue
		}
		st.fetched++
		urls := p.extractor.ListingURLs(doc)
		p.logger.Info("Scraped listing page", "url", pageURL, "found", len(urls))
		st.urls = append(st.urls, urls...)
	}
	return p.finish(st, StopLastPage)
}

// heuristic probes /page/N/ URLs until a page is empty or fetches keep failing.
// first, when non-nil, is used as page 1 instead of fetching it again.
func (p *Paginator) heuristic(ctx context.Context, base string, first *goquery.Document) Crawl {
	st := crawlState{page: 1, urls: []string{}}
	for {
		if ctx.Err() != nil {
			return p.finish(st, StopCancelled)
		}
		if p.opts.MaxPages > 0 && st.page > p.opts.MaxPages {
			return p.finish(st, StopMaxPages)
		}

		pageURL := PageURL(base, st.page)
		var doc *goquery.Document
		var err error
		if first != nil {
			doc, first = first, nil
		} else {
			doc, err = p.fetchDoc(ctx, pageURL)
		}
		if err != nil {
			st.failures++
			p.logger.Warn("Listing page failed", "url", pageURL, "consecutive_failures", st.failures, "not_found", notFound(err), "err", err)
			if st.failures >= p.opts.MaxFailures {
				if st.fetched == 0 {
					p.logger.Warn("Start page failed, no listings collected", "url", base)
					return p.finish(st, StopStartFailed)
				}
				return p.finish(st, StopConsecutiveFailures)
			}
			continue
		}
		st.failures = 0
		st.fetched++

		urls := p.extractor.ListingURLs(doc)
		if len(urls) == 0 {
			p.logger.Info("No listings on page", "url", pageURL)
			return p.finish(st, StopEmptyPage)
		}
		p.logger.Info("Scraped listing page", "url", pageURL, "found", len(urls))
		st.urls = append(st.urls, urls...)
		st.page++
	}
}

func (p *Paginator) finish(st crawlState, reason StopReason) Crawl {
	p.logger.Info("Pagination stopped", "reason", reason, "pages_fetched", st.fetched, "urls", len(st.urls))
	return Crawl{URLs: st.urls, PagesFetched: st.fetched, Stop: reason}
}

// notFound reports whether err is a 404 or 410 rather than a transport or server failure.
func notFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.NotFound()
}

func (p *Paginator) fetchDoc(ctx context.Context, pageURL string) (*goquery.Document, error) {
	page, err := p.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return extract.Parse(page.Body, pageURL)
}

// PageURL builds the URL of page n of a paginated listing. Any existing
// /page/N/ segment is replaced and the query string is preserved.
func PageURL(base string, n int) string {
	path, query, hasQuery := strings.Cut(base, "?")
	path = strings.TrimRight(path, "/")
	path = pageSegmentRe.ReplaceAllString(path+"/", "")
	path = strings.TrimRight(path, "/")

	u := fmt.Sprintf("%s/page/%d/", path, n)
	if hasQuery {
		u += "?" + query
	}
	return u
}
