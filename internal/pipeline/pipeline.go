package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shanehull/estatecrawler/internal/enrich"
	"github.com/shanehull/estatecrawler/internal/extract"
	"github.com/shanehull/estatecrawler/internal/model"
	"github.com/shanehull/estatecrawler/internal/source"
)

// Sink receives the ordered records of one crawl.
type Sink interface {
	ReplaceRecords(ctx context.Context, source string, records []model.PropertyRecord) error
}

type Stats struct {
	Found, Duplicates, Extracted, Failed, Geocoded, Unresolved, NoAddress int
}

type Result struct {
	StartURL string
	Crawl    source.Crawl
	Records  []model.PropertyRecord
	Stats    Stats
}

type Pipeline struct {
	logger    *slog.Logger
	fetcher   source.Fetcher
	paginator *source.Paginator
	extractor *extract.Extractor
	enricher  enrich.Enricher
	sink      Sink
	dedupe    bool
}

func New(logger *slog.Logger, fetcher source.Fetcher, paginator *source.Paginator, extractor *extract.Extractor, enricher enrich.Enricher, sink Sink, dedupe bool) *Pipeline {
	return &Pipeline{
		logger:    logger,
		fetcher:   fetcher,
		paginator: paginator,
		extractor: extractor,
		enricher:  enricher,
		sink:      sink,
		dedupe:    dedupe,
	}
}

// Run crawls one start URL end to end. Page and record failures are logged
// and skipped; only an invalid start URL or a sink failure is returned.
func (p *Pipeline) Run(ctx context.Context, startURL string) (Result, error) {
	res := Result{StartURL: startURL}

	crawl, err := p.paginator.Discover(ctx, startURL)
	if err != nil {
		return res, err
	}
	res.Crawl = crawl

	urls := crawl.URLs
	res.Stats.Found = len(urls)
	if p.dedupe {
		urls = dedupe(urls)
		res.Stats.Duplicates = res.Stats.Found - len(urls)
	}
	if crawl.Stop == source.StopStartFailed {
		p.logger.Warn("Crawl yielded no listings", "url", startURL)
	}

	res.Records = make([]model.PropertyRecord, 0, len(urls))
	for i, u := range urls {
		if ctx.Err() != nil {
			p.logger.Warn("Crawl cancelled", "processed", i, "remaining", len(urls)-i)
			break
		}

		rec, err := p.scrapeDetail(ctx, u)
		if err != nil {
			p.logger.Error("Detail page failed", "url", u, "err", err)
			res.Stats.Failed++
			continue
		}
		res.Stats.Extracted++

		geo, err := p.enricher.Enrich(ctx, &rec)
		if err != nil {
			p.logger.Warn("Enrichment interrupted", "url", u, "err", err)
		}
		switch {
		case geo.Resolved():
			res.Stats.Geocoded++
		case geo.Reason == enrich.ReasonNoQuery:
			res.Stats.NoAddress++
		default:
			res.Stats.Unresolved++
		}

		p.logger.Debug("Scraped details", "url", u, "name", rec.Name.OrEmpty(), "geocoded", rec.HasLocation())
		res.Records = append(res.Records, rec)
	}

	p.logger.Info("Pipeline Complete",
		"url", startURL,
		"stop_reason", crawl.Stop,
		"total_found", res.Stats.Found,
		"duplicates", res.Stats.Duplicates,
		"extracted", res.Stats.Extracted,
		"failed", res.Stats.Failed,
		"geocoded", res.Stats.Geocoded,
		"unresolved", res.Stats.Unresolved,
		"no_address", res.Stats.NoAddress)

	if err := p.sink.ReplaceRecords(ctx, startURL, res.Records); err != nil {
		return res, fmt.Errorf("save records for %s: %w", startURL, err)
	}
	return res, nil
}

func (p *Pipeline) scrapeDetail(ctx context.Context, u string) (model.PropertyRecord, error) {
	page, err := p.fetcher.Fetch(ctx, u)
	if err != nil {
		return model.PropertyRecord{}, err
	}
	doc, err := extract.Parse(page.Body, u)
	if err != nil {
		return model.PropertyRecord{}, err
	}
	return p.extractor.Record(doc, u), nil
}

// dedupe keeps the first occurrence of each URL.
func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}
