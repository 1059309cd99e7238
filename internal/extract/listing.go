package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var pageSegmentRe = regexp.MustCompile(`/page/(\d+)/?`)

// Extractor turns parsed listing and detail pages into URLs and records.
// It performs no I/O.
type Extractor struct {
	sel Selectors
}

func New(sel Selectors) *Extractor {
	return &Extractor{sel: sel.WithDefaults()}
}

// Parse builds a queryable document from a raw page body. pageURL is kept on
// the document so relative links can be resolved.
func Parse(body []byte, pageURL string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	if u, err := url.Parse(pageURL); err == nil {
		doc.Url = u
	}
	return doc, nil
}

// ListingURLs returns the detail page links on a listing page in page order.
// An empty result means the page carries no listings.
func (e *Extractor) ListingURLs(doc *goquery.Document) []string {
	urls := []string{}
	doc.Find(e.sel.ListingLink).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		urls = append(urls, resolve(doc.Url, href))
	})
	return urls
}

// LastPage reads the highest page number advertised by the pagination control.
func (e *Extractor) LastPage(doc *goquery.Document) (int, bool) {
	last := 0
	doc.Find(e.sel.LastPage).Each(func(_ int, s *goquery.Selection) {
		candidates := []string{strings.TrimSpace(s.Text())}
		if v, ok := s.Attr(e.sel.LastPageAttr); ok {
			candidates = append(candidates, strings.TrimSpace(v))
		}
		if href, ok := s.Attr("href"); ok {
			if m := pageSegmentRe.FindStringSubmatch(href); m != nil {
				candidates = append(candidates, m[1])
			}
		}
		for _, c := range candidates {
			if n, err := strconv.Atoi(c); err == nil && n > last {
				last = n
			}
		}
	})
	return last, last > 0
}

func resolve(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
