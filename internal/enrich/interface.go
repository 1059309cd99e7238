package enrich

import (
	"context"

	"github.com/shanehull/estatecrawler/internal/model"
)

type Enricher interface {
	Enrich(ctx context.Context, record *model.PropertyRecord) (Result, error)
}

// GeocodeClient looks up a free-text location. found is false when the
// service answered but had no match. Errors wrapping ErrTransient are retried.
type GeocodeClient interface {
	Lookup(ctx context.Context, query string) (coords model.Coordinates, found bool, err error)
}
