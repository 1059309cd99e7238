package enrich

import (
	"context"

	"github.com/shanehull/estatecrawler/internal/model"
)

// Geocoder enriches records with coordinates resolved from their address fields.
type Geocoder struct {
	resolver *Resolver
	fields   []string
}

func NewGeocoder(resolver *Resolver, fields []string) *Geocoder {
	if len(fields) == 0 {
		fields = []string{"city"}
	}
	return &Geocoder{resolver: resolver, fields: fields}
}

// Enrich resolves the record's address once. Records without an address are
// left untouched and never reach the resolver.
func (g *Geocoder) Enrich(ctx context.Context, record *model.PropertyRecord) (Result, error) {
	query, ok := record.GeocodeQuery(g.fields)
	if !ok {
		return Result{Status: Unresolved, Reason: ReasonNoQuery}, nil
	}

	res := g.resolver.Resolve(ctx, query)
	if res.Resolved() {
		c := res.Coordinates
		record.Location = &c
	}
	return res, ctx.Err()
}
