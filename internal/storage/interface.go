package storage

import (
	"context"

	"github.com/shanehull/estatecrawler/internal/model"
)

type Repository interface {
	Init(ctx context.Context) error
	// ReplaceRecords stores the records of one crawl in order, replacing
	// anything previously stored for the same source.
	ReplaceRecords(ctx context.Context, source string, records []model.PropertyRecord) error
	Export(ctx context.Context, opts ExportOptions) (int, error)
	Close() error
}
