package typesearch

import (
	"context"
	"net/url"
	"strings"

	"github.com/typesearch/typesearch/internal/jsonl"
)

// ExportOption configures a bulk export.
type ExportOption func(*exportConfig)

type exportConfig struct {
	filter        Filter
	includeFields []string
	excludeFields []string
}

// WithExportFilter restricts the export to documents matching the filter.
func WithExportFilter(filter Filter) ExportOption {
	return func(cfg *exportConfig) {
		cfg.filter = filter
	}
}

// WithIncludeFields limits exported documents to the named fields.
func WithIncludeFields(fields ...string) ExportOption {
	return func(cfg *exportConfig) {
		cfg.includeFields = append(cfg.includeFields, fields...)
	}
}

// WithExcludeFields drops the named fields from exported documents.
func WithExcludeFields(fields ...string) ExportOption {
	return func(cfg *exportConfig) {
		cfg.excludeFields = append(cfg.excludeFields, fields...)
	}
}

// ExportDocuments streams every matching document out of a collection in
// one request and returns them in the order the engine delivered them.
// A filter matching nothing yields an empty, non-nil slice.
func ExportDocuments[T any](ctx context.Context, c *Client, collection string, opts ...ExportOption) ([]T, error) {
	if collection == "" {
		return nil, invalidArgumentf("collection name must not be empty")
	}

	cfg := &exportConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	query := url.Values{}
	if cfg.filter != nil {
		if rendered := cfg.filter.Render(); rendered != "" {
			query.Set("filter_by", rendered)
		}
	}
	if len(cfg.includeFields) > 0 {
		query.Set("include_fields", strings.Join(cfg.includeFields, ","))
	}
	if len(cfg.excludeFields) > 0 {
		query.Set("exclude_fields", strings.Join(cfg.excludeFields, ","))
	}

	body, err := c.call(ctx, "GET", documentsPath(collection)+"/export", query, nil)
	if err != nil {
		return nil, err
	}

	documents, err := jsonl.Decode[T](body)
	if err != nil {
		return nil, unknownf("decoding export of %s: %v", collection, err)
	}
	return documents, nil
}
