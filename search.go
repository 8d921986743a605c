package typesearch

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// SearchOption represents a search configuration option.
type SearchOption interface {
	Apply(*searchConfig)
}

// searchConfig holds all search parameters beyond the query itself.
type searchConfig struct {
	queryBy []string
	filter  Filter
	sort    []SortField
	facetBy []string
	page    int
	perPage int
	prefix  *bool
}

// SortField represents a field to sort by.
type SortField struct {
	// Field is the name of the field to sort by.
	Field string
	// Desc indicates descending order when true.
	Desc bool
}

// optionFunc is a function that implements SearchOption.
type optionFunc func(*searchConfig)

// Apply implements the SearchOption interface for optionFunc.
func (f optionFunc) Apply(cfg *searchConfig) {
	f(cfg)
}

// WithQueryBy names the fields the query is matched against. Every search
// needs at least one.
func WithQueryBy(fields ...string) SearchOption {
	return optionFunc(func(cfg *searchConfig) {
		cfg.queryBy = append(cfg.queryBy, fields...)
	})
}

// WithFilter restricts results to documents matching the filter.
func WithFilter(filter Filter) SearchOption {
	return optionFunc(func(cfg *searchConfig) {
		cfg.filter = filter
	})
}

// WithSort adds a sort field to the search.
func WithSort(field string, desc bool) SearchOption {
	return optionFunc(func(cfg *searchConfig) {
		cfg.sort = append(cfg.sort, SortField{Field: field, Desc: desc})
	})
}

// WithFacetBy requests facet counts for the named fields.
func WithFacetBy(fields ...string) SearchOption {
	return optionFunc(func(cfg *searchConfig) {
		cfg.facetBy = append(cfg.facetBy, fields...)
	})
}

// WithPage selects the 1-based result page.
func WithPage(page int) SearchOption {
	return optionFunc(func(cfg *searchConfig) {
		cfg.page = page
	})
}

// WithPerPage sets the number of hits per page.
func WithPerPage(n int) SearchOption {
	return optionFunc(func(cfg *searchConfig) {
		cfg.perPage = n
	})
}

// WithPrefix controls prefix matching on the last query token.
func WithPrefix(enabled bool) SearchOption {
	return optionFunc(func(cfg *searchConfig) {
		cfg.prefix = &enabled
	})
}

// Highlight is one highlighted field of a hit.
type Highlight struct {
	Field         string   `json:"field"`
	Snippet       string   `json:"snippet"`
	MatchedTokens []string `json:"matched_tokens"`
}

// Hit is one matching document with its relevance metadata.
type Hit struct {
	Document   json.RawMessage `json:"document"`
	Highlights []Highlight     `json:"highlights"`
	TextMatch  int64           `json:"text_match"`
}

// FacetValue is one value's count within a facet.
type FacetValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// FacetCount is the facet breakdown of one field.
type FacetCount struct {
	FieldName string       `json:"field_name"`
	Counts    []FacetValue `json:"counts"`
}

// SearchResult is the engine's answer to one search.
type SearchResult struct {
	// Found is the total number of matching documents.
	Found int `json:"found"`

	// OutOf is the total number of documents in the collection.
	OutOf int `json:"out_of"`

	// Page is the 1-based page this result covers.
	Page int `json:"page"`

	// SearchTimeMS is the engine-side search duration in milliseconds.
	SearchTimeMS int `json:"search_time_ms"`

	// Hits contains the matching documents of this page.
	Hits []Hit `json:"hits"`

	// FacetCounts carries the requested facet breakdowns.
	FacetCounts []FacetCount `json:"facet_counts"`
}

// Search executes a search against one collection.
func (c *Client) Search(ctx context.Context, collection, query string, opts ...SearchOption) (*SearchResult, error) {
	if collection == "" {
		return nil, invalidArgumentf("collection name must not be empty")
	}
	if query == "" {
		return nil, invalidArgumentf("query must not be empty")
	}

	cfg := &searchConfig{}
	for _, opt := range opts {
		opt.Apply(cfg)
	}
	if len(cfg.queryBy) == 0 {
		return nil, invalidArgumentf("at least one query_by field is required")
	}

	params := url.Values{
		"q":        []string{query},
		"query_by": []string{strings.Join(cfg.queryBy, ",")},
	}
	if cfg.filter != nil {
		if rendered := cfg.filter.Render(); rendered != "" {
			params.Set("filter_by", rendered)
		}
	}
	if len(cfg.sort) > 0 {
		sorts := make([]string, 0, len(cfg.sort))
		for _, s := range cfg.sort {
			direction := "asc"
			if s.Desc {
				direction = "desc"
			}
			sorts = append(sorts, s.Field+":"+direction)
		}
		params.Set("sort_by", strings.Join(sorts, ","))
	}
	if len(cfg.facetBy) > 0 {
		params.Set("facet_by", strings.Join(cfg.facetBy, ","))
	}
	if cfg.page > 0 {
		params.Set("page", strconv.Itoa(cfg.page))
	}
	if cfg.perPage > 0 {
		params.Set("per_page", strconv.Itoa(cfg.perPage))
	}
	if cfg.prefix != nil {
		params.Set("prefix", strconv.FormatBool(*cfg.prefix))
	}

	var result SearchResult
	if err := c.callJSON(ctx, "GET", documentsPath(collection)+"/search", params, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
