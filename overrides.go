package typesearch

import (
	"context"
	"net/url"
)

// OverrideRule decides which queries an override applies to.
type OverrideRule struct {
	// Query is the query text the rule matches.
	Query string `json:"query"`

	// Match is "exact" or "contains".
	Match string `json:"match"`
}

// OverrideInclude pins a document at a position in the results.
type OverrideInclude struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}

// OverrideExclude hides a document from the results.
type OverrideExclude struct {
	ID string `json:"id"`
}

// Override is a server-side curation rule that rewrites search results for
// matching queries.
type Override struct {
	ID       string            `json:"id,omitempty"`
	Rule     OverrideRule      `json:"rule"`
	Includes []OverrideInclude `json:"includes,omitempty"`
	Excludes []OverrideExclude `json:"excludes,omitempty"`

	// FilterBy is applied to matching queries on top of any caller filter.
	FilterBy string `json:"filter_by,omitempty"`
}

func overridesPath(collection string) string {
	return "/collections/" + url.PathEscape(collection) + "/overrides"
}

// UpsertOverride creates or replaces the override with the given id.
func (c *Client) UpsertOverride(ctx context.Context, collection, id string, override Override) (*Override, error) {
	if collection == "" {
		return nil, invalidArgumentf("collection name must not be empty")
	}
	if id == "" {
		return nil, invalidArgumentf("override id must not be empty")
	}
	if override.Rule.Query == "" || override.Rule.Match == "" {
		return nil, invalidArgumentf("override rule must set query and match")
	}

	var stored Override
	if err := c.callJSON(ctx, "PUT", overridesPath(collection)+"/"+url.PathEscape(id), nil, override, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// RetrieveOverride fetches one override by id.
func (c *Client) RetrieveOverride(ctx context.Context, collection, id string) (*Override, error) {
	if collection == "" {
		return nil, invalidArgumentf("collection name must not be empty")
	}
	if id == "" {
		return nil, invalidArgumentf("override id must not be empty")
	}

	var override Override
	if err := c.callJSON(ctx, "GET", overridesPath(collection)+"/"+url.PathEscape(id), nil, nil, &override); err != nil {
		return nil, err
	}
	return &override, nil
}

// ListOverrides fetches all overrides of a collection.
func (c *Client) ListOverrides(ctx context.Context, collection string) ([]Override, error) {
	if collection == "" {
		return nil, invalidArgumentf("collection name must not be empty")
	}

	var list struct {
		Overrides []Override `json:"overrides"`
	}
	if err := c.callJSON(ctx, "GET", overridesPath(collection), nil, nil, &list); err != nil {
		return nil, err
	}
	return list.Overrides, nil
}

// DeleteOverride removes one override by id.
func (c *Client) DeleteOverride(ctx context.Context, collection, id string) error {
	if collection == "" {
		return invalidArgumentf("collection name must not be empty")
	}
	if id == "" {
		return invalidArgumentf("override id must not be empty")
	}
	return c.callJSON(ctx, "DELETE", overridesPath(collection)+"/"+url.PathEscape(id), nil, nil, nil)
}
