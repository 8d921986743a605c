package typesearch

import (
	"context"
	"net/url"
)

// Alias is a stable name pointing at a collection, letting callers swap
// collections behind a fixed name.
type Alias struct {
	Name           string `json:"name,omitempty"`
	CollectionName string `json:"collection_name"`
}

// UpsertAlias points name at a collection, creating or moving the alias.
func (c *Client) UpsertAlias(ctx context.Context, name, collection string) (*Alias, error) {
	if name == "" {
		return nil, invalidArgumentf("alias name must not be empty")
	}
	if collection == "" {
		return nil, invalidArgumentf("collection name must not be empty")
	}

	var alias Alias
	body := Alias{CollectionName: collection}
	if err := c.callJSON(ctx, "PUT", "/aliases/"+url.PathEscape(name), nil, body, &alias); err != nil {
		return nil, err
	}
	return &alias, nil
}

// RetrieveAlias fetches one alias by name.
func (c *Client) RetrieveAlias(ctx context.Context, name string) (*Alias, error) {
	if name == "" {
		return nil, invalidArgumentf("alias name must not be empty")
	}

	var alias Alias
	if err := c.callJSON(ctx, "GET", "/aliases/"+url.PathEscape(name), nil, nil, &alias); err != nil {
		return nil, err
	}
	return &alias, nil
}

// ListAliases fetches all aliases.
func (c *Client) ListAliases(ctx context.Context) ([]Alias, error) {
	var list struct {
		Aliases []Alias `json:"aliases"`
	}
	if err := c.callJSON(ctx, "GET", "/aliases", nil, nil, &list); err != nil {
		return nil, err
	}
	return list.Aliases, nil
}

// DeleteAlias removes one alias by name. The aliased collection is left
// untouched.
func (c *Client) DeleteAlias(ctx context.Context, name string) error {
	if name == "" {
		return invalidArgumentf("alias name must not be empty")
	}
	return c.callJSON(ctx, "DELETE", "/aliases/"+url.PathEscape(name), nil, nil, nil)
}
