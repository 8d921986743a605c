package typesearch

import (
	"context"
	"net/url"
)

// Synonym declares words the engine treats as equivalent during search.
// With Root set it is a one-way synonym: the alternatives map to Root but
// not to each other.
type Synonym struct {
	ID       string   `json:"id,omitempty"`
	Synonyms []string `json:"synonyms"`
	Root     string   `json:"root,omitempty"`
}

func synonymsPath(collection string) string {
	return "/collections/" + url.PathEscape(collection) + "/synonyms"
}

// UpsertSynonym creates or replaces the synonym with the given id.
func (c *Client) UpsertSynonym(ctx context.Context, collection, id string, synonym Synonym) (*Synonym, error) {
	if collection == "" {
		return nil, invalidArgumentf("collection name must not be empty")
	}
	if id == "" {
		return nil, invalidArgumentf("synonym id must not be empty")
	}
	if len(synonym.Synonyms) == 0 {
		return nil, invalidArgumentf("synonym must list at least one word")
	}

	var stored Synonym
	if err := c.callJSON(ctx, "PUT", synonymsPath(collection)+"/"+url.PathEscape(id), nil, synonym, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// RetrieveSynonym fetches one synonym by id.
func (c *Client) RetrieveSynonym(ctx context.Context, collection, id string) (*Synonym, error) {
	if collection == "" {
		return nil, invalidArgumentf("collection name must not be empty")
	}
	if id == "" {
		return nil, invalidArgumentf("synonym id must not be empty")
	}

	var synonym Synonym
	if err := c.callJSON(ctx, "GET", synonymsPath(collection)+"/"+url.PathEscape(id), nil, nil, &synonym); err != nil {
		return nil, err
	}
	return &synonym, nil
}

// ListSynonyms fetches all synonyms of a collection.
func (c *Client) ListSynonyms(ctx context.Context, collection string) ([]Synonym, error) {
	if collection == "" {
		return nil, invalidArgumentf("collection name must not be empty")
	}

	var list struct {
		Synonyms []Synonym `json:"synonyms"`
	}
	if err := c.callJSON(ctx, "GET", synonymsPath(collection), nil, nil, &list); err != nil {
		return nil, err
	}
	return list.Synonyms, nil
}

// DeleteSynonym removes one synonym by id.
func (c *Client) DeleteSynonym(ctx context.Context, collection, id string) error {
	if collection == "" {
		return invalidArgumentf("collection name must not be empty")
	}
	if id == "" {
		return invalidArgumentf("synonym id must not be empty")
	}
	return c.callJSON(ctx, "DELETE", synonymsPath(collection)+"/"+url.PathEscape(id), nil, nil, nil)
}
