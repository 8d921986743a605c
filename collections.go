package typesearch

import (
	"context"
	"net/url"
)

// Field describes one field of a collection schema.
type Field struct {
	// Name is the document field name.
	Name string `json:"name"`

	// Type is the engine field type, e.g. "string", "int64", "string[]".
	Type string `json:"type"`

	// Facet enables facet counting on this field.
	Facet bool `json:"facet,omitempty"`

	// Optional marks the field as not required on every document.
	Optional bool `json:"optional,omitempty"`

	// Sort enables sorting on this field.
	Sort bool `json:"sort,omitempty"`

	// NumDim is the dimensionality for vector fields.
	NumDim int `json:"num_dim,omitempty"`
}

// CollectionSchema is the caller-supplied definition of a collection.
type CollectionSchema struct {
	Name                string  `json:"name"`
	Fields              []Field `json:"fields"`
	DefaultSortingField string  `json:"default_sorting_field,omitempty"`
	EnableNestedFields  bool    `json:"enable_nested_fields,omitempty"`
}

// Collection is a schema as the engine reports it, with server-maintained
// metadata attached.
type Collection struct {
	CollectionSchema
	NumDocuments int64 `json:"num_documents"`
	CreatedAt    int64 `json:"created_at"`
}

// CreateCollection creates a collection from the given schema.
func (c *Client) CreateCollection(ctx context.Context, schema CollectionSchema) (*Collection, error) {
	if schema.Name == "" {
		return nil, invalidArgumentf("collection name must not be empty")
	}
	if len(schema.Fields) == 0 {
		return nil, invalidArgumentf("collection schema must declare at least one field")
	}

	var created Collection
	if err := c.callJSON(ctx, "POST", "/collections", nil, schema, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// RetrieveCollection fetches one collection by name.
func (c *Client) RetrieveCollection(ctx context.Context, name string) (*Collection, error) {
	if name == "" {
		return nil, invalidArgumentf("collection name must not be empty")
	}

	var collection Collection
	if err := c.callJSON(ctx, "GET", "/collections/"+url.PathEscape(name), nil, nil, &collection); err != nil {
		return nil, err
	}
	return &collection, nil
}

// ListCollections fetches all collections.
func (c *Client) ListCollections(ctx context.Context) ([]Collection, error) {
	var collections []Collection
	if err := c.callJSON(ctx, "GET", "/collections", nil, nil, &collections); err != nil {
		return nil, err
	}
	return collections, nil
}

// DeleteCollection drops a collection and all its documents, returning the
// dropped collection's final state.
func (c *Client) DeleteCollection(ctx context.Context, name string) (*Collection, error) {
	if name == "" {
		return nil, invalidArgumentf("collection name must not be empty")
	}

	var dropped Collection
	if err := c.callJSON(ctx, "DELETE", "/collections/"+url.PathEscape(name), nil, nil, &dropped); err != nil {
		return nil, err
	}
	return &dropped, nil
}
