package typesearch

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

func documentsPath(collection string) string {
	return "/collections/" + url.PathEscape(collection) + "/documents"
}

func documentPath(collection, id string) string {
	return documentsPath(collection) + "/" + url.PathEscape(id)
}

// CreateDocument indexes a new document. The engine rejects the call with a
// conflict error when a document with the same id already exists.
// The stored document is returned as the engine echoes it.
func (c *Client) CreateDocument(ctx context.Context, collection string, document interface{}) (map[string]interface{}, error) {
	return c.writeDocument(ctx, collection, document, "")
}

// UpsertDocument indexes a document, replacing any existing document with
// the same id.
func (c *Client) UpsertDocument(ctx context.Context, collection string, document interface{}) (map[string]interface{}, error) {
	return c.writeDocument(ctx, collection, document, "upsert")
}

func (c *Client) writeDocument(ctx context.Context, collection string, document interface{}, action string) (map[string]interface{}, error) {
	if collection == "" {
		return nil, invalidArgumentf("collection name must not be empty")
	}
	if document == nil {
		return nil, invalidArgumentf("document must not be nil")
	}

	var query url.Values
	if action != "" {
		query = url.Values{"action": []string{action}}
	}

	var stored map[string]interface{}
	if err := c.callJSON(ctx, "POST", documentsPath(collection), query, document, &stored); err != nil {
		return nil, err
	}
	return stored, nil
}

// UpdateDocument applies a partial update to the document with the given
// id. Only the fields present in document change.
func (c *Client) UpdateDocument(ctx context.Context, collection, id string, document interface{}) (map[string]interface{}, error) {
	if collection == "" {
		return nil, invalidArgumentf("collection name must not be empty")
	}
	if id == "" {
		return nil, invalidArgumentf("document id must not be empty")
	}
	if document == nil {
		return nil, invalidArgumentf("document must not be nil")
	}

	var updated map[string]interface{}
	if err := c.callJSON(ctx, "PATCH", documentPath(collection, id), nil, document, &updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteDocument removes one document by id, returning the removed
// document as the engine echoes it.
func (c *Client) DeleteDocument(ctx context.Context, collection, id string) (map[string]interface{}, error) {
	if collection == "" {
		return nil, invalidArgumentf("collection name must not be empty")
	}
	if id == "" {
		return nil, invalidArgumentf("document id must not be empty")
	}

	var removed map[string]interface{}
	if err := c.callJSON(ctx, "DELETE", documentPath(collection, id), nil, nil, &removed); err != nil {
		return nil, err
	}
	return removed, nil
}

// DeleteDocumentsByFilter removes every document matching the filter and
// reports how many were removed.
func (c *Client) DeleteDocumentsByFilter(ctx context.Context, collection string, filter Filter, batchSize int) (int, error) {
	if collection == "" {
		return 0, invalidArgumentf("collection name must not be empty")
	}
	if filter == nil {
		return 0, invalidArgumentf("filter must not be nil")
	}
	rendered := filter.Render()
	if rendered == "" {
		return 0, invalidArgumentf("filter must not render to an empty expression")
	}

	query := url.Values{"filter_by": []string{rendered}}
	if batchSize > 0 {
		query.Set("batch_size", strconv.Itoa(batchSize))
	}

	var result struct {
		NumDeleted int `json:"num_deleted"`
	}
	if err := c.callJSON(ctx, "DELETE", documentsPath(collection), query, nil, &result); err != nil {
		return 0, err
	}
	return result.NumDeleted, nil
}

// RetrieveDocument fetches one document by id and decodes it into T.
func RetrieveDocument[T any](ctx context.Context, c *Client, collection, id string) (T, error) {
	var doc T
	if collection == "" {
		return doc, invalidArgumentf("collection name must not be empty")
	}
	if id == "" {
		return doc, invalidArgumentf("document id must not be empty")
	}

	body, err := c.call(ctx, "GET", documentPath(collection, id), nil, nil)
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return doc, unknownf("decoding document %s/%s: %v", collection, id, err)
	}
	return doc, nil
}
