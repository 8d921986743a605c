package typesearch

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strconv"

	"github.com/segmentio/ksuid"
)

// APIKey is an engine API key with its permission scope. The engine
// returns the full Value only once, from CreateKey; later retrievals carry
// the ValuePrefix only.
type APIKey struct {
	ID          int64    `json:"id,omitempty"`
	Value       string   `json:"value,omitempty"`
	ValuePrefix string   `json:"value_prefix,omitempty"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
	Collections []string `json:"collections"`
	ExpiresAt   int64    `json:"expires_at,omitempty"`
}

// CreateKey registers a new API key. When key.Value is empty a random
// value is generated client-side so the caller always knows the secret.
func (c *Client) CreateKey(ctx context.Context, key APIKey) (*APIKey, error) {
	if len(key.Actions) == 0 {
		return nil, invalidArgumentf("key must grant at least one action")
	}
	if len(key.Collections) == 0 {
		return nil, invalidArgumentf("key must name at least one collection")
	}
	if key.Value == "" {
		key.Value = ksuid.New().String()
	}

	var created APIKey
	if err := c.callJSON(ctx, "POST", "/keys", nil, key, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// RetrieveKey fetches one key's metadata by id.
func (c *Client) RetrieveKey(ctx context.Context, id int64) (*APIKey, error) {
	var key APIKey
	if err := c.callJSON(ctx, "GET", "/keys/"+strconv.FormatInt(id, 10), nil, nil, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// ListKeys fetches the metadata of all keys.
func (c *Client) ListKeys(ctx context.Context) ([]APIKey, error) {
	var list struct {
		Keys []APIKey `json:"keys"`
	}
	if err := c.callJSON(ctx, "GET", "/keys", nil, nil, &list); err != nil {
		return nil, err
	}
	return list.Keys, nil
}

// DeleteKey revokes one key by id.
func (c *Client) DeleteKey(ctx context.Context, id int64) error {
	return c.callJSON(ctx, "DELETE", "/keys/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

// ScopedKeyParams are search parameters baked into a scoped search key.
// The engine enforces them on every search made with the derived key.
type ScopedKeyParams struct {
	// FilterBy is a filter_by expression appended to every search.
	FilterBy string `json:"filter_by,omitempty"`

	// IncludeFields limits which fields searches may return.
	IncludeFields string `json:"include_fields,omitempty"`

	// ExpiresAt is a unix timestamp after which the scoped key stops
	// working, independent of the parent key's expiry.
	ExpiresAt int64 `json:"expires_at,omitempty"`
}

// GenerateScopedSearchKey derives a scoped search key from a search-only
// parent key, entirely client-side. The derived key embeds params signed
// with the parent key; the engine verifies the signature and applies the
// embedded parameters to every search. The derived key also embeds the
// first 4 characters of the parent key so the engine can locate it, which
// is why a parent key shorter than 4 characters is rejected.
func GenerateScopedSearchKey(parentKey string, params ScopedKeyParams) (string, error) {
	if parentKey == "" {
		return "", invalidArgumentf("parent key must not be empty")
	}
	if len(parentKey) < 4 {
		return "", invalidArgumentf("parent key is too short")
	}

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", invalidArgumentf("encoding scoped key params: %v", err)
	}

	mac := hmac.New(sha256.New, []byte(parentKey))
	mac.Write(paramsJSON)
	digest := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	raw := digest + parentKey[:4] + string(paramsJSON)
	return base64.StdEncoding.EncodeToString([]byte(raw)), nil
}
