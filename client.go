// Package typesearch is a typed Go client for the HTTP API of a
// Typesense-compatible search engine: collection schemas, document CRUD,
// bulk import/export, search, API keys, overrides, aliases and synonyms.
//
// All operations are thin request/response mappings. The one place with
// real policy is bulk import, which splits the caller's documents into
// fixed-size batches and aggregates per-document outcomes; see
// ImportDocuments.
package typesearch

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	// DefaultNode is used when no nodes are configured.
	DefaultNode = "http://localhost:8108"

	// DefaultConnectionTimeout bounds each HTTP request issued by the
	// default transport.
	DefaultConnectionTimeout = 5 * time.Second
)

// APIKeyProvider is a function type that retrieves the engine API key.
// It allows for different retrieval strategies (static, environment
// variables, AWS Secrets Manager, etc.).
type APIKeyProvider func() (string, error)

// StaticAPIKey returns an APIKeyProvider that provides a fixed key.
// This is useful for testing or when the key is known at startup.
func StaticAPIKey(key string) APIKeyProvider {
	return func() (string, error) {
		return key, nil
	}
}

// EnvAPIKey returns an APIKeyProvider that reads TYPESEARCH_API_KEY.
func EnvAPIKey() APIKeyProvider {
	return func() (string, error) {
		key := os.Getenv("TYPESEARCH_API_KEY")
		if key == "" {
			return "", errors.New("TYPESEARCH_API_KEY environment variable is not set")
		}
		return key, nil
	}
}

// ClientOption configures a Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	nodes     []string
	provider  APIKeyProvider
	timeout   time.Duration
	transport Transport
}

// WithNodes sets the engine node base URLs. Requests are spread across
// nodes round-robin.
func WithNodes(urls ...string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.nodes = urls
	}
}

// WithAPIKey sets a static API key.
func WithAPIKey(key string) ClientOption {
	return func(cfg *clientConfig) {
		cfg.provider = StaticAPIKey(key)
	}
}

// WithAPIKeyProvider sets the API key retrieval strategy. The provider is
// invoked once, lazily, on the first request.
func WithAPIKeyProvider(p APIKeyProvider) ClientOption {
	return func(cfg *clientConfig) {
		cfg.provider = p
	}
}

// WithConnectionTimeout sets the per-request timeout of the default
// transport. It has no effect when a custom transport is installed.
func WithConnectionTimeout(d time.Duration) ClientOption {
	return func(cfg *clientConfig) {
		cfg.timeout = d
	}
}

// WithTransport replaces the HTTP transport entirely. Useful for tests
// and for callers that need custom connection handling.
func WithTransport(t Transport) ClientOption {
	return func(cfg *clientConfig) {
		cfg.transport = t
	}
}

// Client talks to a search engine cluster. It holds no mutable state
// across calls and is safe for concurrent use.
type Client struct {
	transport Transport
}

// NewClient creates a Client. Without options it targets DefaultNode and
// reads the API key from the environment.
func NewClient(opts ...ClientOption) *Client {
	cfg := &clientConfig{
		nodes:    []string{DefaultNode},
		provider: EnvAPIKey(),
		timeout:  DefaultConnectionTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	transport := cfg.transport
	if transport == nil {
		transport = newHTTPTransport(cfg.nodes, sync.OnceValues(cfg.provider), cfg.timeout)
	}

	return &Client{transport: transport}
}

// call issues one request and applies the shared status-to-error mapping.
// A 2xx answer returns the raw body; anything else returns a typed error.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	status, respBody, err := c.transport.Send(ctx, method, path, query, body)
	if err != nil {
		var typed *Error
		if errors.As(err, &typed) {
			return nil, err
		}
		return nil, transportFailure(err, method+" "+path)
	}
	if status < 200 || status > 299 {
		return nil, mapStatus(status, respBody)
	}
	return respBody, nil
}

// callJSON issues one request with an optional JSON body and decodes the
// JSON answer into out when out is non-nil.
func (c *Client) callJSON(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	var body []byte
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return invalidArgumentf("encoding request body: %v", err)
		}
		body = encoded
	}

	respBody, err := c.call(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return unknownf("decoding %s %s response: %v", method, path, err)
	}
	return nil
}

// Health reports whether the engine answers its liveness probe.
func (c *Client) Health(ctx context.Context) (bool, error) {
	var status struct {
		OK bool `json:"ok"`
	}
	if err := c.callJSON(ctx, "GET", "/health", nil, nil, &status); err != nil {
		return false, err
	}
	return status.OK, nil
}
