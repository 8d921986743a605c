package typesearch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// APIKeyHeader carries the engine API key on every request.
const APIKeyHeader = "X-TYPESENSE-API-KEY"

// Transport issues one HTTP request against the engine and returns the raw
// status and body. A request that never completed returns an error; any
// completed request, success or not, returns its status code instead.
type Transport interface {
	Send(ctx context.Context, method, path string, query url.Values, body []byte) (status int, responseBody []byte, err error)
}

// httpTransport is the default Transport. It rotates requests across the
// configured nodes and traces each request.
type httpTransport struct {
	nodes  []string
	getKey func() (string, error)
	client *http.Client
	tracer trace.Tracer
	next   atomic.Uint64
}

func newHTTPTransport(nodes []string, getKey func() (string, error), timeout time.Duration) *httpTransport {
	trimmed := make([]string, 0, len(nodes))
	for _, node := range nodes {
		trimmed = append(trimmed, strings.TrimRight(node, "/"))
	}

	return &httpTransport{
		nodes:  trimmed,
		getKey: getKey,
		client: &http.Client{Timeout: timeout},
		tracer: otel.Tracer("typesearch"),
	}
}

// pickNode selects the next node round-robin.
func (t *httpTransport) pickNode() string {
	if len(t.nodes) == 1 {
		return t.nodes[0]
	}
	n := t.next.Add(1) - 1
	return t.nodes[n%uint64(len(t.nodes))]
}

func (t *httpTransport) Send(ctx context.Context, method, path string, query url.Values, body []byte) (int, []byte, error) {
	ctx, span := t.tracer.Start(ctx, "typesearch.request",
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.path", path),
		),
	)
	defer span.End()

	key, err := t.getKey()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to resolve API key")
		return 0, nil, transportFailure(err, "resolving API key")
	}

	requestURL := t.pickNode() + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build request")
		return 0, nil, transportFailure(err, "building request")
	}
	req.Header.Set(APIKeyHeader, key)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return 0, nil, transportFailure(err, method+" "+path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read response body")
		return 0, nil, transportFailure(err, "reading response body")
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 400 {
		span.SetStatus(codes.Error, fmt.Sprintf("engine answered %d", resp.StatusCode))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return resp.StatusCode, respBody, nil
}
