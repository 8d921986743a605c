package typesearch

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/typesearch/typesearch/internal/jsonl"
)

// ImportAction selects how the engine treats each document of a bulk
// import.
type ImportAction string

const (
	// ImportCreate indexes new documents and rejects duplicate ids.
	ImportCreate ImportAction = "create"
	// ImportUpdate applies partial updates to existing documents.
	ImportUpdate ImportAction = "update"
	// ImportUpsert indexes documents, replacing any with the same id.
	ImportUpsert ImportAction = "upsert"
)

// DefaultBatchSize is the number of documents sent per import request when
// no batch size is configured.
const DefaultBatchSize = 40

// ImportOutcome is the per-document result of a bulk import. Outcome i of
// the returned list always describes document i of the submitted list.
type ImportOutcome struct {
	// Position is the document's 0-based index in the caller's input.
	Position int

	// Success reports whether the engine accepted the document.
	Success bool

	// Error is the engine's error text for a rejected document.
	Error string

	// Document is the engine's echo of a rejected document, when present.
	Document json.RawMessage
}

// ImportOption configures a bulk import.
type ImportOption func(*importConfig)

type importConfig struct {
	batchSize int
	action    ImportAction
}

// WithBatchSize sets how many documents travel per request.
func WithBatchSize(n int) ImportOption {
	return func(cfg *importConfig) {
		cfg.batchSize = n
	}
}

// WithAction sets the import action. The default is ImportCreate.
func WithAction(action ImportAction) ImportOption {
	return func(cfg *importConfig) {
		cfg.action = action
	}
}

// importLine is one line of the engine's import response.
type importLine struct {
	Success  bool            `json:"success"`
	Error    string          `json:"error"`
	Document json.RawMessage `json:"document"`
}

// ImportDocuments bulk-imports documents into a collection.
//
// The input is cut into consecutive batches of the configured size, each
// batch is sent as one newline-delimited JSON request, and the engine's
// per-line answers are folded into one ImportOutcome list matching the
// input order: len(outcomes) == len(documents) and outcomes[i] describes
// documents[i].
//
// Individual document rejections are data, not errors: the call succeeds
// and the outcome for the rejected document carries the engine's error
// text. The call itself fails only when a precondition is violated, a
// batch request never completes, or a batch answer cannot be interpreted.
// In that case no partial outcome list is returned.
//
// Batches are sent strictly sequentially and never retried. Cancelling ctx
// aborts before the next batch is sent.
func ImportDocuments[T any](ctx context.Context, c *Client, collection string, documents []T, opts ...ImportOption) ([]ImportOutcome, error) {
	cfg := &importConfig{
		batchSize: DefaultBatchSize,
		action:    ImportCreate,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if collection == "" {
		return nil, invalidArgumentf("collection name must not be empty")
	}
	if len(documents) == 0 {
		return nil, invalidArgumentf("documents must not be empty")
	}
	if cfg.batchSize <= 0 {
		return nil, invalidArgumentf("batch size must be positive, got %d", cfg.batchSize)
	}
	switch cfg.action {
	case ImportCreate, ImportUpdate, ImportUpsert:
	default:
		return nil, invalidArgumentf("unknown import action %q", cfg.action)
	}

	query := url.Values{
		"action":     []string{string(cfg.action)},
		"batch_size": []string{strconv.Itoa(cfg.batchSize)},
	}
	path := documentsPath(collection) + "/import"

	outcomes := make([]ImportOutcome, 0, len(documents))
	for _, batch := range batchPlan(documents, cfg.batchSize) {
		if err := ctx.Err(); err != nil {
			return nil, transportFailure(err, "import aborted")
		}

		body, err := jsonl.Encode(batch)
		if err != nil {
			return nil, invalidArgumentf("encoding import batch: %v", err)
		}

		respBody, err := c.call(ctx, "POST", path, query, body)
		if err != nil {
			return nil, err
		}

		lines := jsonl.Lines(respBody)
		if len(lines) != len(batch) {
			return nil, unknownf("engine answered %d result lines for a batch of %d documents", len(lines), len(batch))
		}

		for _, raw := range lines {
			position := len(outcomes)
			var line importLine
			if err := json.Unmarshal(raw, &line); err != nil {
				outcomes = append(outcomes, ImportOutcome{
					Position: position,
					Error:    "malformed result line: " + string(raw),
				})
				continue
			}
			outcomes = append(outcomes, ImportOutcome{
				Position: position,
				Success:  line.Success,
				Error:    line.Error,
				Document: line.Document,
			})
		}
	}

	return outcomes, nil
}

// batchPlan cuts documents into consecutive slices of at most size
// elements. Concatenating the slices in order reproduces the input.
func batchPlan[T any](documents []T, size int) [][]T {
	batches := make([][]T, 0, (len(documents)+size-1)/size)
	for start := 0; start < len(documents); start += size {
		end := start + size
		if end > len(documents) {
			end = len(documents)
		}
		batches = append(batches, documents[start:end])
	}
	return batches
}
