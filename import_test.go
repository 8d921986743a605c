package typesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
)

type testDoc struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// fakeCall records one request seen by fakeTransport.
type fakeCall struct {
	method string
	path   string
	query  url.Values
	body   []byte
}

// fakeResponse is one canned answer returned by fakeTransport.
type fakeResponse struct {
	status int
	body   string
	err    error
}

// fakeTransport implements Transport with canned responses, recording
// every request. Responses are consumed in order; once exhausted, the
// last one repeats.
type fakeTransport struct {
	calls     []fakeCall
	responses []fakeResponse
}

func (f *fakeTransport) Send(ctx context.Context, method, path string, query url.Values, body []byte) (int, []byte, error) {
	f.calls = append(f.calls, fakeCall{method: method, path: path, query: query, body: body})

	if len(f.responses) == 0 {
		return 200, []byte("{}"), nil
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	if resp.err != nil {
		return 0, nil, resp.err
	}
	return resp.status, []byte(resp.body), nil
}

func newFakeClient(responses ...fakeResponse) (*Client, *fakeTransport) {
	transport := &fakeTransport{responses: responses}
	return NewClient(WithTransport(transport)), transport
}

// successLines renders n import result lines reporting success.
func successLines(n int) string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = `{"success":true}`
	}
	return strings.Join(lines, "\n")
}

func makeDocs(n int) []testDoc {
	docs := make([]testDoc, n)
	for i := range docs {
		docs[i] = testDoc{ID: fmt.Sprintf("doc-%d", i), Title: fmt.Sprintf("Title %d", i)}
	}
	return docs
}

func TestBatchPlan(t *testing.T) {
	tests := []struct {
		name          string
		n             int
		batchSize     int
		expectedSizes []int
	}{
		{
			name:          "default batch size over 100 docs",
			n:             100,
			batchSize:     DefaultBatchSize,
			expectedSizes: []int{40, 40, 20},
		},
		{
			name:          "batch size equals input length",
			n:             5,
			batchSize:     5,
			expectedSizes: []int{5},
		},
		{
			name:          "batch size larger than input",
			n:             3,
			batchSize:     10,
			expectedSizes: []int{3},
		},
		{
			name:          "batch size of one",
			n:             3,
			batchSize:     1,
			expectedSizes: []int{1, 1, 1},
		},
		{
			name:          "even split",
			n:             8,
			batchSize:     4,
			expectedSizes: []int{4, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := makeDocs(tt.n)
			batches := batchPlan(docs, tt.batchSize)

			if len(batches) != len(tt.expectedSizes) {
				t.Fatalf("Expected %d batches, got %d", len(tt.expectedSizes), len(batches))
			}

			var rejoined []testDoc
			for i, batch := range batches {
				if len(batch) != tt.expectedSizes[i] {
					t.Errorf("Expected batch %d to have %d docs, got %d", i, tt.expectedSizes[i], len(batch))
				}
				rejoined = append(rejoined, batch...)
			}

			if len(rejoined) != tt.n {
				t.Fatalf("Expected concatenated batches to have %d docs, got %d", tt.n, len(rejoined))
			}
			for i, doc := range rejoined {
				if doc != docs[i] {
					t.Errorf("Expected doc %d to be %+v, got %+v", i, docs[i], doc)
				}
			}
		})
	}
}

func TestImportDocuments_InvalidArguments(t *testing.T) {
	tests := []struct {
		name       string
		collection string
		docs       []testDoc
		opts       []ImportOption
	}{
		{
			name:       "empty collection name",
			collection: "",
			docs:       makeDocs(1),
		},
		{
			name:       "no documents",
			collection: "books",
			docs:       nil,
		},
		{
			name:       "zero batch size",
			collection: "books",
			docs:       makeDocs(1),
			opts:       []ImportOption{WithBatchSize(0)},
		},
		{
			name:       "negative batch size",
			collection: "books",
			docs:       makeDocs(1),
			opts:       []ImportOption{WithBatchSize(-3)},
		},
		{
			name:       "unknown action",
			collection: "books",
			docs:       makeDocs(1),
			opts:       []ImportOption{WithAction(ImportAction("replace"))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, transport := newFakeClient()

			outcomes, err := ImportDocuments(context.Background(), client, tt.collection, tt.docs, tt.opts...)
			if err == nil {
				t.Fatal("Expected an error, got nil")
			}
			if outcomes != nil {
				t.Errorf("Expected no outcomes, got %d", len(outcomes))
			}
			if kind := KindOf(err); kind != KindInvalidArgument {
				t.Errorf("Expected KindInvalidArgument, got %v", kind)
			}
			if len(transport.calls) != 0 {
				t.Errorf("Expected zero requests, got %d", len(transport.calls))
			}
		})
	}
}

func TestImportDocuments_SingleBatch(t *testing.T) {
	client, transport := newFakeClient(fakeResponse{status: 200, body: successLines(5)})
	docs := makeDocs(5)

	outcomes, err := ImportDocuments(context.Background(), client, "books", docs, WithBatchSize(5))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(transport.calls) != 1 {
		t.Fatalf("Expected exactly 1 request, got %d", len(transport.calls))
	}

	call := transport.calls[0]
	if call.method != "POST" {
		t.Errorf("Expected POST, got %s", call.method)
	}
	if call.path != "/collections/books/documents/import" {
		t.Errorf("Unexpected path %s", call.path)
	}
	if action := call.query.Get("action"); action != "create" {
		t.Errorf("Expected default action create, got %q", action)
	}
	if size := call.query.Get("batch_size"); size != "5" {
		t.Errorf("Expected batch_size 5, got %q", size)
	}

	if len(outcomes) != len(docs) {
		t.Fatalf("Expected %d outcomes, got %d", len(docs), len(outcomes))
	}
	for i, outcome := range outcomes {
		if outcome.Position != i {
			t.Errorf("Expected outcome %d to have position %d, got %d", i, i, outcome.Position)
		}
		if !outcome.Success {
			t.Errorf("Expected outcome %d to be successful", i)
		}
	}

	// The request body must be one JSON object per line, in input order.
	lines := strings.Split(string(call.body), "\n")
	if len(lines) != len(docs) {
		t.Fatalf("Expected %d body lines, got %d", len(docs), len(lines))
	}
	for i, line := range lines {
		var doc testDoc
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			t.Fatalf("Body line %d is not valid JSON: %v", i, err)
		}
		if doc != docs[i] {
			t.Errorf("Expected body line %d to be %+v, got %+v", i, docs[i], doc)
		}
	}
}

func TestImportDocuments_MultipleBatches(t *testing.T) {
	client, transport := newFakeClient(
		fakeResponse{status: 200, body: successLines(40)},
		fakeResponse{status: 200, body: successLines(40)},
		fakeResponse{status: 200, body: successLines(20)},
	)
	docs := makeDocs(100)

	outcomes, err := ImportDocuments(context.Background(), client, "books", docs, WithAction(ImportUpsert))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(transport.calls) != 3 {
		t.Fatalf("Expected 3 requests, got %d", len(transport.calls))
	}
	for i, call := range transport.calls {
		if action := call.query.Get("action"); action != "upsert" {
			t.Errorf("Expected action upsert on request %d, got %q", i, action)
		}
	}

	if len(outcomes) != 100 {
		t.Fatalf("Expected 100 outcomes, got %d", len(outcomes))
	}
	for i, outcome := range outcomes {
		if outcome.Position != i {
			t.Fatalf("Expected outcome %d to have position %d, got %d", i, i, outcome.Position)
		}
	}
}

func TestImportDocuments_PartialFailure(t *testing.T) {
	// Second document of five rejected; positions must line up.
	body := strings.Join([]string{
		`{"success":true}`,
		`{"success":false,"error":"A document with id doc-1 already exists","document":"{\"id\":\"doc-1\"}"}`,
		`{"success":true}`,
		`{"success":true}`,
		`{"success":true}`,
	}, "\n")

	client, _ := newFakeClient(fakeResponse{status: 200, body: body})

	outcomes, err := ImportDocuments(context.Background(), client, "books", makeDocs(5), WithBatchSize(5))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(outcomes) != 5 {
		t.Fatalf("Expected 5 outcomes, got %d", len(outcomes))
	}

	failures := 0
	for i, outcome := range outcomes {
		if outcome.Success {
			continue
		}
		failures++
		if i != 1 {
			t.Errorf("Expected the failure at position 1, got position %d", i)
		}
		if !strings.Contains(outcome.Error, "already exists") {
			t.Errorf("Expected the engine error text, got %q", outcome.Error)
		}
		if len(outcome.Document) == 0 {
			t.Error("Expected the rejected document echo to be kept")
		}
	}
	if failures != 1 {
		t.Errorf("Expected exactly 1 failure, got %d", failures)
	}
}

func TestImportDocuments_FailureSpanningBatches(t *testing.T) {
	// A rejection in the second batch must surface at its global position.
	client, _ := newFakeClient(
		fakeResponse{status: 200, body: successLines(3)},
		fakeResponse{status: 200, body: `{"success":true}` + "\n" + `{"success":false,"error":"bad field"}` + "\n" + `{"success":true}`},
	)

	outcomes, err := ImportDocuments(context.Background(), client, "books", makeDocs(6), WithBatchSize(3))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(outcomes) != 6 {
		t.Fatalf("Expected 6 outcomes, got %d", len(outcomes))
	}
	for i, outcome := range outcomes {
		expectSuccess := i != 4
		if outcome.Success != expectSuccess {
			t.Errorf("Expected outcome %d success=%v, got %v", i, expectSuccess, outcome.Success)
		}
	}
}

func TestImportDocuments_TransportFailure(t *testing.T) {
	client, transport := newFakeClient(
		fakeResponse{status: 200, body: successLines(3)},
		fakeResponse{err: errors.New("connection refused")},
	)

	outcomes, err := ImportDocuments(context.Background(), client, "books", makeDocs(6), WithBatchSize(3))
	if err == nil {
		t.Fatal("Expected an error, got nil")
	}
	if outcomes != nil {
		t.Errorf("Expected no partial outcome list, got %d outcomes", len(outcomes))
	}
	if kind := KindOf(err); kind != KindTransportFailure {
		t.Errorf("Expected KindTransportFailure, got %v", kind)
	}
	if len(transport.calls) != 2 {
		t.Errorf("Expected 2 requests (no retry), got %d", len(transport.calls))
	}
}

func TestImportDocuments_ServerError(t *testing.T) {
	client, _ := newFakeClient(fakeResponse{status: 503, body: `{"message":"queue full"}`})

	outcomes, err := ImportDocuments(context.Background(), client, "books", makeDocs(2))
	if err == nil {
		t.Fatal("Expected an error, got nil")
	}
	if outcomes != nil {
		t.Errorf("Expected no outcomes, got %d", len(outcomes))
	}
	if kind := KindOf(err); kind != KindServerError {
		t.Errorf("Expected KindServerError, got %v", kind)
	}
}

func TestImportDocuments_ShortResponse(t *testing.T) {
	// Fewer result lines than submitted documents is a malformed answer:
	// the whole call fails rather than guessing the alignment.
	client, _ := newFakeClient(fakeResponse{status: 200, body: successLines(2)})

	outcomes, err := ImportDocuments(context.Background(), client, "books", makeDocs(3), WithBatchSize(3))
	if err == nil {
		t.Fatal("Expected an error, got nil")
	}
	if outcomes != nil {
		t.Errorf("Expected no outcomes, got %d", len(outcomes))
	}
	if kind := KindOf(err); kind != KindUnknown {
		t.Errorf("Expected KindUnknown, got %v", kind)
	}
}

func TestImportDocuments_MalformedResultLine(t *testing.T) {
	body := `{"success":true}` + "\n" + `not-json` + "\n" + `{"success":true}`
	client, _ := newFakeClient(fakeResponse{status: 200, body: body})

	outcomes, err := ImportDocuments(context.Background(), client, "books", makeDocs(3), WithBatchSize(3))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(outcomes) != 3 {
		t.Fatalf("Expected 3 outcomes, got %d", len(outcomes))
	}
	if outcomes[1].Success {
		t.Error("Expected the malformed line to map to a failed outcome")
	}
	if !strings.Contains(outcomes[1].Error, "malformed") {
		t.Errorf("Expected a malformed-line error, got %q", outcomes[1].Error)
	}
	if !outcomes[0].Success || !outcomes[2].Success {
		t.Error("Expected surrounding outcomes to stay successful")
	}
}

func TestImportDocuments_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client, transport := newFakeClient()

	outcomes, err := ImportDocuments(ctx, client, "books", makeDocs(10), WithBatchSize(5))
	if err == nil {
		t.Fatal("Expected an error, got nil")
	}
	if outcomes != nil {
		t.Errorf("Expected no outcomes, got %d", len(outcomes))
	}
	if kind := KindOf(err); kind != KindTransportFailure {
		t.Errorf("Expected KindTransportFailure, got %v", kind)
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("Expected the cancellation cause to stay matchable with errors.Is")
	}
	if len(transport.calls) != 0 {
		t.Errorf("Expected no batch to be sent after cancellation, got %d requests", len(transport.calls))
	}
}
