package typesearch

import (
	"context"
	"encoding/json"
	"testing"
)

func TestCreateCollection(t *testing.T) {
	body := `{"name":"books","fields":[{"name":"title","type":"string"}],"num_documents":0,"created_at":1700000000}`
	client, transport := newFakeClient(fakeResponse{status: 201, body: body})

	schema := CollectionSchema{
		Name: "books",
		Fields: []Field{
			{Name: "title", Type: "string"},
			{Name: "year", Type: "int32", Sort: true},
		},
		DefaultSortingField: "year",
	}

	created, err := client.CreateCollection(context.Background(), schema)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	call := transport.calls[0]
	if call.method != "POST" || call.path != "/collections" {
		t.Errorf("Unexpected request %s %s", call.method, call.path)
	}

	var sent CollectionSchema
	if err := json.Unmarshal(call.body, &sent); err != nil {
		t.Fatalf("Request body did not decode: %v", err)
	}
	if sent.Name != "books" || len(sent.Fields) != 2 || sent.DefaultSortingField != "year" {
		t.Errorf("Unexpected request schema: %+v", sent)
	}

	if created.Name != "books" || created.CreatedAt != 1700000000 {
		t.Errorf("Unexpected created collection: %+v", created)
	}
}

func TestCreateCollection_InvalidArguments(t *testing.T) {
	tests := []struct {
		name   string
		schema CollectionSchema
	}{
		{name: "empty name", schema: CollectionSchema{Fields: []Field{{Name: "x", Type: "string"}}}},
		{name: "no fields", schema: CollectionSchema{Name: "books"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, transport := newFakeClient()

			_, err := client.CreateCollection(context.Background(), tt.schema)
			if kind := KindOf(err); kind != KindInvalidArgument {
				t.Errorf("Expected KindInvalidArgument, got %v", kind)
			}
			if len(transport.calls) != 0 {
				t.Errorf("Expected zero requests, got %d", len(transport.calls))
			}
		})
	}
}

func TestCreateCollection_Conflict(t *testing.T) {
	client, _ := newFakeClient(fakeResponse{status: 409, body: `{"message":"A collection with name books already exists"}`})

	schema := CollectionSchema{Name: "books", Fields: []Field{{Name: "title", Type: "string"}}}
	_, err := client.CreateCollection(context.Background(), schema)
	if kind := KindOf(err); kind != KindConflict {
		t.Errorf("Expected KindConflict, got %v", kind)
	}
}

func TestRetrieveCollection_PathEscaping(t *testing.T) {
	client, transport := newFakeClient(fakeResponse{status: 200, body: `{"name":"my books"}`})

	if _, err := client.RetrieveCollection(context.Background(), "my books"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if path := transport.calls[0].path; path != "/collections/my%20books" {
		t.Errorf("Expected escaped path, got %s", path)
	}
}

func TestListCollections(t *testing.T) {
	body := `[{"name":"books","num_documents":12},{"name":"authors","num_documents":3}]`
	client, _ := newFakeClient(fakeResponse{status: 200, body: body})

	collections, err := client.ListCollections(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(collections) != 2 {
		t.Fatalf("Expected 2 collections, got %d", len(collections))
	}
	if collections[0].Name != "books" || collections[0].NumDocuments != 12 {
		t.Errorf("Unexpected first collection: %+v", collections[0])
	}
}

func TestDeleteCollection(t *testing.T) {
	client, transport := newFakeClient(fakeResponse{status: 200, body: `{"name":"books","num_documents":12}`})

	dropped, err := client.DeleteCollection(context.Background(), "books")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if transport.calls[0].method != "DELETE" {
		t.Errorf("Expected DELETE, got %s", transport.calls[0].method)
	}
	if dropped.NumDocuments != 12 {
		t.Errorf("Unexpected dropped collection: %+v", dropped)
	}
}

func TestDocumentCRUD(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		client, transport := newFakeClient(fakeResponse{status: 201, body: `{"id":"a","title":"First"}`})

		stored, err := client.CreateDocument(context.Background(), "books", testDoc{ID: "a", Title: "First"})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		call := transport.calls[0]
		if call.method != "POST" || call.path != "/collections/books/documents" {
			t.Errorf("Unexpected request %s %s", call.method, call.path)
		}
		if call.query.Get("action") != "" {
			t.Errorf("Expected no action for create, got %q", call.query.Get("action"))
		}
		if stored["id"] != "a" {
			t.Errorf("Unexpected stored document: %v", stored)
		}
	})

	t.Run("upsert", func(t *testing.T) {
		client, transport := newFakeClient(fakeResponse{status: 201, body: `{"id":"a"}`})

		if _, err := client.UpsertDocument(context.Background(), "books", testDoc{ID: "a"}); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if got := transport.calls[0].query.Get("action"); got != "upsert" {
			t.Errorf("Expected action=upsert, got %q", got)
		}
	})

	t.Run("update", func(t *testing.T) {
		client, transport := newFakeClient(fakeResponse{status: 200, body: `{"id":"a","title":"Renamed"}`})

		updated, err := client.UpdateDocument(context.Background(), "books", "a", map[string]any{"title": "Renamed"})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		call := transport.calls[0]
		if call.method != "PATCH" || call.path != "/collections/books/documents/a" {
			t.Errorf("Unexpected request %s %s", call.method, call.path)
		}
		if updated["title"] != "Renamed" {
			t.Errorf("Unexpected updated document: %v", updated)
		}
	})

	t.Run("retrieve", func(t *testing.T) {
		client, _ := newFakeClient(fakeResponse{status: 200, body: `{"id":"a","title":"First"}`})

		doc, err := RetrieveDocument[testDoc](context.Background(), client, "books", "a")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if doc.ID != "a" || doc.Title != "First" {
			t.Errorf("Unexpected document: %+v", doc)
		}
	})

	t.Run("retrieve missing", func(t *testing.T) {
		client, _ := newFakeClient(fakeResponse{status: 404, body: `{"message":"Could not find a document with id: z"}`})

		_, err := RetrieveDocument[testDoc](context.Background(), client, "books", "z")
		if kind := KindOf(err); kind != KindNotFound {
			t.Errorf("Expected KindNotFound, got %v", kind)
		}
	})

	t.Run("delete", func(t *testing.T) {
		client, transport := newFakeClient(fakeResponse{status: 200, body: `{"id":"a"}`})

		if _, err := client.DeleteDocument(context.Background(), "books", "a"); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if transport.calls[0].method != "DELETE" {
			t.Errorf("Expected DELETE, got %s", transport.calls[0].method)
		}
	})

	t.Run("delete by filter", func(t *testing.T) {
		client, transport := newFakeClient(fakeResponse{status: 200, body: `{"num_deleted":7}`})

		n, err := client.DeleteDocumentsByFilter(context.Background(), "books", Lt("year", 1970), 100)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if n != 7 {
			t.Errorf("Expected 7 deleted, got %d", n)
		}
		call := transport.calls[0]
		if got := call.query.Get("filter_by"); got != "year:<1970" {
			t.Errorf("Unexpected filter_by %q", got)
		}
		if got := call.query.Get("batch_size"); got != "100" {
			t.Errorf("Unexpected batch_size %q", got)
		}
	})

	t.Run("delete by empty filter", func(t *testing.T) {
		client, transport := newFakeClient()

		_, err := client.DeleteDocumentsByFilter(context.Background(), "books", In("genre"), 0)
		if kind := KindOf(err); kind != KindInvalidArgument {
			t.Errorf("Expected KindInvalidArgument, got %v", kind)
		}
		if len(transport.calls) != 0 {
			t.Errorf("Expected zero requests, got %d", len(transport.calls))
		}
	})
}
