package adapter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/libris-dev/libris/pkg/adapter"
	"github.com/libris-dev/libris/pkg/model"
	"github.com/m-mizutani/gt"
)

func newTestClient(t *testing.T, handler http.Handler) (*adapter.FileSearchClient, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := adapter.NewFileSearch("test-key",
		adapter.WithBaseURL(server.URL),
		adapter.WithPollInterval(time.Millisecond),
	)
	gt.NoError(t, err)

	return client, server
}

func TestCreateStore(t *testing.T) {
	ctx := context.Background()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.V(t, r.Method).Equal(http.MethodPost)
		gt.V(t, r.URL.Path).Equal("/v1beta/fileSearchStores")
		gt.V(t, r.Header.Get("x-goog-api-key")).Equal("test-key")

		var body map[string]string
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gt.V(t, body["displayName"]).Equal("manual.pdf")

		json.NewEncoder(w).Encode(map[string]string{
			"name":        "fileSearchStores/abc",
			"displayName": "manual.pdf",
		})
	}))

	store, err := client.CreateStore(ctx, "manual.pdf")
	gt.NoError(t, err)
	gt.V(t, store.ID).Equal(model.StoreID("fileSearchStores/abc"))
	gt.V(t, store.DisplayName).Equal("manual.pdf")
}

func TestListStoresEnvelopes(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		payload  string
		expected int
	}{
		{
			name:     "camelCase envelope",
			payload:  `{"fileSearchStores":[{"name":"fileSearchStores/a","displayName":"A"},{"name":"fileSearchStores/b","displayName":"B"}]}`,
			expected: 2,
		},
		{
			name:     "snake_case envelope and fields",
			payload:  `{"file_search_stores":[{"name":"fileSearchStores/a","display_name":"A"}]}`,
			expected: 1,
		},
		{
			name:     "unknown envelope key falls back to heuristic discovery",
			payload:  `{"nextPageToken":"tok","stores":[{"name":"fileSearchStores/a","displayName":"A"}]}`,
			expected: 1,
		},
		{
			name:     "empty object means empty listing",
			payload:  `{}`,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gt.V(t, r.URL.Query().Get("pageSize")).Equal("20")
				w.Write([]byte(tt.payload))
			}))

			stores, err := client.ListStores(ctx, 20)
			gt.NoError(t, err)
			gt.A(t, stores).Length(tt.expected)
			if tt.expected > 0 {
				gt.V(t, stores[0].ID).Equal(model.StoreID("fileSearchStores/a"))
				gt.V(t, stores[0].DisplayName).Equal("A")
			}
		})
	}
}

func TestListDocuments(t *testing.T) {
	ctx := context.Background()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.V(t, r.URL.Path).Equal("/v1beta/fileSearchStores/abc/documents")
		w.Write([]byte(`{"documents":[
			{"name":"fileSearchStores/abc/documents/1","displayName":"intro.md",
			 "customMetadata":[{"key":"pages","numericValue":12},{"key":"lang","stringValue":"en"}]},
			{"name":"fileSearchStores/abc/documents/2","display_name":"manual.pdf"}
		]}`))
	}))

	docs, err := client.ListDocuments(ctx, "fileSearchStores/abc", 50)
	gt.NoError(t, err)
	gt.A(t, docs).Length(2)
	gt.V(t, docs[0].DisplayName).Equal("intro.md")
	gt.A(t, docs[0].Metadata).Length(2)
	gt.V(t, docs[0].Metadata[0].Key).Equal("pages")
	gt.V(t, docs[0].Metadata[0].Value).Equal("12")
	gt.V(t, docs[0].Metadata[1].Value).Equal("en")
	gt.V(t, docs[1].DisplayName).Equal("manual.pdf")
}

func TestUploadAndWaitOperation(t *testing.T) {
	ctx := context.Background()

	var polls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/upload/v1beta/fileSearchStores/abc:uploadToFileSearchStore":
			gt.V(t, r.Header.Get("X-Goog-Upload-Protocol")).Equal("raw")
			gt.V(t, r.Header.Get("X-Goog-File-Name")).Equal("manual.pdf")
			gt.V(t, r.Header.Get("Content-Type")).Equal("application/pdf")
			json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-1", "done": false})

		case r.URL.Path == "/v1beta/operations/op-1":
			done := polls.Add(1) >= 3
			json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-1", "done": done})

		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))

	file := &model.StagedFile{Name: "manual.pdf", MIMEType: "application/pdf", Data: []byte("%PDF-")}
	op, err := client.UploadFile(ctx, "fileSearchStores/abc", file)
	gt.NoError(t, err)
	gt.V(t, op.Name).Equal("operations/op-1")
	gt.False(t, op.Done)

	gt.NoError(t, client.WaitOperation(ctx, op))
	gt.Number(t, int(polls.Load())).GreaterOrEqual(3)
}

func TestWaitOperationFailure(t *testing.T) {
	ctx := context.Background()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"name": "operations/op-1",
			"done": true,
			"error": map[string]any{
				"code":    13,
				"message": "ingestion failed",
			},
		})
	}))

	err := client.WaitOperation(ctx, &model.Operation{Name: "operations/op-1"})
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("operation failed")
}

func TestDeleteStoreSendsForce(t *testing.T) {
	ctx := context.Background()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.V(t, r.Method).Equal(http.MethodDelete)
		gt.V(t, r.URL.Path).Equal("/v1beta/fileSearchStores/abc")
		gt.V(t, r.URL.Query().Get("force")).Equal("true")
		w.Write([]byte(`{}`))
	}))

	gt.NoError(t, client.DeleteStore(ctx, "fileSearchStores/abc"))
}

func TestDeleteDocument(t *testing.T) {
	ctx := context.Background()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.V(t, r.Method).Equal(http.MethodDelete)
		gt.V(t, r.URL.Path).Equal("/v1beta/fileSearchStores/abc/documents/1")
		w.Write([]byte(`{}`))
	}))

	gt.NoError(t, client.DeleteDocument(ctx, "fileSearchStores/abc/documents/1"))
}

func TestCredentialShapedErrors(t *testing.T) {
	ctx := context.Background()

	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"denied"}}`))
		}))

		_, err := client.ListStores(ctx, 20)
		gt.Error(t, err)
		gt.True(t, model.IsCredentialError(err))
	}

	// 400 with an API key complaint is also credential-shaped.
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
	}))
	_, err := client.ListStores(ctx, 20)
	gt.Error(t, err)
	gt.True(t, model.IsCredentialError(err))

	// A plain server error is not.
	client, _ = newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	_, err = client.ListStores(ctx, 20)
	gt.Error(t, err)
	gt.False(t, model.IsCredentialError(err))
}
