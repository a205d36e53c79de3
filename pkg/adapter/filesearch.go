package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/libris-dev/libris/pkg/model"
	"github.com/libris-dev/libris/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// FileSearch is the interface for the remote document store service.
// Uploads are long-running: UploadFile returns a handle that must be polled
// via PollOperation (or WaitOperation) until done.
type FileSearch interface {
	CreateStore(ctx context.Context, displayName string) (*model.Store, error)
	ListStores(ctx context.Context, pageSize int) ([]*model.Store, error)
	ListDocuments(ctx context.Context, storeID model.StoreID, pageSize int) ([]*model.Document, error)
	UploadFile(ctx context.Context, storeID model.StoreID, file *model.StagedFile) (*model.Operation, error)
	PollOperation(ctx context.Context, op *model.Operation) (*model.Operation, error)
	WaitOperation(ctx context.Context, op *model.Operation) error
	DeleteDocument(ctx context.Context, docID model.DocumentID) error
	DeleteStore(ctx context.Context, storeID model.StoreID) error
}

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// FileSearchClient implements FileSearch against the Generative Language
// fileSearchStores REST surface. It speaks raw JSON on purpose: the listing
// endpoints have shipped with drifting field naming (camel vs snake case,
// varying envelope key), and the client must decode all of them.
type FileSearchClient struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	pollInterval time.Duration
}

type FileSearchOption func(*FileSearchClient)

// WithBaseURL overrides the API endpoint. Used by tests.
func WithBaseURL(u string) FileSearchOption {
	return func(c *FileSearchClient) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) FileSearchOption {
	return func(c *FileSearchClient) {
		c.httpClient = hc
	}
}

// WithPollInterval overrides the 3s operation polling interval.
func WithPollInterval(d time.Duration) FileSearchOption {
	return func(c *FileSearchClient) {
		c.pollInterval = d
	}
}

func NewFileSearch(apiKey string, opts ...FileSearchOption) (*FileSearchClient, error) {
	if apiKey == "" {
		return nil, goerr.Wrap(model.ErrCredentialRejected, "api key is required")
	}

	c := &FileSearchClient{
		httpClient:   http.DefaultClient,
		baseURL:      defaultBaseURL,
		apiKey:       apiKey,
		pollInterval: 3 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *FileSearchClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal request body")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return goerr.Wrap(err, "failed to build request", goerr.V("path", path))
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "request failed", goerr.V("method", method), goerr.V("path", path))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return goerr.Wrap(err, "failed to read response body")
	}

	if err := checkStatus(resp.StatusCode, raw, path); err != nil {
		return err
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return goerr.Wrap(err, "failed to decode response", goerr.V("path", path))
		}
	}

	return nil
}

func checkStatus(code int, body []byte, path string) error {
	if code >= 200 && code < 300 {
		return nil
	}

	snippet := string(body)
	if len(snippet) > 512 {
		snippet = snippet[:512]
	}

	if code == http.StatusUnauthorized || code == http.StatusForbidden ||
		(code == http.StatusBadRequest && strings.Contains(snippet, "API key")) {
		return goerr.Wrap(model.ErrCredentialRejected, "remote rejected credential",
			goerr.V("status", code), goerr.V("path", path))
	}

	return goerr.New("unexpected response status",
		goerr.V("status", code), goerr.V("path", path), goerr.V("body", snippet))
}

// storeItem accepts both camelCase and snake_case field naming.
type storeItem struct {
	Name             string `json:"name"`
	DisplayName      string `json:"displayName"`
	DisplayNameSnake string `json:"display_name"`
}

func (s storeItem) displayName() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.DisplayNameSnake
}

func (c *FileSearchClient) CreateStore(ctx context.Context, displayName string) (*model.Store, error) {
	var item storeItem
	body := map[string]string{"displayName": displayName}
	if err := c.do(ctx, http.MethodPost, "/v1beta/fileSearchStores", nil, body, &item); err != nil {
		return nil, goerr.Wrap(err, "failed to create store", goerr.V("display_name", displayName))
	}
	if item.Name == "" {
		return nil, goerr.New("store creation response has no name", goerr.V("display_name", displayName))
	}

	store := &model.Store{ID: model.StoreID(item.Name), DisplayName: item.displayName()}
	if store.DisplayName == "" {
		store.DisplayName = displayName
	}
	return store, nil
}

func (c *FileSearchClient) ListStores(ctx context.Context, pageSize int) ([]*model.Store, error) {
	query := url.Values{"pageSize": []string{strconv.Itoa(pageSize)}}
	var envelope map[string]json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/v1beta/fileSearchStores", query, nil, &envelope); err != nil {
		return nil, goerr.Wrap(err, "failed to list stores")
	}

	items, err := extractArray(ctx, envelope, "fileSearchStores", "file_search_stores")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode store list")
	}

	stores := make([]*model.Store, 0, len(items))
	for _, raw := range items {
		var item storeItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, goerr.Wrap(err, "failed to decode store entry")
		}
		if item.Name == "" {
			continue
		}
		stores = append(stores, &model.Store{
			ID:          model.StoreID(item.Name),
			DisplayName: item.displayName(),
		})
	}

	return stores, nil
}

type documentItem struct {
	Name             string          `json:"name"`
	DisplayName      string          `json:"displayName"`
	DisplayNameSnake string          `json:"display_name"`
	CustomMetadata   []metadataEntry `json:"customMetadata"`
	MetadataSnake    []metadataEntry `json:"custom_metadata"`
}

type metadataEntry struct {
	Key         string `json:"key"`
	StringValue string `json:"stringValue"`
	StringSnake string `json:"string_value"`
	NumericVal  *f64   `json:"numericValue"`
	NumericSn   *f64   `json:"numeric_value"`
}

// f64 exists only to keep numeric metadata values renderable as strings.
type f64 float64

func (e metadataEntry) value() string {
	switch {
	case e.StringValue != "":
		return e.StringValue
	case e.StringSnake != "":
		return e.StringSnake
	case e.NumericVal != nil:
		return strconv.FormatFloat(float64(*e.NumericVal), 'f', -1, 64)
	case e.NumericSn != nil:
		return strconv.FormatFloat(float64(*e.NumericSn), 'f', -1, 64)
	}
	return ""
}

func (c *FileSearchClient) ListDocuments(ctx context.Context, storeID model.StoreID, pageSize int) ([]*model.Document, error) {
	query := url.Values{"pageSize": []string{strconv.Itoa(pageSize)}}
	var envelope map[string]json.RawMessage
	path := "/v1beta/" + string(storeID) + "/documents"
	if err := c.do(ctx, http.MethodGet, path, query, nil, &envelope); err != nil {
		return nil, goerr.Wrap(err, "failed to list documents", goerr.V("store_id", storeID))
	}

	items, err := extractArray(ctx, envelope, "documents")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode document list", goerr.V("store_id", storeID))
	}

	docs := make([]*model.Document, 0, len(items))
	for _, raw := range items {
		var item documentItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, goerr.Wrap(err, "failed to decode document entry")
		}
		if item.Name == "" {
			continue
		}

		doc := &model.Document{
			ID:          model.DocumentID(item.Name),
			DisplayName: item.DisplayName,
		}
		if doc.DisplayName == "" {
			doc.DisplayName = item.DisplayNameSnake
		}
		meta := item.CustomMetadata
		if len(meta) == 0 {
			meta = item.MetadataSnake
		}
		for _, m := range meta {
			doc.Metadata = append(doc.Metadata, model.MetaEntry{Key: m.Key, Value: m.value()})
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

// extractArray pulls the payload array out of a list response envelope.
// Known keys are tried first; if none match, the first array-valued key (in
// sorted key order, for determinism) is used and the fallback is logged as a
// degraded-mode path. An envelope with no array at all yields an empty list,
// which covers the service's habit of returning "{}" for an empty listing.
func extractArray(ctx context.Context, envelope map[string]json.RawMessage, knownKeys ...string) ([]json.RawMessage, error) {
	for _, key := range knownKeys {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, goerr.Wrap(err, "envelope field is not an array", goerr.V("key", key))
		}
		return items, nil
	}

	keys := make([]string, 0, len(envelope))
	for k := range envelope {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if key == "nextPageToken" || key == "next_page_token" {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(envelope[key], &items); err != nil {
			continue
		}
		logging.From(ctx).Warn("list envelope had no recognized key, using heuristic array discovery",
			"key", key, "known", knownKeys)
		return items, nil
	}

	return nil, nil
}

type operationResponse struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *FileSearchClient) UploadFile(ctx context.Context, storeID model.StoreID, file *model.StagedFile) (*model.Operation, error) {
	u := c.baseURL + "/upload/v1beta/" + string(storeID) + ":uploadToFileSearchStore"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(file.Data))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build upload request", goerr.V("file", file.Name))
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("X-Goog-Upload-Protocol", "raw")
	req.Header.Set("X-Goog-File-Name", file.Name)
	contentType := file.MIMEType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "upload request failed", goerr.V("file", file.Name))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read upload response")
	}
	if err := checkStatus(resp.StatusCode, raw, "uploadToFileSearchStore"); err != nil {
		return nil, goerr.Wrap(err, "failed to upload file", goerr.V("file", file.Name), goerr.V("store_id", storeID))
	}

	var op operationResponse
	if err := json.Unmarshal(raw, &op); err != nil {
		return nil, goerr.Wrap(err, "failed to decode upload operation", goerr.V("file", file.Name))
	}
	if op.Name == "" {
		return nil, goerr.New("upload response has no operation name", goerr.V("file", file.Name))
	}

	return &model.Operation{Name: op.Name, Done: op.Done}, nil
}

func (c *FileSearchClient) PollOperation(ctx context.Context, op *model.Operation) (*model.Operation, error) {
	var polled operationResponse
	if err := c.do(ctx, http.MethodGet, "/v1beta/"+op.Name, nil, nil, &polled); err != nil {
		return nil, goerr.Wrap(err, "failed to poll operation", goerr.V("operation", op.Name))
	}
	if polled.Error != nil {
		return nil, goerr.New("operation failed",
			goerr.V("operation", op.Name),
			goerr.V("code", polled.Error.Code),
			goerr.V("message", polled.Error.Message))
	}

	return &model.Operation{Name: op.Name, Done: polled.Done}, nil
}

// WaitOperation polls on a fixed interval until the operation completes.
// No backoff and no poll cap: the remote operation either completes or the
// poll call itself fails.
func (c *FileSearchClient) WaitOperation(ctx context.Context, op *model.Operation) error {
	current := op
	for !current.Done {
		select {
		case <-ctx.Done():
			return goerr.Wrap(ctx.Err(), "operation wait canceled", goerr.V("operation", op.Name))
		case <-time.After(c.pollInterval):
		}

		polled, err := c.PollOperation(ctx, current)
		if err != nil {
			return err
		}
		current = polled
	}

	return nil
}

func (c *FileSearchClient) DeleteDocument(ctx context.Context, docID model.DocumentID) error {
	if err := c.do(ctx, http.MethodDelete, "/v1beta/"+string(docID), nil, nil, nil); err != nil {
		return goerr.Wrap(err, "failed to delete document", goerr.V("document_id", docID))
	}
	return nil
}

// DeleteStore always forces deletion so stores with remaining documents are
// removed as well.
func (c *FileSearchClient) DeleteStore(ctx context.Context, storeID model.StoreID) error {
	query := url.Values{"force": []string{"true"}}
	if err := c.do(ctx, http.MethodDelete, "/v1beta/"+string(storeID), query, nil, nil); err != nil {
		return goerr.Wrap(err, "failed to delete store", goerr.V("store_id", storeID))
	}
	return nil
}
