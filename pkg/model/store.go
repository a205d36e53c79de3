package model

// StoreID is the opaque resource name of a remote document store,
// e.g. "fileSearchStores/abc123". It is stable and used as the primary key.
type StoreID string

// Store is a remote, persistent, queryable container for documents.
type Store struct {
	ID          StoreID
	DisplayName string
}

// DocumentID is the opaque resource name of a document within a store.
type DocumentID string

// MetaEntry is one key/value pair of document metadata. Order is preserved.
type MetaEntry struct {
	Key   string
	Value string
}

// Document is one ingested file inside a store.
type Document struct {
	ID          DocumentID
	DisplayName string
	Metadata    []MetaEntry
}

// StagedFile is a local file pending upload. The content is held in memory;
// staged files are ephemeral and dropped when a session ends.
type StagedFile struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Size returns the content size in bytes.
func (f *StagedFile) Size() int {
	return len(f.Data)
}

// Operation is a handle for a long-running remote task. It must be polled
// until Done is set.
type Operation struct {
	Name string
	Done bool
}
