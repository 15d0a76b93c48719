// Package docstore defines the document database contract the seeder drives.
// Backends (Appwrite REST, PostgreSQL, ClickHouse, SQLite) implement Client.
package docstore

import "context"

// Client creates and fetches documents in a collection.
type Client interface {
	CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]any) (Document, error)
	GetDocument(ctx context.Context, databaseID, collectionID, documentID string) (Document, error)
	Close() error
}

// Document is a stored record as returned by the backend.
type Document struct {
	ID   string
	Data map[string]any
}

// Field returns the named field as a string. ok is false when the field is
// absent, null, or not a string.
func (d Document) Field(name string) (string, bool) {
	v, ok := d.Data[name]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
