package datanet

import (
	"context"
)

// RequiredKeys lists the keys a registration payload must carry to be
// accepted by the registration service.
var RequiredKeys = []string{"uuid", "base_uri", "uri", "name", "type", "readme"}

// Document is the free-form descriptive metadata of a dataset. On top of
// the required keys it can carry any number of extra fields, which are
// stored and returned as-is. The logical key of a document is the
// (uuid, uri) pair: registering again with the same pair replaces the
// document in place.
type Document map[string]interface{}

// String returns the value under key if it is a string, and the empty
// string otherwise.
func (d Document) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Copy returns a shallow copy of the document. Queries are copied before
// being pinned to a base URI so the caller's map is never mutated.
func (d Document) Copy() Document {
	c := make(Document, len(d))
	for k, v := range d {
		c[k] = v
	}
	return c
}

// Dataset is the admin record of a dataset: the identity-bearing row
// tying its URI to its UUID, owning base URI and name. Admin records are
// immutable once created for a given URI; only the descriptive document
// is refreshed on re-registration. The URI is the dedup key, the UUID is
// an identity label carried along.
type Dataset struct {
	UUID    string `json:"uuid"`
	URI     string `json:"uri"`
	BaseURI string `json:"base_uri"`
	Name    string `json:"name"`
}

// DatasetStore persists admin records.
type DatasetStore interface {
	// GetByURI returns the admin record for uri, or nil if there is none.
	GetByURI(uri string) (*Dataset, error)

	// Insert creates a new admin record. Inserting a URI that already
	// exists returns an error with code 409: under concurrent
	// registration of the same unseen URI the store's unique index
	// arbitrates, and the loser retries.
	Insert(*Dataset) error

	ListForBaseURI(baseURI string) ([]Dataset, error)

	// LookupByUUID returns the admin records matching uuid that lie
	// within the search scope of username, computed as a single join:
	// a dataset the user has no search grant for never appears, even if
	// the UUID matches.
	LookupByUUID(username, uuid string) ([]Dataset, error)

	Count() (int, error)
}

// DocumentStore persists descriptive documents. All methods take a
// context: the mongo backend needs one, the others accept it for
// symmetry.
type DocumentStore interface {
	// FindOne returns a document matching all the fields of query, or
	// nil if there is none. No store-internal identifier is leaked.
	FindOne(ctx context.Context, query Document) (Document, error)

	// Find returns all the documents matching query.
	Find(ctx context.Context, query Document) ([]Document, error)

	// Upsert replaces the document keyed by (uuid, uri) with doc, or
	// inserts doc if the key is unseen, as a single atomic operation.
	// The returned document carries no store-internal identifier.
	Upsert(ctx context.Context, uuid, uri string, doc Document) (Document, error)

	Count(ctx context.Context) (int64, error)
}

// DatasetIndex is the free-text index over dataset names and readmes.
// It is fed best-effort at registration time and can be rebuilt from the
// document store.
type DatasetIndex interface {
	Index(uri, name, readme string) error

	// Search returns the URIs of the datasets matching q.
	Search(q string) ([]string, error)

	Delete(uri string) error

	Close() error
}
