package bolt

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/boltdb/bolt"

	"github.com/bobinette/datanet"
)

// DocumentStore is the embedded alternative to the mongo store, for
// single-binary deployments. Documents are stored as JSON under a key
// derived from their (uuid, uri) pair; queries scan the bucket, which
// is fine at the catalog sizes a single binary serves.
type DocumentStore struct {
	Driver *Driver
}

func documentKey(uuid, uri string) []byte {
	// uuid has a fixed 36-character length, so the concatenation is
	// unambiguous without a separator. One is kept for readability.
	return []byte(uuid + " " + uri)
}

func matches(doc, query datanet.Document) bool {
	for key, value := range query {
		if !reflect.DeepEqual(doc[key], value) {
			return false
		}
	}
	return true
}

func (s *DocumentStore) FindOne(ctx context.Context, query datanet.Document) (datanet.Document, error) {
	var found datanet.Document
	err := s.Driver.store.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(documentBucket)

		c := bucket.Cursor()
		for k, data := c.First(); k != nil; k, data = c.Next() {
			var doc datanet.Document
			if err := json.Unmarshal(data, &doc); err != nil {
				return err
			}
			if matches(doc, query) {
				found = doc
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return found, nil
}

func (s *DocumentStore) Find(ctx context.Context, query datanet.Document) ([]datanet.Document, error) {
	docs := make([]datanet.Document, 0)
	err := s.Driver.store.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(documentBucket)

		return bucket.ForEach(func(k, data []byte) error {
			var doc datanet.Document
			if err := json.Unmarshal(data, &doc); err != nil {
				return err
			}
			if matches(doc, query) {
				docs = append(docs, doc)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}

func (s *DocumentStore) Upsert(ctx context.Context, uuid, uri string, doc datanet.Document) (datanet.Document, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	// Put replaces in place: one live document per (uuid, uri).
	err = s.Driver.store.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(documentBucket)
		return bucket.Put(documentKey(uuid, uri), data)
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

func (s *DocumentStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.Driver.store.View(func(tx *bolt.Tx) error {
		n = int64(tx.Bucket(documentBucket).Stats().KeyN)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return n, nil
}
