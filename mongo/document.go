package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/bobinette/datanet"
)

// DocumentStore implements datanet.DocumentStore on a MongoDB
// collection. The logical key of a document is the (uuid, uri) pair;
// the collection's _id never leaves this package.
type DocumentStore struct {
	collection *mongo.Collection
}

func NewDocumentStore(driver *Driver, collection string) *DocumentStore {
	return &DocumentStore{
		collection: driver.db.Collection(collection),
	}
}

// noID suppresses the store-internal identifier on every read.
var noID = bson.M{"_id": 0}

func (s *DocumentStore) FindOne(ctx context.Context, query datanet.Document) (datanet.Document, error) {
	var doc datanet.Document
	err := s.collection.
		FindOne(ctx, bson.M(query), options.FindOne().SetProjection(noID)).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentStore) Find(ctx context.Context, query datanet.Document) ([]datanet.Document, error) {
	cursor, err := s.collection.Find(ctx, bson.M(query), options.Find().SetProjection(noID))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := make([]datanet.Document, 0)
	for cursor.Next(ctx) {
		var doc datanet.Document
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, cursor.Err()
}

// Upsert is a single atomic replace-or-insert on the (uuid, uri) key:
// no separate existence check, so concurrent re-registrations of the
// same dataset converge on the last write.
func (s *DocumentStore) Upsert(ctx context.Context, uuid, uri string, doc datanet.Document) (datanet.Document, error) {
	filter := bson.M{"uuid": uuid, "uri": uri}
	_, err := s.collection.ReplaceOne(ctx, filter, bson.M(doc), options.Replace().SetUpsert(true))
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentStore) Count(ctx context.Context) (int64, error) {
	return s.collection.CountDocuments(ctx, bson.D{})
}
