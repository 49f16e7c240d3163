package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

type Driver struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewDriver connects to the MongoDB at uri and pings it before
// returning, so a misconfigured store fails at startup rather than on
// the first request.
func NewDriver(uri, database string) (*Driver, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to document store: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("error pinging document store: %v", err)
	}

	return &Driver{
		client: client,
		db:     client.Database(database),
	}, nil
}

func (d *Driver) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}
