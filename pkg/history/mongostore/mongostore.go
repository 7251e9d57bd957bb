package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/altukhov/jarship/pkg/history"
)

// Ensure MongoStore implements the Store interface
var _ history.Store = (*MongoStore)(nil)

type MongoStore struct {
	Client     *mongo.Client
	Collection *mongo.Collection
}

func New(uri, dbName, collName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	//  ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &MongoStore{
		Client:     client,
		Collection: client.Database(dbName).Collection(collName),
	}, nil
}

func (m *MongoStore) Append(ctx context.Context, rec history.Record) error {
	if _, err := m.Collection.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("Append: MongoDB InsertOne failed: %w", err)
	}
	return nil
}

func (m *MongoStore) List(ctx context.Context) ([]history.Record, error) {
	cur, err := m.Collection.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "startedAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("List: MongoDB Find failed: %w", err)
	}
	defer cur.Close(ctx)

	var records []history.Record
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("List: failed to decode documents: %w", err)
	}
	return records, nil
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
