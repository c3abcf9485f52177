package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDB wraps the MongoDB client and database
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	dbName   string
}

// CollectionConversations holds one document per message/response pair,
// partitioned by user email.
const CollectionConversations = "conversations"

// NewMongoDB creates a new MongoDB connection with connection pooling
func NewMongoDB(uri, dbName string) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	if dbName == "" {
		dbName = "chatbot"
	}

	db := &MongoDB{
		client:   client,
		database: client.Database(dbName),
		dbName:   dbName,
	}

	log.Printf("✅ Connected to MongoDB database: %s", dbName)

	return db, nil
}

// Initialize creates indexes for the conversations collection.
// userEmail is the partition key: point writes and the common per-user queries
// are single-partition, while cross-user queries scan the collection.
func (m *MongoDB) Initialize(ctx context.Context, collection string) error {
	log.Println("📦 Initializing MongoDB indexes...")

	if collection == "" {
		collection = CollectionConversations
	}

	if err := m.createIndexes(ctx, collection, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userEmail", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "userEmail", Value: 1}, {Key: "sessionId", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "sessionId", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create conversations indexes: %w", err)
	}

	log.Println("✅ MongoDB indexes initialized successfully")
	return nil
}

// createIndexes creates indexes for a collection
func (m *MongoDB) createIndexes(ctx context.Context, collectionName string, indexes []mongo.IndexModel) error {
	collection := m.database.Collection(collectionName)
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// Collection returns a collection handle
func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// Close closes the MongoDB connection
func (m *MongoDB) Close(ctx context.Context) error {
	log.Println("🔌 Closing MongoDB connection...")
	return m.client.Disconnect(ctx)
}

// Ping checks if the database connection is alive
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}
