package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"chatapi/internal/database"
	"chatapi/internal/models"
)

// DefaultConversationLimit bounds document-store queries when the caller
// supplies no limit.
const DefaultConversationLimit = 50

// conversationDoc is the stored document shape. Timestamps are kept as
// ISO-8601 strings so documents stay readable outside this service.
type conversationDoc struct {
	ID        string `bson:"_id"`
	SessionID string `bson:"sessionId"`
	UserEmail string `bson:"userEmail"`
	Message   string `bson:"message"`
	Response  string `bson:"response"`
	Timestamp string `bson:"timestamp"`
}

// ConversationService is the document conversation log in MongoDB,
// partitioned by user email.
type ConversationService struct {
	collection *mongo.Collection
}

// NewConversationService creates a new conversation service backed by the
// named collection. An empty name selects the default collection.
func NewConversationService(db *database.MongoDB, collection string) *ConversationService {
	if collection == "" {
		collection = database.CollectionConversations
	}
	return &ConversationService{collection: db.Collection(collection)}
}

// Save writes one conversation record, assigning a generated identifier when
// the record carries none. Failures propagate; the orchestrator decides
// whether to swallow them.
func (s *ConversationService) Save(ctx context.Context, rec *models.ConversationRecord) (string, error) {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}

	doc := conversationDoc{
		ID:        id,
		SessionID: rec.SessionID,
		UserEmail: rec.UserEmail,
		Message:   rec.Message,
		Response:  rec.Response,
		Timestamp: rec.Timestamp.Format(time.RFC3339),
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to save conversation document: %w", err)
	}

	log.Printf("✅ Conversation saved to document store: %s", id)
	return id, nil
}

// UserConversations returns the user's records, newest first, optionally
// narrowed to one session. Query failures return an empty slice.
func (s *ConversationService) UserConversations(ctx context.Context, userEmail string, limit int, sessionID string) []models.ConversationRecord {
	if limit <= 0 {
		limit = DefaultConversationLimit
	}

	filter := bson.M{"userEmail": userEmail}
	if sessionID != "" {
		filter["sessionId"] = sessionID
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(0).
		SetLimit(int64(limit))

	return s.find(ctx, filter, opts)
}

// BySession returns one session's records in chronological order.
func (s *ConversationService) BySession(ctx context.Context, sessionID string) []models.ConversationRecord {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	return s.find(ctx, bson.M{"sessionId": sessionID}, opts)
}

// DeleteUserConversations removes every record belonging to the user.
// Administrative operation; this is the one cross-record write path.
func (s *ConversationService) DeleteUserConversations(ctx context.Context, userEmail string) (int64, error) {
	result, err := s.collection.DeleteMany(ctx, bson.M{"userEmail": userEmail})
	if err != nil {
		return 0, fmt.Errorf("failed to delete conversations for %s: %w", userEmail, err)
	}

	log.Printf("🗑️  Deleted %d conversations for user: %s", result.DeletedCount, userEmail)
	return result.DeletedCount, nil
}

func (s *ConversationService) find(ctx context.Context, filter bson.M, opts *options.FindOptions) []models.ConversationRecord {
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("❌ Failed to query conversation documents: %v", err)
		return []models.ConversationRecord{}
	}
	defer cursor.Close(ctx)

	records := []models.ConversationRecord{}
	for cursor.Next(ctx) {
		var doc conversationDoc
		if err := cursor.Decode(&doc); err != nil {
			log.Printf("❌ Failed to decode conversation document: %v", err)
			return []models.ConversationRecord{}
		}

		ts, err := time.Parse(time.RFC3339, doc.Timestamp)
		if err != nil {
			log.Printf("⚠️  Malformed timestamp on document %s: %v", doc.ID, err)
		}

		records = append(records, models.ConversationRecord{
			ID:        doc.ID,
			SessionID: doc.SessionID,
			UserEmail: doc.UserEmail,
			Message:   doc.Message,
			Response:  doc.Response,
			Timestamp: ts,
		})
	}
	if err := cursor.Err(); err != nil {
		log.Printf("❌ Conversation cursor error: %v", err)
		return []models.ConversationRecord{}
	}
	return records
}
