package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"chatapi/internal/models"
)

func conversationNS(mt *mtest.T) string {
	return fmt.Sprintf("%s.%s", mt.DB.Name(), mt.Coll.Name())
}

func conversationBSON(id, sessionID, userEmail, message string, ts time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "sessionId", Value: sessionID},
		{Key: "userEmail", Value: userEmail},
		{Key: "message", Value: message},
		{Key: "response", Value: "reply to " + message},
		{Key: "timestamp", Value: ts.Format(time.RFC3339)},
	}
}

func TestConversationService(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mt.Run("user conversations newest first", func(mt *mtest.T) {
		svc := &ConversationService{collection: mt.Coll}

		t1, t2, t3 := base, base.Add(time.Minute), base.Add(2*time.Minute)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, conversationNS(mt), mtest.FirstBatch,
			conversationBSON("c3", "session-1", "alice@example.com", "third", t3),
			conversationBSON("c2", "session-1", "alice@example.com", "second", t2),
			conversationBSON("c1", "session-1", "alice@example.com", "first", t1)))

		records := svc.UserConversations(context.Background(), "alice@example.com", 0, "")
		if len(records) != 3 {
			mt.Fatalf("Expected 3 records, got %d", len(records))
		}
		if records[0].ID != "c3" || records[2].ID != "c1" {
			mt.Errorf("Expected newest record first, got ids %s, %s, %s", records[0].ID, records[1].ID, records[2].ID)
		}
		if !records[0].Timestamp.Equal(t3) {
			mt.Errorf("Expected parsed timestamp %v, got %v", t3, records[0].Timestamp)
		}

		evt := mt.GetStartedEvent()
		if evt == nil || evt.CommandName != "find" {
			mt.Fatalf("Expected a find command, got %+v", evt)
		}
		if v, ok := evt.Command.Lookup("sort", "timestamp").AsInt64OK(); !ok || v != -1 {
			mt.Errorf("Expected sort timestamp -1, got %v", evt.Command.Lookup("sort"))
		}
		if v, ok := evt.Command.Lookup("limit").AsInt64OK(); !ok || v != DefaultConversationLimit {
			mt.Errorf("Expected default limit %d, got %v", DefaultConversationLimit, evt.Command.Lookup("limit"))
		}
		if v, ok := evt.Command.Lookup("filter", "userEmail").StringValueOK(); !ok || v != "alice@example.com" {
			mt.Errorf("Expected filter on user email, got %v", evt.Command.Lookup("filter"))
		}
	})

	mt.Run("user conversations narrowed to session", func(mt *mtest.T) {
		svc := &ConversationService{collection: mt.Coll}

		mt.AddMockResponses(mtest.CreateCursorResponse(0, conversationNS(mt), mtest.FirstBatch,
			conversationBSON("c1", "session-2", "alice@example.com", "hello", base)))

		records := svc.UserConversations(context.Background(), "alice@example.com", 5, "session-2")
		if len(records) != 1 {
			mt.Fatalf("Expected 1 record, got %d", len(records))
		}

		evt := mt.GetStartedEvent()
		if v, ok := evt.Command.Lookup("filter", "sessionId").StringValueOK(); !ok || v != "session-2" {
			mt.Errorf("Expected filter on session id, got %v", evt.Command.Lookup("filter"))
		}
		if v, ok := evt.Command.Lookup("limit").AsInt64OK(); !ok || v != 5 {
			mt.Errorf("Expected limit 5, got %v", evt.Command.Lookup("limit"))
		}
	})

	mt.Run("session records chronological", func(mt *mtest.T) {
		svc := &ConversationService{collection: mt.Coll}

		mt.AddMockResponses(mtest.CreateCursorResponse(0, conversationNS(mt), mtest.FirstBatch,
			conversationBSON("c1", "session-1", "alice@example.com", "first", base),
			conversationBSON("c2", "session-1", "alice@example.com", "second", base.Add(time.Minute))))

		records := svc.BySession(context.Background(), "session-1")
		if len(records) != 2 {
			mt.Fatalf("Expected 2 records, got %d", len(records))
		}
		if !records[0].Timestamp.Before(records[1].Timestamp) {
			mt.Error("Expected chronological order within a session")
		}

		evt := mt.GetStartedEvent()
		if v, ok := evt.Command.Lookup("sort", "timestamp").AsInt64OK(); !ok || v != 1 {
			mt.Errorf("Expected ascending sort, got %v", evt.Command.Lookup("sort"))
		}
	})

	mt.Run("save assigns identifier and RFC3339 timestamp", func(mt *mtest.T) {
		svc := &ConversationService{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		rec := &models.ConversationRecord{
			SessionID: "session-1",
			UserEmail: "alice@example.com",
			Message:   "Hello",
			Response:  "Hi there!",
			Timestamp: base,
		}

		id, err := svc.Save(context.Background(), rec)
		if err != nil {
			mt.Fatalf("Expected save to succeed, got %v", err)
		}
		if id == "" {
			mt.Fatal("Expected a generated identifier")
		}

		evt := mt.GetStartedEvent()
		if evt == nil || evt.CommandName != "insert" {
			mt.Fatalf("Expected an insert command, got %+v", evt)
		}
		doc := evt.Command.Lookup("documents").Array().Index(0).Value().Document()
		if got, ok := doc.Lookup("_id").StringValueOK(); !ok || got != id {
			mt.Errorf("Expected stored _id %s, got %v", id, doc.Lookup("_id"))
		}
		stored, ok := doc.Lookup("timestamp").StringValueOK()
		if !ok {
			mt.Fatalf("Expected a string timestamp, got %v", doc.Lookup("timestamp"))
		}
		parsed, err := time.Parse(time.RFC3339, stored)
		if err != nil || !parsed.Equal(base) {
			mt.Errorf("Expected RFC3339 timestamp %v, got %q", base, stored)
		}
	})

	mt.Run("save propagates write failures", func(mt *mtest.T) {
		svc := &ConversationService{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11600,
			Message: "interrupted at shutdown",
			Name:    "InterruptedAtShutdown",
		}))

		if _, err := svc.Save(context.Background(), &models.ConversationRecord{
			SessionID: "session-1",
			UserEmail: "alice@example.com",
			Timestamp: base,
		}); err == nil {
			mt.Error("Expected save to report the write failure")
		}
	})

	mt.Run("query failures return an empty slice", func(mt *mtest.T) {
		svc := &ConversationService{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11600,
			Message: "interrupted at shutdown",
			Name:    "InterruptedAtShutdown",
		}))

		records := svc.UserConversations(context.Background(), "alice@example.com", 0, "")
		if records == nil || len(records) != 0 {
			mt.Errorf("Expected an empty slice, got %v", records)
		}
	})

	mt.Run("delete removes all user records", func(mt *mtest.T) {
		svc := &ConversationService{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}))

		deleted, err := svc.DeleteUserConversations(context.Background(), "alice@example.com")
		if err != nil {
			mt.Fatalf("Expected delete to succeed, got %v", err)
		}
		if deleted != 2 {
			mt.Errorf("Expected 2 deletions, got %d", deleted)
		}

		evt := mt.GetStartedEvent()
		if evt == nil || evt.CommandName != "delete" {
			mt.Fatalf("Expected a delete command, got %+v", evt)
		}
	})
}
