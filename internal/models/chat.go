package models

import (
	"strings"
	"time"
)

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	Message   string `json:"message"`
	UserEmail string `json:"user_email"`
}

// Validate checks the request before any external call is made
func (r *ChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" {
		return &ValidationError{Field: "message", Reason: "message is empty"}
	}
	if r.UserEmail == "" {
		return &ValidationError{Field: "user_email", Reason: "user email is required"}
	}
	return nil
}

// ChatResponse is the body returned from POST /chat
type ChatResponse struct {
	Response string `json:"response"`
	Success  bool   `json:"success"`
}

// ConversationRecord is a single message/response pair.
// Records are immutable once written; the same record is saved to both stores.
type ConversationRecord struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	SessionID string    `json:"session_id" bson:"sessionId"`
	UserEmail string    `json:"user_email" bson:"userEmail"`
	Message   string    `json:"message" bson:"message"`
	Response  string    `json:"response" bson:"response"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// ChatSession groups one user's conversation turns under a generated identifier
type ChatSession struct {
	ID        int64     `json:"id"`
	UserEmail string    `json:"user_email"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionSummary is a session joined with its message count
type SessionSummary struct {
	ChatSession
	MessageCount int `json:"message_count"`
}

// UserStats is the per-user rollup maintained as a side effect of relational saves.
// TotalMessages is monotonically non-decreasing.
type UserStats struct {
	UserEmail     string     `json:"user_email"`
	TotalMessages int        `json:"total_messages"`
	TotalSessions int        `json:"total_sessions"`
	FirstChatAt   *time.Time `json:"first_chat_at"`
	LastChatAt    *time.Time `json:"last_chat_at"`
}

// PersistenceStatus reports how many of the two stores accepted the record.
// The wire contract does not depend on it; it exists for logs and metrics.
type PersistenceStatus int

const (
	PersistedBoth PersistenceStatus = iota
	PersistedPartial
	PersistedNone
)

func (p PersistenceStatus) String() string {
	switch p {
	case PersistedBoth:
		return "both"
	case PersistedPartial:
		return "partial"
	case PersistedNone:
		return "none"
	}
	return "unknown"
}

// ChatResult is the orchestrator outcome for a single chat request
type ChatResult struct {
	Response    string
	SessionID   string
	Persistence PersistenceStatus
}
