package services

import (
	"context"
	"log"
	"time"

	"chatapi/internal/logging"
	"chatapi/internal/models"
)

// SessionStore resolves a session identifier for a user. Implementations must
// never fail: an unreachable store yields a fresh unpersisted identifier.
type SessionStore interface {
	GetOrCreate(ctx context.Context, userEmail string) string
}

// RelationalLog is the relational conversation log. Save reports failure as a
// boolean rather than an error.
type RelationalLog interface {
	Save(ctx context.Context, rec *models.ConversationRecord) bool
}

// DocumentLog is the document conversation log. Save failures propagate.
type DocumentLog interface {
	Save(ctx context.Context, rec *models.ConversationRecord) (string, error)
}

// Completer generates a response for a user message
type Completer interface {
	Generate(ctx context.Context, userMessage string) (string, error)
}

// ChatService orchestrates one chat request: validate, resolve session, call
// the completion provider, then write the record to both stores best-effort.
// Persistence failures never fail the request; they are observable only
// through logs and the result's PersistenceStatus.
type ChatService struct {
	sessions  SessionStore
	messages  RelationalLog
	documents DocumentLog
	completer Completer
}

// NewChatService creates a new chat orchestrator with injected stores
func NewChatService(sessions SessionStore, messages RelationalLog, documents DocumentLog, completer Completer) *ChatService {
	return &ChatService{
		sessions:  sessions,
		messages:  messages,
		documents: documents,
		completer: completer,
	}
}

// HandleChat processes one chat request. It returns a ValidationError before
// any external call when the request is malformed, a ProviderError when the
// completion call fails, and otherwise succeeds regardless of persistence.
func (s *ChatService) HandleChat(ctx context.Context, req *models.ChatRequest) (*models.ChatResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	log.Printf("💬 Processing chat request from user: %s", req.UserEmail)

	sessionID := s.sessions.GetOrCreate(ctx, req.UserEmail)

	response, err := s.completer.Generate(ctx, req.Message)
	if err != nil {
		return nil, err
	}

	rec := &models.ConversationRecord{
		SessionID: sessionID,
		UserEmail: req.UserEmail,
		Message:   req.Message,
		Response:  response,
		Timestamp: time.Now(),
	}

	reqLog := logging.WithRequest(req.UserEmail, sessionID)
	saved := 0

	if s.messages.Save(ctx, rec) {
		saved++
	} else {
		reqLog.Error("relational save failed, continuing")
	}

	if _, err := s.documents.Save(ctx, rec); err != nil {
		reqLog.Error("document save failed, continuing", "error", err)
	} else {
		saved++
	}

	status := models.PersistedNone
	switch saved {
	case 2:
		status = models.PersistedBoth
	case 1:
		status = models.PersistedPartial
	}

	if status != models.PersistedBoth {
		reqLog.Warn("chat answered with degraded persistence", "persistence", status.String())
	}

	return &models.ChatResult{
		Response:    response,
		SessionID:   sessionID,
		Persistence: status,
	}, nil
}
