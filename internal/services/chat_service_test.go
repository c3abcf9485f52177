package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"chatapi/internal/models"
)

type fakeSessionStore struct {
	calls     int
	sessionID string
}

func (f *fakeSessionStore) GetOrCreate(ctx context.Context, userEmail string) string {
	f.calls++
	return f.sessionID
}

type fakeRelationalLog struct {
	calls int
	fail  bool
	last  *models.ConversationRecord
}

func (f *fakeRelationalLog) Save(ctx context.Context, rec *models.ConversationRecord) bool {
	f.calls++
	f.last = rec
	return !f.fail
}

type fakeDocumentLog struct {
	calls int
	fail  bool
	last  *models.ConversationRecord
}

func (f *fakeDocumentLog) Save(ctx context.Context, rec *models.ConversationRecord) (string, error) {
	f.calls++
	f.last = rec
	if f.fail {
		return "", errors.New("document store unreachable")
	}
	return "doc-1", nil
}

type fakeCompleter struct {
	calls    int
	response string
	err      error
}

func (f *fakeCompleter) Generate(ctx context.Context, userMessage string) (string, error) {
	f.calls++
	return f.response, f.err
}

func newFixture() (*ChatService, *fakeSessionStore, *fakeRelationalLog, *fakeDocumentLog, *fakeCompleter) {
	sessions := &fakeSessionStore{sessionID: "session-1"}
	relational := &fakeRelationalLog{}
	documents := &fakeDocumentLog{}
	completer := &fakeCompleter{response: "Hi there!"}
	svc := NewChatService(sessions, relational, documents, completer)
	return svc, sessions, relational, documents, completer
}

func TestHandleChat_Success(t *testing.T) {
	svc, sessions, relational, documents, _ := newFixture()

	result, err := svc.HandleChat(context.Background(), &models.ChatRequest{
		Message:   "Hello",
		UserEmail: "a@example.com",
	})
	if err != nil {
		t.Fatalf("HandleChat failed: %v", err)
	}

	if result.Response != "Hi there!" {
		t.Errorf("Expected response %q, got %q", "Hi there!", result.Response)
	}
	if result.SessionID != "session-1" {
		t.Errorf("Expected session-1, got %s", result.SessionID)
	}
	if result.Persistence != models.PersistedBoth {
		t.Errorf("Expected persistence=both, got %s", result.Persistence)
	}
	if sessions.calls != 1 {
		t.Errorf("Expected 1 session call, got %d", sessions.calls)
	}

	for name, rec := range map[string]*models.ConversationRecord{
		"relational": relational.last,
		"document":   documents.last,
	} {
		if rec == nil {
			t.Fatalf("%s store received no record", name)
		}
		if rec.Message != "Hello" || rec.Response != "Hi there!" {
			t.Errorf("%s record mismatch: %+v", name, rec)
		}
		if rec.SessionID != "session-1" || rec.UserEmail != "a@example.com" {
			t.Errorf("%s record identifiers mismatch: %+v", name, rec)
		}
		if rec.Timestamp.IsZero() {
			t.Errorf("%s record has zero timestamp", name)
		}
	}
}

func TestHandleChat_ValidationRejectsBeforeAnyCall(t *testing.T) {
	tests := []struct {
		name string
		req  models.ChatRequest
	}{
		{"empty message", models.ChatRequest{Message: "", UserEmail: "a@example.com"}},
		{"whitespace message", models.ChatRequest{Message: "   \t\n", UserEmail: "a@example.com"}},
		{"missing email", models.ChatRequest{Message: "Hello", UserEmail: ""}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, sessions, relational, documents, completer := newFixture()

			_, err := svc.HandleChat(context.Background(), &tc.req)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}

			var validationErr *models.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("Expected ValidationError, got %T: %v", err, err)
			}

			if sessions.calls != 0 || completer.calls != 0 || relational.calls != 0 || documents.calls != 0 {
				t.Errorf("Expected no external calls, got sessions=%d completer=%d relational=%d documents=%d",
					sessions.calls, completer.calls, relational.calls, documents.calls)
			}
		})
	}
}

func TestHandleChat_RelationalFailureDoesNotFailRequest(t *testing.T) {
	svc, _, relational, documents, _ := newFixture()
	relational.fail = true

	result, err := svc.HandleChat(context.Background(), &models.ChatRequest{
		Message:   "Hello",
		UserEmail: "a@example.com",
	})
	if err != nil {
		t.Fatalf("Expected success despite relational failure, got %v", err)
	}
	if result.Persistence != models.PersistedPartial {
		t.Errorf("Expected persistence=partial, got %s", result.Persistence)
	}
	if documents.calls != 1 {
		t.Errorf("Document store should still be written, got %d calls", documents.calls)
	}
}

func TestHandleChat_BothStoresFailing(t *testing.T) {
	svc, _, relational, documents, _ := newFixture()
	relational.fail = true
	documents.fail = true

	result, err := svc.HandleChat(context.Background(), &models.ChatRequest{
		Message:   "Hello",
		UserEmail: "a@example.com",
	})
	if err != nil {
		t.Fatalf("Expected success despite both stores failing, got %v", err)
	}
	if result.Persistence != models.PersistedNone {
		t.Errorf("Expected persistence=none, got %s", result.Persistence)
	}
	if result.Response != "Hi there!" {
		t.Errorf("Response should be unaffected, got %q", result.Response)
	}
}

func TestHandleChat_ProviderErrorStopsBeforePersistence(t *testing.T) {
	svc, _, relational, documents, completer := newFixture()
	completer.err = &models.ProviderError{Err: errors.New("connection refused")}
	completer.response = ""

	_, err := svc.HandleChat(context.Background(), &models.ChatRequest{
		Message:   "Hello",
		UserEmail: "a@example.com",
	})
	if err == nil {
		t.Fatal("Expected provider error, got nil")
	}

	var providerErr *models.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("Expected ProviderError, got %T", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Provider error should carry the cause, got %q", err.Error())
	}

	if relational.calls != 0 || documents.calls != 0 {
		t.Errorf("No store should be written on provider failure, got relational=%d documents=%d",
			relational.calls, documents.calls)
	}
}
