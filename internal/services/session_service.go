package services

import (
	"context"
	"database/sql"
	"log"

	"github.com/google/uuid"

	"chatapi/internal/database"
	"chatapi/internal/models"
)

// SessionService manages chat sessions in MySQL.
// GetOrCreate never fails: if the store is unreachable the caller still gets a
// fresh identifier, it just isn't backed by a row.
type SessionService struct {
	db *database.DB
}

// NewSessionService creates a new session service
func NewSessionService(db *database.DB) *SessionService {
	return &SessionService{db: db}
}

// GetOrCreate returns the most recently created session for the user,
// creating one if none exists.
func (s *SessionService) GetOrCreate(ctx context.Context, userEmail string) string {
	var sessionID string
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id FROM chat_sessions
		WHERE user_email = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, userEmail).Scan(&sessionID)

	if err == nil {
		return sessionID
	}
	if err != sql.ErrNoRows {
		log.Printf("❌ Session lookup failed for %s: %v", userEmail, err)
	}

	return s.create(ctx, userEmail)
}

// create inserts a new session row and returns its identifier.
// On insert failure it falls back to an unpersisted identifier.
func (s *SessionService) create(ctx context.Context, userEmail string) string {
	sessionID := uuid.NewString()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO chat_sessions (user_email, session_id) VALUES (?, ?)",
		userEmail, sessionID)
	if err != nil {
		log.Printf("❌ Failed to create chat session for %s: %v", userEmail, err)
		return uuid.NewString()
	}

	// Session counter on the stats rollup. Failure here does not affect the session.
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO user_stats (user_email, total_sessions)
		VALUES (?, 1)
		ON DUPLICATE KEY UPDATE total_sessions = total_sessions + 1
	`, userEmail); err != nil {
		log.Printf("⚠️  Failed to update session count for %s: %v", userEmail, err)
	}

	log.Printf("✅ Created chat session for user: %s", userEmail)
	return sessionID
}

// ListByUser returns the user's sessions, newest first.
// Query failures return an empty slice.
func (s *SessionService) ListByUser(ctx context.Context, userEmail string, limit int) []models.ChatSession {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_email, session_id, created_at
		FROM chat_sessions
		WHERE user_email = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userEmail, limit)
	if err != nil {
		log.Printf("❌ Failed to list sessions for %s: %v", userEmail, err)
		return []models.ChatSession{}
	}
	defer rows.Close()

	sessions := []models.ChatSession{}
	for rows.Next() {
		var sess models.ChatSession
		if err := rows.Scan(&sess.ID, &sess.UserEmail, &sess.SessionID, &sess.CreatedAt); err != nil {
			log.Printf("❌ Failed to scan session row: %v", err)
			return []models.ChatSession{}
		}
		sessions = append(sessions, sess)
	}
	return sessions
}

// ListWithCounts returns the user's sessions joined with their message counts,
// newest first. Query failures return an empty slice.
func (s *SessionService) ListWithCounts(ctx context.Context, userEmail string) []models.SessionSummary {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cs.id, cs.user_email, cs.session_id, cs.created_at, COUNT(cm.id) AS message_count
		FROM chat_sessions cs
		LEFT JOIN chat_messages cm ON cs.session_id = cm.session_id
		WHERE cs.user_email = ?
		GROUP BY cs.id, cs.user_email, cs.session_id, cs.created_at
		ORDER BY cs.created_at DESC
	`, userEmail)
	if err != nil {
		log.Printf("❌ Failed to list sessions with counts for %s: %v", userEmail, err)
		return []models.SessionSummary{}
	}
	defer rows.Close()

	summaries := []models.SessionSummary{}
	for rows.Next() {
		var sum models.SessionSummary
		if err := rows.Scan(&sum.ID, &sum.UserEmail, &sum.SessionID, &sum.CreatedAt, &sum.MessageCount); err != nil {
			log.Printf("❌ Failed to scan session summary row: %v", err)
			return []models.SessionSummary{}
		}
		summaries = append(summaries, sum)
	}
	return summaries
}
