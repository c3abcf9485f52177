package services

import (
	"context"
	"log"
	"strconv"

	"chatapi/internal/database"
	"chatapi/internal/models"
)

// DefaultHistoryLimit bounds relational history queries when the caller
// supplies no limit.
const DefaultHistoryLimit = 20

// MessageService is the relational conversation log in MySQL.
// Saves are best-effort from the orchestrator's point of view: failures are
// reported as a boolean, never propagated.
type MessageService struct {
	db *database.DB
}

// NewMessageService creates a new message service
func NewMessageService(db *database.DB) *MessageService {
	return &MessageService{db: db}
}

// Save appends one conversation record and updates the per-user statistics
// rollup. Returns false on insert failure. The stats upsert failure is logged
// independently; it never undoes the committed insert.
func (s *MessageService) Save(ctx context.Context, rec *models.ConversationRecord) bool {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (session_id, user_email, message, response, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.SessionID, rec.UserEmail, rec.Message, rec.Response, rec.Timestamp)
	if err != nil {
		log.Printf("❌ Failed to save conversation for %s: %v", rec.UserEmail, err)
		return false
	}

	s.updateStats(ctx, rec)

	log.Printf("✅ Conversation saved for user: %s", rec.UserEmail)
	return true
}

// updateStats upserts the per-user rollup keyed by user email:
// insert-or-increment total, refresh last_chat_at, set first_chat_at once.
func (s *MessageService) updateStats(ctx context.Context, rec *models.ConversationRecord) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_stats (user_email, total_messages, first_chat_at, last_chat_at)
		VALUES (?, 1, ?, ?)
		ON DUPLICATE KEY UPDATE
			total_messages = total_messages + 1,
			last_chat_at = VALUES(last_chat_at),
			first_chat_at = COALESCE(first_chat_at, VALUES(first_chat_at))
	`, rec.UserEmail, rec.Timestamp, rec.Timestamp)
	if err != nil {
		log.Printf("⚠️  Failed to update user stats for %s: %v", rec.UserEmail, err)
	}
}

// History returns the user's records, newest first.
// Query failures return an empty slice.
func (s *MessageService) History(ctx context.Context, userEmail string, limit int) []models.ConversationRecord {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	return s.queryRecords(ctx, `
		SELECT id, session_id, user_email, message, response, created_at
		FROM chat_messages
		WHERE user_email = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userEmail, limit)
}

// AllHistory returns the most recent records across all users, newest first.
func (s *MessageService) AllHistory(ctx context.Context, limit int) []models.ConversationRecord {
	if limit <= 0 {
		limit = 100
	}

	return s.queryRecords(ctx, `
		SELECT id, session_id, user_email, message, response, created_at
		FROM chat_messages
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
}

// SessionHistory returns one session's records in chronological order.
func (s *MessageService) SessionHistory(ctx context.Context, sessionID string) []models.ConversationRecord {
	return s.queryRecords(ctx, `
		SELECT id, session_id, user_email, message, response, created_at
		FROM chat_messages
		WHERE session_id = ?
		ORDER BY created_at ASC
	`, sessionID)
}

// Search returns records whose message or response contains the term, newest first.
func (s *MessageService) Search(ctx context.Context, term string, limit int) []models.ConversationRecord {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + term + "%"

	return s.queryRecords(ctx, `
		SELECT id, session_id, user_email, message, response, created_at
		FROM chat_messages
		WHERE message LIKE ? OR response LIKE ?
		ORDER BY created_at DESC
		LIMIT ?
	`, pattern, pattern, limit)
}

// Stats returns the per-user rollups ordered by message volume.
func (s *MessageService) Stats(ctx context.Context) []models.UserStats {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_email, total_messages, total_sessions, first_chat_at, last_chat_at
		FROM user_stats
		ORDER BY total_messages DESC
	`)
	if err != nil {
		log.Printf("❌ Failed to query user stats: %v", err)
		return []models.UserStats{}
	}
	defer rows.Close()

	stats := []models.UserStats{}
	for rows.Next() {
		var st models.UserStats
		if err := rows.Scan(&st.UserEmail, &st.TotalMessages, &st.TotalSessions, &st.FirstChatAt, &st.LastChatAt); err != nil {
			log.Printf("❌ Failed to scan stats row: %v", err)
			return []models.UserStats{}
		}
		stats = append(stats, st)
	}
	return stats
}

func (s *MessageService) queryRecords(ctx context.Context, query string, args ...interface{}) []models.ConversationRecord {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Printf("❌ Failed to query conversation history: %v", err)
		return []models.ConversationRecord{}
	}
	defer rows.Close()

	records := []models.ConversationRecord{}
	for rows.Next() {
		var rec models.ConversationRecord
		var id int64
		if err := rows.Scan(&id, &rec.SessionID, &rec.UserEmail, &rec.Message, &rec.Response, &rec.Timestamp); err != nil {
			log.Printf("❌ Failed to scan conversation row: %v", err)
			return []models.ConversationRecord{}
		}
		rec.ID = formatRowID(id)
		records = append(records, rec)
	}
	return records
}

func formatRowID(id int64) string {
	// Relational rows use auto-increment ids; expose them as strings so both
	// stores share the record shape.
	return strconv.FormatInt(id, 10)
}
