package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"chatapi/internal/config"
	"chatapi/internal/database"
	"chatapi/internal/models"
	"chatapi/internal/services"
)

const usage = `Usage:
  history all [limit]           Show all conversations
  history user <email> [limit]  Show conversations for a user
  history session <session_id>  Show conversations for a session
  history search <term> [limit] Search conversations by message content
  history stats                 Show per-user statistics
  history sessions <email>      Show a user's sessions with message counts
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found: %v", err)
	}

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("❌ DATABASE_URL is required")
	}

	db, err := database.New(cfg.DatabaseURL, cfg.MySQLMaxOpenConns, cfg.MySQLMaxIdleConns)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	messages := services.NewMessageService(db)
	sessions := services.NewSessionService(db)
	ctx := context.Background()

	switch os.Args[1] {
	case "all":
		printConversations(messages.AllHistory(ctx, argLimit(2, 100)))

	case "user":
		if len(os.Args) < 3 {
			log.Fatal("❌ A user email is required")
		}
		printConversations(messages.History(ctx, os.Args[2], argLimit(3, 50)))

	case "session":
		if len(os.Args) < 3 {
			log.Fatal("❌ A session ID is required")
		}
		printConversations(messages.SessionHistory(ctx, os.Args[2]))

	case "search":
		if len(os.Args) < 3 {
			log.Fatal("❌ A search term is required")
		}
		printConversations(messages.Search(ctx, os.Args[2], argLimit(3, 50)))

	case "stats":
		printStats(messages.Stats(ctx))

	case "sessions":
		if len(os.Args) < 3 {
			log.Fatal("❌ A user email is required")
		}
		printSessions(os.Args[2], sessions.ListWithCounts(ctx, os.Args[2]))

	default:
		fmt.Printf("Unknown command: %s\n\n%s", os.Args[1], usage)
		os.Exit(1)
	}
}

func argLimit(idx, def int) int {
	if len(os.Args) > idx {
		if n, err := strconv.Atoi(os.Args[idx]); err == nil {
			return n
		}
	}
	return def
}

func printConversations(records []models.ConversationRecord) {
	if len(records) == 0 {
		fmt.Println("No conversations found.")
		return
	}

	fmt.Printf("\n=== Conversations (%d) ===\n", len(records))
	for i, rec := range records {
		fmt.Printf("\n[%d] ID: %s | Session: %s | User: %s\n", i+1, rec.ID, truncate(rec.SessionID, 8), rec.UserEmail)
		fmt.Printf("Time: %s\n", rec.Timestamp.Format("2006-01-02 15:04:05"))
		fmt.Printf("Q: %s\n", truncate(rec.Message, 100))
		fmt.Printf("A: %s\n", truncate(rec.Response, 100))
	}
}

func printStats(stats []models.UserStats) {
	if len(stats) == 0 {
		fmt.Println("No statistics found.")
		return
	}

	fmt.Printf("\n=== User statistics (%d users) ===\n", len(stats))
	for i, st := range stats {
		fmt.Printf("[%d] %s\n", i+1, st.UserEmail)
		fmt.Printf("  Total messages: %d\n", st.TotalMessages)
		fmt.Printf("  Total sessions: %d\n", st.TotalSessions)
		if st.FirstChatAt != nil {
			fmt.Printf("  First chat: %s\n", st.FirstChatAt.Format("2006-01-02 15:04:05"))
		}
		if st.LastChatAt != nil {
			fmt.Printf("  Last chat:  %s\n", st.LastChatAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
}

func printSessions(userEmail string, sessions []models.SessionSummary) {
	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return
	}

	fmt.Printf("\n=== Sessions for %s ===\n", userEmail)
	for _, sess := range sessions {
		fmt.Printf("Session ID: %s\n", sess.SessionID)
		fmt.Printf("  Created:  %s\n", sess.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("  Messages: %d\n", sess.MessageCount)
		fmt.Println()
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
