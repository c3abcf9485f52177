package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"chatapi/internal/config"
	"chatapi/internal/database"
	"chatapi/internal/handlers"
	"chatapi/internal/logging"
	"chatapi/internal/middleware"
	"chatapi/internal/services"
	"chatapi/pkg/auth"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Chatbot API server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Printf("📋 Configuration loaded (Port: %s)", cfg.Port)

	// MySQL
	db, err := database.New(cfg.DatabaseURL, cfg.MySQLMaxOpenConns, cfg.MySQLMaxIdleConns)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// MongoDB
	mongoDB, err := database.NewMongoDB(cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Close(context.Background())

	if err := mongoDB.Initialize(context.Background(), cfg.MongoCollection); err != nil {
		log.Fatalf("❌ Failed to initialize MongoDB: %v", err)
	}

	// Services
	sessionService := services.NewSessionService(db)
	messageService := services.NewMessageService(db)
	conversationService := services.NewConversationService(mongoDB, cfg.MongoCollection)
	completionService := services.NewCompletionService(cfg.CompletionBaseURL, cfg.CompletionAPIKey, cfg.CompletionModel)
	chatService := services.NewChatService(sessionService, messageService, conversationService, completionService)

	// Token verifier
	verifier := auth.NewVerifier(cfg.AuthDomain, cfg.AuthAudience, cfg.AuthIssuer, cfg.JWKSCacheTTL)

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Chatbot API v1.0",
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("chatapi")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: cfg.AllowedOrigins != "*",
	}))

	// Handlers
	chatHandler := handlers.NewChatHandler(chatService, sessionService, messageService, conversationService)
	healthHandler := handlers.NewHealthHandler(db, mongoDB)

	authRequired := middleware.Auth(verifier)

	app.Get("/health", authRequired, healthHandler.Handle)
	app.Post("/chat", authRequired, chatHandler.Chat)
	app.Get("/chat/sessions/:email", authRequired, chatHandler.Sessions)
	app.Get("/chat/history/:email", authRequired, chatHandler.History)
	app.Delete("/chat/conversations/:email", authRequired, chatHandler.DeleteConversations)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("🛑 Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("❌ Server shutdown error: %v", err)
		}
	}()

	log.Printf("🌐 Server listening on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}

	log.Println("👋 Server stopped")
}
