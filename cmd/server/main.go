package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintack/internal/config"
	"fintack/internal/database"
	"fintack/internal/handlers"
	"fintack/internal/ingest"
	"fintack/internal/jobs"
	"fintack/internal/llm"
	"fintack/internal/logging"
	"fintack/internal/middleware"
	"fintack/internal/services"
	"fintack/internal/storage"
	"fintack/internal/tts"
	"fintack/pkg/auth"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Fintack Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s, chat model: %s)", cfg.Port, cfg.ChatModel)

	// MongoDB
	mongodb, err := database.NewMongoDB(cfg.MongoURI)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mongodb.Close(ctx); err != nil {
			log.Printf("⚠️ Error closing MongoDB: %v", err)
		}
	}()

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := mongodb.Initialize(initCtx); err != nil {
		initCancel()
		log.Fatalf("❌ Failed to initialize MongoDB indexes: %v", err)
	}
	initCancel()

	// Redis (optional; used as a best-effort embedding cache)
	var redisClient *redis.Client
	if opts, err := redis.ParseURL(cfg.RedisURL); err != nil {
		log.Printf("⚠️ Invalid REDIS_URL, continuing without Redis: %v", err)
	} else {
		redisClient = redis.NewClient(opts)
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("⚠️ Redis unreachable, continuing without embedding cache: %v", err)
			redisClient = nil
		} else {
			log.Println("✅ Connected to Redis")
		}
		pingCancel()
	}

	// JWT auth (nil means development bypass; fatal in production)
	var jwtAuth *auth.JWTAuth
	if cfg.JWTSecret != "" {
		jwtAuth, err = auth.NewJWTAuth(cfg.JWTSecret, 24*time.Hour)
		if err != nil {
			log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
		}
	}

	// LLM provider clients
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey)
	embedder := llm.NewEmbeddingClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModel)
	visionClient := llm.NewVisionClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.VisionModel)
	mentorPolicy := llm.MentorPolicy(cfg.ChatModel)
	advancePolicy := llm.AdvancementPolicy(cfg.ChatModel)
	sidePolicy := llm.SideChannelPolicy(cfg.ChatModel)

	// Speech synthesis and audio object storage
	synthesizer := tts.NewService(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.TTSModel, cfg.TTSVoice)
	audioStore, err := storage.NewDiskStore(cfg.AudioDir, cfg.AudioBaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to initialize audio storage: %v", err)
	}

	// Services
	metrics := services.InitMetrics()
	userService := services.NewUserService(mongodb)
	snapshotService := services.NewSnapshotService(mongodb, userService)
	knowledgeService := services.NewKnowledgeService(mongodb)
	insightService := services.NewInsightService(mongodb)
	chatLogService := services.NewChatLogService(mongodb)
	missionService := services.NewMissionService(mongodb, userService, snapshotService, insightService, metrics, llmClient, advancePolicy)
	transactionService := services.NewTransactionService(mongodb, userService, snapshotService, insightService, metrics, llmClient, sidePolicy, cfg.AnomalyThreshold)
	receiptService := services.NewReceiptService(visionClient)
	voiceService := services.NewVoiceService(synthesizer, audioStore, metrics)
	contextBuilder := services.NewContextBuilder(snapshotService, knowledgeService, embedder, redisClient)
	coachService := services.NewCoachService(llmClient, mentorPolicy, contextBuilder, missionService, chatLogService, voiceService, metrics)

	// Knowledge ingestion watcher
	ingestCtx, ingestCancel := context.WithCancel(context.Background())
	defer ingestCancel()
	pipeline := ingest.NewPipeline(knowledgeService, embedder, cfg.KnowledgeUploadsDir, cfg.EmbedInterval)
	go pipeline.Watch(ingestCtx)

	// Background jobs
	checkup := jobs.NewWeeklyCheckup(userService, transactionService, insightService, metrics, llmClient, sidePolicy)
	scheduler, err := jobs.NewScheduler(checkup)
	if err != nil {
		log.Fatalf("❌ Failed to create job scheduler: %v", err)
	}
	scheduler.Start()

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Fintack v1.0",
		ReadTimeout:  300 * time.Second, // two model turns per request
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  300 * time.Second,
		BodyLimit:    2 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())

	prometheus := fiberprometheus.New("fintack")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))

	app.Use("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
	}))

	// Synthesized audio is served straight from disk
	app.Static("/audio", cfg.AudioDir)

	// Handlers
	healthHandler := handlers.NewHealthHandler(mongodb, redisClient)
	coachHandler := handlers.NewCoachHandler(coachService, userService, chatLogService)
	missionHandler := handlers.NewMissionHandler(missionService, userService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, receiptService, userService)
	insightHandler := handlers.NewInsightHandler(insightService)
	userHandler := handlers.NewUserHandler(userService)

	app.Get("/health", healthHandler.Check)

	api := app.Group("/api/v1", middleware.AuthMiddleware(jwtAuth))
	api.Post("/coach/ask", coachHandler.Ask)
	api.Get("/coach/history", coachHandler.History)
	api.Post("/missions", missionHandler.Create)
	api.Get("/missions", missionHandler.List)
	api.Post("/missions/:id/complete", missionHandler.Complete)
	api.Post("/transactions", transactionHandler.Add)
	api.Get("/transactions", transactionHandler.List)
	api.Post("/transactions/scan-receipt", transactionHandler.ScanReceipt)
	api.Get("/insights", insightHandler.List)
	api.Post("/insights/:id/read", insightHandler.MarkRead)
	api.Get("/me", userHandler.Me)
	api.Post("/me/onboarding-complete", userHandler.CompleteOnboarding)
	api.Post("/me/communication-style", userHandler.SetCommunicationStyle)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		ingestCancel()

		if err := scheduler.Shutdown(); err != nil {
			log.Printf("⚠️ Error stopping scheduler: %v", err)
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}

	log.Println("👋 Server stopped")
}
