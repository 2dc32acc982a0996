// cmd/api/main.go
// Main entry point for the application
// This file bootstraps all components and starts the server

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/skillswap/skillswap-backend/internal/auth"
	"github.com/skillswap/skillswap-backend/internal/common/database"
	"github.com/skillswap/skillswap-backend/internal/common/utils"
	"github.com/skillswap/skillswap-backend/internal/community"
	"github.com/skillswap/skillswap-backend/internal/config"
	"github.com/skillswap/skillswap-backend/internal/matching"
	"github.com/skillswap/skillswap-backend/internal/messaging"
	"github.com/skillswap/skillswap-backend/internal/notifications"
	"github.com/skillswap/skillswap-backend/internal/waves"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	log.Println("========================================")
	log.Println("🚀 Starting SkillSwap API")
	log.Println("========================================")

	// 1. Load environment variables
	log.Println("📁 Step 1: Loading .env file...")
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  Warning: No .env file found (%v), using environment variables", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// 2. Load and validate configuration
	log.Println("📋 Step 2: Loading configuration...")
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("❌ Configuration validation failed: ", err)
	}
	log.Println("✅ Configuration is valid")

	// 3. Connect to PostgreSQL
	log.Println("🗄️  Step 3: Connecting to PostgreSQL...")
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("❌ Failed to connect to PostgreSQL: ", err)
	}
	defer db.Close()
	log.Println("✅ Connected to PostgreSQL successfully")

	// 4. Connect to Redis (optional)
	log.Println("📮 Step 4: Connecting to Redis...")
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable (%v), continuing without Redis", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Println("✅ Connected to Redis successfully")
		}
	} else {
		log.Println("⚠️  Redis URL not configured, skipping Redis connection")
	}

	// 5. Run database migrations
	log.Println("🔨 Step 5: Running database migrations...")
	if err := runMigrations(db); err != nil {
		log.Fatal("❌ Failed to run migrations: ", err)
	}
	log.Println("✅ Database migrations completed")

	// 6. Auth middleware
	authMiddleware := auth.NewMiddleware(cfg.JWTSecret)

	// 7. Initialize Matching module
	log.Println("🤝 Step 6: Initializing Matching module...")
	matchingRepo := matching.NewPostgresRepository(db)

	weights := matching.Weights{
		Skill:        cfg.SkillWeight,
		Availability: cfg.AvailWeight,
		Rating:       cfg.RatingWeight,
		Distance:     cfg.DistanceWeight,
		Engagement:   cfg.EngagementWeight,
	}
	if err := weights.Validate(); err != nil {
		log.Fatal("❌ Invalid match weights: ", err)
	}

	var semantic matching.SemanticScorer
	if cfg.SemanticAPIURL != "" {
		semantic = matching.NewHTTPSemanticScorer(cfg.SemanticAPIURL, cfg.SemanticAPIKey, redisClient)
		log.Println("   ✅ Semantic scoring enabled")
	} else {
		log.Println("   ⚠️  Semantic scoring disabled - SEMANTIC_API_URL not set")
	}

	ranker := matching.NewRanker(weights, semantic)
	matchingService := matching.NewService(matchingRepo, ranker, cfg.DefaultRadiusKm, cfg.MatchTopN)
	matchingHandler := matching.NewHandler(matchingService)
	log.Println("✅ Matching module initialized")

	// 8. Initialize Community module
	log.Println("🏘️  Step 7: Initializing Community module...")
	communityRepo := community.NewPostgresRepository(db)
	communityService := community.NewService(communityRepo, matchingRepo, cfg.DefaultRadiusKm)
	communityHandler := community.NewHandler(communityService)
	log.Println("✅ Community module initialized")

	// 9. Initialize Messaging module
	log.Println("💬 Step 8: Initializing Messaging module...")
	messagingRepo := messaging.NewPostgresRepository(db)
	messagingService := messaging.NewService(messagingRepo)

	var notifier messaging.Notifier
	if cfg.SendGridAPIKey != "" {
		notifier = notifications.NewEmailNotifier(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailFromName)
		log.Println("   ✅ Offline message emails enabled via SendGrid")
	} else {
		notifier = notifications.NewLogNotifier()
		log.Println("   ⚠️  Offline message emails disabled - SENDGRID_API_KEY not set")
	}

	rooms := messaging.NewMemoryRoomRegistry()
	hub := messaging.NewHub(messagingService, rooms, notifier, redisClient)
	go hub.Run()
	log.Println("   ✅ WebSocket hub started")

	messagingHandler := messaging.NewHandler(messagingService, hub)
	log.Println("✅ Messaging module initialized")

	// 10. Initialize Waves module
	log.Println("🌊 Step 9: Initializing Waves module...")
	wavesRepo := waves.NewPostgresRepository(db)
	wavesService := waves.NewService(wavesRepo, matchingRepo, cfg.WaveTTL, cfg.DefaultRadiusKm)
	wavesHandler := waves.NewHandler(wavesService)

	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	go waves.NewCleanupService(wavesService, cfg.WaveCleanupInterval).Start(cleanupCtx)
	log.Println("✅ Waves module initialized")

	// 11. Setup routes
	log.Println("🛣️  Step 10: Setting up routes...")
	router := mux.NewRouter()

	router.HandleFunc("/health", healthCheck(db, hub)).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	matching.RegisterRoutes(router, matchingHandler, authMiddleware.Authenticate)
	community.RegisterRoutes(router, communityHandler, authMiddleware.Authenticate)
	messaging.RegisterRoutes(router, messagingHandler, authMiddleware.Authenticate)
	waves.RegisterRoutes(router, wavesHandler, authMiddleware.Authenticate)
	log.Println("✅ Routes registered")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(router)

	// 12. Start server with graceful shutdown
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("❌ Server failed: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	cancelCleanup()
	hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  Server shutdown error: %v", err)
	}
	log.Println("👋 Server stopped")
}

func healthCheck(db *sqlx.DB, hub *messaging.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		code := http.StatusOK
		if err := db.Ping(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		utils.RespondWithJSON(w, code, map[string]interface{}{
			"status":      status,
			"connections": hub.ActiveConnections(),
			"time":        time.Now().UTC(),
		})
	}
}
