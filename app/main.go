package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yayago/config"
	"yayago/delivery"
	"yayago/middleware"
	"yayago/repository"
	"yayago/service"
	"yayago/utils"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using system environment variables")
	}

	// Register custom validators
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		utils.RegisterCustomValidations(v)
	}

	// Boot DB
	db, err := config.BootDB()
	if err != nil {
		log.Fatal("❌ Failed to connect to database: ", err)
	}

	// Redis config
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		log.Fatal("❌ Failed to fetch Redis address from env")
	}
	redisPass := os.Getenv("REDIS_PASSWORD")

	redisClient := config.InitRedisDB(redisAddr, redisPass, 0)

	// JWT secret validation
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("❌ JWT_SECRET not found in .env")
	}
	if len(jwtSecret) < 32 {
		log.Fatal("❌ JWT_SECRET must be at least 32 characters for security. Generate one with: openssl rand -base64 32")
	}
	jwtManager := utils.NewJWTManager(jwtSecret, time.Hour)

	// Init repositories
	sessionRepo := repository.NewSessionRedisRepository(redisClient)
	otpRepo := repository.NewOTPRedisRepository(redisClient)
	lockRepo := repository.NewLockRedisRepository(redisClient)
	profileRepo := repository.NewProfileRepository(db, redisClient)
	payoutProvider := repository.NewPayoutProviderClient()
	payoutState := repository.NewPayoutStateRedisRepository(redisClient)

	smsGateway := utils.NewSMSGatewayFromEnv()

	// Init services
	verificationService := service.NewVerificationService(sessionRepo, otpRepo, profileRepo, lockRepo, smsGateway)
	payoutService := service.NewPayoutService(payoutProvider, payoutState, lockRepo)

	middleware.InitRateLimiter(redisClient)
	middleware.CleanupExpiredRateLimits()

	// Init Gin
	app := gin.Default()
	config.InitMiddleware(app)
	app.Use(middleware.RateLimiter())

	// ========================================================================
	// INIT HANDLERS
	// ========================================================================
	delivery.NewVerificationHandler(app, verificationService, payoutService, jwtManager)
	delivery.NewPayoutHandler(app, payoutService, jwtManager)

	app.GET("/admin/rate-limits",
		config.AuthMiddleware(jwtManager),
		middleware.AdminOnly(),
		middleware.RateLimitStatusHandler,
	)

	// ========================================================================
	// GRACEFUL SHUTDOWN SETUP
	// ========================================================================
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	srvAddr := ":" + port

	srv := &http.Server{
		Addr:           srvAddr,
		Handler:        app,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	// Start server in a goroutine
	go func() {
		log.Printf("🚀 Server running at http://localhost%s", srvAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server exited gracefully")
}
