package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quicklearn/internal/api"
	"quicklearn/internal/api/handlers"
	"quicklearn/internal/config"
	"quicklearn/internal/gemini"
	"quicklearn/internal/learn"
	"quicklearn/internal/logger"
	"quicklearn/internal/notify"
	"quicklearn/internal/view"
	"quicklearn/internal/youtube"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const sweepInterval = time.Minute

func init() {
	// Load environment variables FIRST
	if err := godotenv.Load(); err != nil {
		// Only treat "file not found" as a warning, other errors are fatal
		if !os.IsNotExist(err) {
			log.Fatalf("FATAL: Error loading .env file: %v", err)
		}
		log.Println("Warning: .env file not found. Relying on system environment variables.")
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: invalid configuration: %v", err)
	}

	appLog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("FATAL: failed to build logger: %v", err)
	}
	defer appLog.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	geminiClient, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.QuizMode, appLog)
	if err != nil {
		appLog.Fatal("failed to initialize Gemini client", "error", err)
	}
	defer geminiClient.Close()

	youtubeClient, err := youtube.NewClient(ctx, cfg.YoutubeAPIKey, cfg.VideoResults)
	if err != nil {
		appLog.Fatal("failed to initialize YouTube client", "error", err)
	}

	discord := notify.NewDiscord(cfg.DiscordWebhookURL, appLog)
	if !discord.Enabled() {
		appLog.Warn("DISCORD_WEBHOOK_URL not set, error notifications disabled")
	}

	opts := learn.Options{
		Explainer: geminiClient,
		Videos:    youtubeClient,
		Reporter:  discord,
		Timeout:   cfg.SubmissionTimeout,
		Log:       appLog,
	}
	if cfg.QuizMode != config.QuizModeOff {
		opts.Quiz = geminiClient
	}
	svc := learn.NewService(opts)

	views := view.NewRegistry()
	go views.RunSweeper(ctx, sweepInterval, cfg.ViewIdleTTL, func(n int) {
		appLog.Debug("evicted idle views", "count", n, "remaining", views.Len())
	})

	secret := cfg.SessionSecret
	if secret == "" {
		secret = randomSecret()
		appLog.Warn("SESSION_SECRET not set, using an ephemeral secret; sessions will not survive restarts")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.SessionMiddleware(secret, cfg.IsProduction()))

	transcripts := youtube.NewTranscripts(&http.Client{Timeout: 15 * time.Second}, appLog)
	handler := handlers.NewHandler(svc, views, transcripts, discord, appLog)
	api.SetupRoutes(router, handler, appLog, cfg.FrontendURL)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		appLog.Info("server listening", "port", cfg.Port, "quiz_mode", cfg.QuizMode, "model", cfg.GeminiModel)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("failed to start server", "error", err)
		}
	}()

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("server forced to shutdown", "error", err)
	}

	// Stop the sweeper and let running submissions settle before the clients close.
	cancel()
	svc.Wait()
	discord.Wait()

	appLog.Info("server exited properly")
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("FATAL: failed to generate session secret: %v", err)
	}
	return hex.EncodeToString(b)
}
