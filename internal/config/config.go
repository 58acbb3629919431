package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Quiz generation modes.
const (
	QuizModeStructured = "structured"
	QuizModeText       = "text"
	QuizModeOff        = "off"
)

const (
	defaultModel             = "gemini-2.0-flash"
	defaultPort              = "8080"
	defaultFrontendURL       = "http://localhost:5173"
	defaultVideoResults      = 4
	defaultSubmissionTimeout = 2 * time.Minute
	defaultViewIdleTTL       = 30 * time.Minute
)

// Config holds all the configuration for the application
type Config struct {
	Env               string
	Port              string
	FrontendURL       string
	SessionSecret     string
	GeminiAPIKey      string
	GeminiModel       string
	QuizMode          string
	YoutubeAPIKey     string
	VideoResults      int64
	SubmissionTimeout time.Duration
	ViewIdleTTL       time.Duration
	DiscordWebhookURL string
}

// Load reads the configuration from environment variables.
// Call godotenv.Load before this if a .env file should be honoured.
func Load() (*Config, error) {
	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable is required")
	}

	youtubeKey := os.Getenv("YOUTUBE_API_KEY")
	if youtubeKey == "" {
		return nil, errors.New("YOUTUBE_API_KEY environment variable is required")
	}

	quizMode := strings.ToLower(getenv("QUIZ_MODE", QuizModeStructured))
	switch quizMode {
	case QuizModeStructured, QuizModeText, QuizModeOff:
	default:
		return nil, fmt.Errorf("QUIZ_MODE must be one of %q, %q or %q, got %q",
			QuizModeStructured, QuizModeText, QuizModeOff, quizMode)
	}

	videoResults := int64(defaultVideoResults)
	if raw := os.Getenv("VIDEO_RESULTS"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 || n > 50 {
			return nil, fmt.Errorf("VIDEO_RESULTS must be an integer between 1 and 50, got %q", raw)
		}
		videoResults = n
	}

	submissionTimeout, err := durationEnv("SUBMISSION_TIMEOUT", defaultSubmissionTimeout)
	if err != nil {
		return nil, err
	}
	idleTTL, err := durationEnv("VIEW_IDLE_TTL", defaultViewIdleTTL)
	if err != nil {
		return nil, err
	}

	return &Config{
		Env:               getenv("APP_ENV", "development"),
		Port:              getenv("PORT", defaultPort),
		FrontendURL:       strings.TrimSuffix(getenv("FRONTEND_URL", defaultFrontendURL), "/"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		GeminiAPIKey:      geminiKey,
		GeminiModel:       getenv("GEMINI_MODEL", defaultModel),
		QuizMode:          quizMode,
		YoutubeAPIKey:     youtubeKey,
		VideoResults:      videoResults,
		SubmissionTimeout: submissionTimeout,
		ViewIdleTTL:       idleTTL,
		DiscordWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),
	}, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.Env) {
	case "prod", "production":
		return true
	}
	return false
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return d, nil
}
