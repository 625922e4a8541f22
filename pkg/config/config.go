package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreFirestore = "firestore"
	StorePostgres  = "postgres"
	StoreMemory    = "memory"
	StoreNone      = "none"
)

type Config struct {
	Port    string
	GinMode string

	// Logging
	LogLevel  string
	LogFormat string

	// AI
	AIProvider      string
	GeminiAPIKey    string
	GeminiModelName string
	OllamaBaseURL   string
	OllamaModel     string

	// Storage
	StoreBackend            string
	FirebaseCredentials     string // full service account JSON
	FirebaseCredentialsFile string
	FirebaseProjectID       string
	DatabaseURL             string

	// Pipeline
	FetchConcurrency    int
	MaxUnread           int64
	SyncBatchTimeout    time.Duration
	GmailCallTimeout    time.Duration
	EnrichmentWorkers   int
	EnrichmentQueueSize int
	EnrichmentTimeout   time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:    getEnv("PORT", "8000"),
		GinMode: getEnv("GIN_MODE", "release"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		AIProvider:      strings.ToLower(getEnv("AI_PROVIDER", "gemini")),
		GeminiAPIKey:    strings.TrimSpace(getEnv("GEMINI_API_KEY", "")),
		GeminiModelName: strings.TrimSpace(getEnv("GEMINI_MODEL_NAME", "gemini-2.5-flash-lite")),
		OllamaBaseURL:   getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:     getEnv("OLLAMA_MODEL", "llama3"),

		StoreBackend:            strings.ToLower(getEnv("STORE_BACKEND", StoreFirestore)),
		FirebaseCredentials:     getEnv("FIREBASE_CREDS", ""),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		DatabaseURL:             getEnv("DATABASE_URL", ""),

		FetchConcurrency:    getEnvInt("FETCH_CONCURRENCY", 10),
		MaxUnread:           int64(getEnvInt("MAX_UNREAD", 15)),
		SyncBatchTimeout:    getEnvDuration("SYNC_BATCH_TIMEOUT", 60*time.Second),
		GmailCallTimeout:    getEnvDuration("GMAIL_CALL_TIMEOUT", 20*time.Second),
		EnrichmentWorkers:   getEnvInt("ENRICHMENT_WORKERS", 4),
		EnrichmentQueueSize: getEnvInt("ENRICHMENT_QUEUE_SIZE", 500),
		EnrichmentTimeout:   getEnvDuration("ENRICHMENT_TIMEOUT", 60*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
