package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings of both services. Each binary reads the subset
// it needs.
type Config struct {
	Port    string
	GinMode string

	DBDriver string
	DBDSN    string

	JWTSecret string

	// Base URLs of the peer services, without the /api/v1 prefix.
	DocumentServiceBaseURL string
	PracticeServiceBaseURL string

	CertificateRequestTimeout time.Duration
	EnrichmentTimeout         time.Duration
	CertificateStorageDir     string

	AllowedOrigin      string
	RateLimitPerSecond int

	AutoCompleteOnHours bool
	ReconcileSchedule   string
	EnrichmentSchedule  string
}

// Load reads .env (if present) and the process environment. defaultPort
// differs per binary.
func Load(defaultPort string) *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	cfg := &Config{
		Port:    getEnv("PORT", defaultPort),
		GinMode: getEnv("GIN_MODE", "debug"),

		DBDriver: strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		DBDSN:    getEnv("DB_DSN", "root:@tcp(127.0.0.1:3306)/practice?charset=utf8mb4&parseTime=True&loc=Local"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		DocumentServiceBaseURL: strings.TrimRight(getEnv("DOCUMENT_SERVICE_BASE_URL", "http://localhost:8081"), "/"),
		PracticeServiceBaseURL: strings.TrimRight(getEnv("PRACTICE_SERVICE_BASE_URL", "http://localhost:8080"), "/"),

		CertificateRequestTimeout: getEnvDuration("CERTIFICATE_REQUEST_TIMEOUT", 30*time.Second),
		EnrichmentTimeout:         getEnvDuration("ENRICHMENT_TIMEOUT", 10*time.Second),
		CertificateStorageDir:     getEnv("CERTIFICATE_STORAGE_DIR", "storage/certificates"),

		AllowedOrigin:      getEnv("CORS_ALLOWED_ORIGIN", "http://127.0.0.1:5500"),
		RateLimitPerSecond: getEnvInt("RATE_LIMIT_PER_SECOND", 50),

		AutoCompleteOnHours: getEnvBool("AUTO_COMPLETE_ON_HOURS", false),
		ReconcileSchedule:   getEnv("RECONCILE_SCHEDULE", "@hourly"),
		EnrichmentSchedule:  getEnv("ENRICHMENT_SCHEDULE", "@every 15m"),
	}

	if cfg.JWTSecret == "" {
		log.Println("Warning: JWT_SECRET is not set. Using the development secret.")
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to bool: %v", key, err)
		return defaultValue
	}
	return b
}

// getEnvDuration accepts Go durations ("30s") or plain seconds ("30").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Error converting environment variable %s to duration: %q", key, value)
	return defaultValue
}
