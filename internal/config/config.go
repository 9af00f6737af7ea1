package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the case desk service.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Admin auth
	JwtSecret         string
	JwtTTL            time.Duration
	AdminEmails       []string // the allow-list; sole authorization check
	AdminPasswordHash string   // bcrypt hash of the shared console password

	// Server
	ApiPort string

	// File server (upload microservice, consumed not owned)
	FileServerBaseURL string
	// The delete route differs between deployments of the file server
	// ("/delete-file", "/file-delete" or a DELETE verb on "/file").
	FileServerDeleteRoute  string
	FileServerDeleteMethod string
	UploadTimeout          time.Duration
	DeleteTimeout          time.Duration

	// Email
	SmtpHost        string
	SmtpPort        int
	SmtpUsername    string
	SmtpPassword    string
	SmtpFromAddress string
	EmailTimeout    time.Duration

	// App Defaults
	AppName      string
	ListCacheTTL time.Duration
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode, // Set from flag
	}

	var err error

	// Helper function to get env var or default
	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	// Helper function to get required env var
	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "casedesk")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.AdminPasswordHash, err = getRequiredEnv("ADMIN_PASSWORD_HASH")
	if err != nil {
		return nil, err
	}
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.FileServerBaseURL = getEnv("FILE_SERVER_BASE_URL", "http://localhost:5001")
	cfg.FileServerDeleteRoute = getEnv("FILE_SERVER_DELETE_ROUTE", "/delete-file")
	cfg.FileServerDeleteMethod = getEnv("FILE_SERVER_DELETE_METHOD", "POST")
	cfg.SmtpHost = getEnv("SMTP_HOST", "")
	cfg.SmtpUsername = getEnv("SMTP_USERNAME", "")
	cfg.SmtpPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SmtpFromAddress = getEnv("SMTP_FROM_ADDRESS", "noreply@casedesk.example.com")
	cfg.AppName = getEnv("APP_NAME", "CaseDesk")

	// The allow-list is a comma-separated list of staff emails. Anyone not on
	// it cannot log in, token or not.
	for _, e := range strings.Split(getEnv("ADMIN_EMAILS", ""), ",") {
		if trimmed := strings.ToLower(strings.TrimSpace(e)); trimmed != "" {
			cfg.AdminEmails = append(cfg.AdminEmails, trimmed)
		}
	}
	if len(cfg.AdminEmails) == 0 {
		return nil, fmt.Errorf("ADMIN_EMAILS must list at least one staff email")
	}

	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	jwtTTLSeconds, err := strconv.ParseInt(getEnv("JWT_TTL_SECONDS", "3600"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL_SECONDS: %w", err)
	}
	cfg.JwtTTL = time.Duration(jwtTTLSeconds) * time.Second

	cfg.SmtpPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	uploadTimeoutSeconds, err := strconv.ParseInt(getEnv("UPLOAD_TIMEOUT_SECONDS", "30"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid UPLOAD_TIMEOUT_SECONDS: %w", err)
	}
	cfg.UploadTimeout = time.Duration(uploadTimeoutSeconds) * time.Second

	deleteTimeoutSeconds, err := strconv.ParseInt(getEnv("DELETE_TIMEOUT_SECONDS", "10"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid DELETE_TIMEOUT_SECONDS: %w", err)
	}
	cfg.DeleteTimeout = time.Duration(deleteTimeoutSeconds) * time.Second

	emailTimeoutSeconds, err := strconv.ParseInt(getEnv("EMAIL_TIMEOUT_SECONDS", "10"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid EMAIL_TIMEOUT_SECONDS: %w", err)
	}
	cfg.EmailTimeout = time.Duration(emailTimeoutSeconds) * time.Second

	listCacheTTLSeconds, err := strconv.ParseInt(getEnv("LIST_CACHE_TTL_SECONDS", "60"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LIST_CACHE_TTL_SECONDS: %w", err)
	}
	cfg.ListCacheTTL = time.Duration(listCacheTTLSeconds) * time.Second

	switch cfg.FileServerDeleteMethod {
	case "POST", "DELETE":
	default:
		return nil, fmt.Errorf("invalid FILE_SERVER_DELETE_METHOD: %s (want POST or DELETE)", cfg.FileServerDeleteMethod)
	}
	if !strings.HasPrefix(cfg.FileServerDeleteRoute, "/") {
		return nil, fmt.Errorf("invalid FILE_SERVER_DELETE_ROUTE: %q (must start with /)", cfg.FileServerDeleteRoute)
	}

	return cfg, nil
}

// IsAuthorized reports whether an email is on the staff allow-list.
func (c *Config) IsAuthorized(email string) bool {
	needle := strings.ToLower(strings.TrimSpace(email))
	for _, e := range c.AdminEmails {
		if e == needle {
			return true
		}
	}
	return false
}
