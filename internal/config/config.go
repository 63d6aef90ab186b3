package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// AuthConfig holds bearer token settings.
// RevocationDir empty means the revocation list lives in memory only.
type AuthConfig struct {
	JWTSecret     string
	Issuer        string
	TokenTTL      time.Duration
	RevocationDir string
}

// FeedConfig controls the live note feed.
type FeedConfig struct {
	// ListenEnabled turns on the PostgreSQL LISTEN/NOTIFY listener so that
	// writes made by other API instances reach this instance's subscribers.
	ListenEnabled  bool
	ReconnectDelay time.Duration
	KeepAlive      time.Duration
}

// UploadConfig holds settings for note uploads and downloads.
type UploadConfig struct {
	MaxSizeMB        int
	PublicBaseURL    string
	PresignDownloads bool
	PresignExpiry    time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Timezone string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Auth     AuthConfig
	Feed     FeedConfig
	Upload   UploadConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	appHost := getEnv("APP_HOST", "localhost:8080")
	return &AppConfig{
		AppHost:  appHost,
		Port:     getEnv("PORT", "8080"), // default only for non-sensitive value
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("AUTH_JWT_SECRET", ""),
			Issuer:        getEnv("AUTH_ISSUER", "noteally"),
			TokenTTL:      getEnvDuration("AUTH_TOKEN_TTL", 24*time.Hour),
			RevocationDir: getEnv("AUTH_REVOCATION_DIR", ""),
		},
		Feed: FeedConfig{
			ListenEnabled:  getEnvBool("FEED_LISTEN_ENABLED", true),
			ReconnectDelay: getEnvDuration("FEED_RECONNECT_DELAY", 5*time.Second),
			KeepAlive:      time.Duration(getEnvInt("FEED_KEEPALIVE_SEC", 15)) * time.Second,
		},
		Upload: UploadConfig{
			MaxSizeMB:        getEnvInt("UPLOAD_MAX_SIZE_MB", 25),
			PublicBaseURL:    getEnv("PUBLIC_BASE_URL", "http://"+appHost),
			PresignDownloads: getEnvBool("DOWNLOAD_PRESIGN", false),
			PresignExpiry:    getEnvDuration("DOWNLOAD_PRESIGN_EXPIRY", 15*time.Minute),
		},
	}
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
