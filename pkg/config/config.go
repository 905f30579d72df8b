package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret signs sessions when JWT_SECRET is unset. It is only
// accepted outside production.
const DefaultJWTSecret = "your-secret-key"

var ErrDefaultJWTSecret = errors.New("JWT_SECRET must be set in production")

type Config struct {
	// Env is APP_ENV, "development" unless set.
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Storage  StorageConfig
	OAuth    OAuthConfig
	Jobs     JobsConfig
	LogLevel string
}

type ServerConfig struct {
	Port          string
	PublicBaseURL string
	AllowOrigins  string
	// BodyLimit caps multipart listing uploads.
	BodyLimit int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	URL      string
}

// DSN prefers DATABASE_URL over the separate fields.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return "host=" + d.Host + " user=" + d.User + " password=" + d.Password +
		" dbname=" + d.DBName + " port=" + d.Port + " sslmode=disable"
}

type JWTConfig struct {
	Secret     string
	SessionTTL time.Duration
}

func (j JWTConfig) UsesDefaultSecret() bool {
	return j.Secret == DefaultJWTSecret
}

type StorageConfig struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	R2AccountID   string
	PublicBaseURL string
	BucketPrefix  string
}

type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	// PendingRoleTTL bounds how long a role picked before the redirect is
	// kept.
	PendingRoleTTL time.Duration
}

type JobsConfig struct {
	OrphanSweepSchedule string
	SeedDemo            bool
}

func Load() *Config {
	godotenv.Load() // .env is optional

	port := getEnv("PORT", "3000")
	return &Config{
		Env: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Port:          port,
			PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),
			AllowOrigins:  getEnv("CORS_ALLOW_ORIGINS", "*"),
			BodyLimit:     getEnvInt("BODY_LIMIT_MB", 100) * 1024 * 1024,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "panoproperty"),
			URL:      getEnv("DATABASE_URL", ""),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", DefaultJWTSecret),
			SessionTTL: getEnvDuration("SESSION_TTL", 24*time.Hour),
		},
		Storage: StorageConfig{
			Endpoint:      getEnv("STORAGE_ENDPOINT", ""),
			Region:        getEnv("STORAGE_REGION", "auto"),
			AccessKey:     getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey:     getEnv("STORAGE_SECRET_KEY", ""),
			R2AccountID:   getEnv("R2_ACCOUNT_ID", ""),
			PublicBaseURL: strings.TrimRight(getEnv("STORAGE_PUBLIC_BASE_URL", ""), "/"),
			BucketPrefix:  getEnv("STORAGE_BUCKET_PREFIX", ""),
		},
		OAuth: OAuthConfig{
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:"+port+"/api/auth/oauth/callback"),
			PendingRoleTTL:     getEnvDuration("PENDING_ROLE_TTL", 15*time.Minute),
		},
		Jobs: JobsConfig{
			OrphanSweepSchedule: getEnv("ORPHAN_SWEEP_SCHEDULE", "0 3 * * *"),
			SeedDemo:            getEnvBool("SEED_DEMO", true),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate rejects settings that are unsafe in production.
func (c *Config) Validate() error {
	if c.Env == "production" && c.JWT.UsesDefaultSecret() {
		return ErrDefaultJWTSecret
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
