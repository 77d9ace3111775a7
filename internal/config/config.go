package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds every runtime setting, resolved once at startup.
// Nothing outside this package reads the environment after boot.
type Config struct {
	Port          string
	PublicBaseURL string

	MongoURI string
	MongoDB  string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	JWTSecret []byte
	TokenTTL  time.Duration

	StorageQuotaBytes int64
}

// DefaultStorageQuota is the per-user quota applied when
// STORAGE_QUOTA_BYTES is not set (15 GiB).
const DefaultStorageQuota = 15 * 1024 * 1024 * 1024

// Load resolves the configuration from environment variables with
// development fallbacks.
func Load() *Config {
	cfg := &Config{
		Port:              getenv("PORT", "8080"),
		PublicBaseURL:     getenv("PUBLIC_BASE_URL", "http://localhost:8080"),
		MongoURI:          getenv("MONGO_URI", "mongodb://localhost:27017/cloud_vault"),
		MongoDB:           getenv("MONGO_DB", "cloud_vault"),
		MinioEndpoint:     getenv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:    getenv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey:    getenv("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:       getenv("MINIO_BUCKET", "cloudvault-files"),
		MinioUseSSL:       getenvBool("MINIO_USE_SSL", false),
		TokenTTL:          time.Duration(getenvInt("TOKEN_TTL_MINUTES", 240)) * time.Minute,
		StorageQuotaBytes: getenvInt64("STORAGE_QUOTA_BYTES", DefaultStorageQuota),
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// A volatile secret keeps development working; every restart
		// invalidates outstanding tokens.
		log.Println("JWT_SECRET not set, generating a volatile secret")
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			log.Fatalf("failed to generate JWT secret: %v", err)
		}
		secret = hex.EncodeToString(buf)
	}
	cfg.JWTSecret = []byte(secret)

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("invalid value for %s: %q, using default", key, v)
		return fallback
	}
	return b
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("invalid value for %s: %q, using default", key, v)
		return fallback
	}
	return n
}

func getenvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		log.Printf("invalid value for %s: %q, using default", key, v)
		return fallback
	}
	return n
}
