package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HttpPort string

	// Metadata store
	DBDriver string // sqlite|postgres
	DBPath   string // used when DBDriver=sqlite
	DBDsn    string // used when DBDriver=postgres (e.g., DATABASE_URL)

	// Object store (any S3-compatible endpoint)
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageRegion    string
	StorageUseSSL    bool

	// Access-URL derivation
	PublicBaseURL string

	// PublicReadPolicy attaches an anonymous-GetObject bucket policy on every
	// bucket created through this service. Deliberate default; disable per
	// deployment when buckets must not be world-readable by key.
	PublicReadPolicy bool

	// URLRefreshDays re-derives and persists a media URL when a read finds the
	// record older than this many days. 0 disables the rewrite.
	URLRefreshDays int

	// Remote permission service; access checks are skipped when AuthURLBase is empty.
	AuthURLBase       string
	AuthCheckEndpoint string

	MaxUploadSizeBytes int64
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "dev"),
		HttpPort: getEnv("HTTP_PORT", "8080"),

		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBPath:   getEnv("DB_PATH", "data/sfs.db"),
		DBDsn:    getEnv("DATABASE_URL", getEnv("DB_DSN", "")),

		StorageEndpoint:  getEnv("STORAGE_ENDPOINT", "localhost:9000"),
		StorageAccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
		StorageSecretKey: getEnv("STORAGE_SECRET_KEY", ""),
		StorageRegion:    getEnv("STORAGE_REGION", "af-south-1"),
		StorageUseSSL:    getEnv("STORAGE_USE_SSL", "false") == "true",

		PublicBaseURL:    getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		PublicReadPolicy: getEnv("PUBLIC_READ_POLICY", "true") == "true",
		URLRefreshDays:   getEnvInt("URL_REFRESH_DAYS", 0),

		AuthURLBase:       getEnv("AUTH_URL_BASE", ""),
		AuthCheckEndpoint: getEnv("AUTH_CHECK_ENDPOINT", "/check-access"),

		MaxUploadSizeBytes: int64(getEnvInt("MAX_UPLOAD_SIZE", 512<<20)),
	}
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
