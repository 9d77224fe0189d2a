package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	defaultAppEnv              = "dev"
	defaultHTTPAddr            = ":8080"
	defaultStorageDriver       = "os"
	defaultStorageRoot         = "./storage"
	defaultTrashDirName        = ".trash"
	defaultMaxArchiveFiles     = "100"
	defaultMaxArchiveFileSize  = "100MiB"
	defaultMaxArchiveTotalSize = "500MiB"
	defaultMaxUploadSize       = "1GiB"
	defaultContentCacheMaxAge  = "1h"
	defaultTrashRenameAttempts = "10000"
	defaultJWTSecret           = "change-me-jwt-secret"
	defaultDatabaseURL         = "file:filevault.db"
	defaultActivityRetention   = "720h"
	defaultDevTokenTTL         = "24h"
	defaultShutdownTimeout     = "10s"
)

type Config struct {
	AppEnv   string
	HTTPAddr string

	StorageDriver       string
	StorageRoot         string
	TrashDirName        string
	TrashRenameAttempts int

	MaxArchiveFiles     int
	MaxArchiveFileSize  int64
	MaxArchiveTotalSize int64
	MaxUploadSize       int64
	ContentCacheMaxAge  time.Duration

	JWTSecret   string
	DevTokenTTL time.Duration

	// DatabaseURL is empty when the activity journal is disabled.
	DatabaseURL       string
	ActivityRetention time.Duration

	OTLPEndpoint       string
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

// Load reads the process environment. Call godotenv first if a .env file
// should be honoured.
func Load() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = defaultAppEnv
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(getEnv("STORAGE_DRIVER", defaultStorageDriver)))
	cfg.StorageRoot = strings.TrimSpace(getEnv("STORAGE_ROOT", defaultStorageRoot))
	cfg.TrashDirName = strings.TrimSpace(getEnv("TRASH_DIR_NAME", defaultTrashDirName))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.OTLPEndpoint = strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	cfg.DatabaseURL = defaultDatabaseURL
	if v, ok := os.LookupEnv("DATABASE_URL"); ok {
		cfg.DatabaseURL = strings.TrimSpace(v)
	}

	var err error
	if cfg.TrashRenameAttempts, err = parseIntEnv("TRASH_RENAME_ATTEMPTS", defaultTrashRenameAttempts); err != nil {
		return nil, err
	}
	if cfg.MaxArchiveFiles, err = parseIntEnv("MAX_ARCHIVE_FILES", defaultMaxArchiveFiles); err != nil {
		return nil, err
	}
	if cfg.MaxArchiveFileSize, err = parseSizeEnv("MAX_ARCHIVE_FILE_SIZE", defaultMaxArchiveFileSize); err != nil {
		return nil, err
	}
	if cfg.MaxArchiveTotalSize, err = parseSizeEnv("MAX_ARCHIVE_TOTAL_SIZE", defaultMaxArchiveTotalSize); err != nil {
		return nil, err
	}
	if cfg.MaxUploadSize, err = parseSizeEnv("MAX_UPLOAD_SIZE", defaultMaxUploadSize); err != nil {
		return nil, err
	}
	if cfg.ContentCacheMaxAge, err = parseDurationEnv("CONTENT_CACHE_MAX_AGE", defaultContentCacheMaxAge); err != nil {
		return nil, err
	}
	if cfg.ActivityRetention, err = parseDurationEnv("ACTIVITY_RETENTION", defaultActivityRetention); err != nil {
		return nil, err
	}
	if cfg.DevTokenTTL, err = parseDurationEnv("DEV_TOKEN_TTL", defaultDevTokenTTL); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = parseDurationEnv("SHUTDOWN_TIMEOUT", defaultShutdownTimeout); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("config loaded: env=%s storage=%s root=%s archive_limits=%d/%s/%s upload_limit=%s",
		cfg.AppEnv, cfg.StorageDriver, cfg.StorageRoot, cfg.MaxArchiveFiles,
		humanize.IBytes(uint64(cfg.MaxArchiveFileSize)), humanize.IBytes(uint64(cfg.MaxArchiveTotalSize)),
		humanize.IBytes(uint64(cfg.MaxUploadSize)))

	return cfg, nil
}

func (c *Config) IsProdLike() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.StorageDriver != "os" && cfg.StorageDriver != "memory" {
		return fmt.Errorf("STORAGE_DRIVER must be one of: os, memory")
	}
	if cfg.StorageDriver == "os" && cfg.StorageRoot == "" {
		return fmt.Errorf("STORAGE_ROOT must not be empty")
	}
	if cfg.TrashDirName == "" || strings.ContainsAny(cfg.TrashDirName, `/\`) || cfg.TrashDirName == "." || cfg.TrashDirName == ".." {
		return fmt.Errorf("TRASH_DIR_NAME must be a single path segment")
	}
	if cfg.TrashRenameAttempts <= 0 {
		return fmt.Errorf("TRASH_RENAME_ATTEMPTS must be > 0")
	}
	if cfg.MaxArchiveFiles <= 0 {
		return fmt.Errorf("MAX_ARCHIVE_FILES must be > 0")
	}
	if cfg.MaxArchiveFileSize <= 0 || cfg.MaxArchiveTotalSize <= 0 || cfg.MaxUploadSize <= 0 {
		return fmt.Errorf("size limits must be > 0")
	}
	if cfg.MaxArchiveFileSize > cfg.MaxArchiveTotalSize {
		return fmt.Errorf("MAX_ARCHIVE_FILE_SIZE must not exceed MAX_ARCHIVE_TOTAL_SIZE")
	}
	if cfg.ContentCacheMaxAge < 0 {
		return fmt.Errorf("CONTENT_CACHE_MAX_AGE must be >= 0")
	}
	if cfg.ActivityRetention <= 0 {
		return fmt.Errorf("ACTIVITY_RETENTION must be > 0")
	}
	if cfg.DevTokenTTL <= 0 {
		return fmt.Errorf("DEV_TOKEN_TTL must be > 0")
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be > 0")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if cfg.StorageDriver == "memory" {
			return fmt.Errorf("in prod/release STORAGE_DRIVER must not be memory")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

// parseSizeEnv accepts humanized sizes such as "100MB" or "1GiB".
func parseSizeEnv(name, fallback string) (int64, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("invalid %s value %q: too large", name, value)
	}
	return int64(n), nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
