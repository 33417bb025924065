// Package config loads the command-line tools' configuration from
// environment variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the configuration for the export and sample commands.
type Config struct {
	// AppEnv is the running environment (development/production).
	AppEnv string
	// DataverseURL is the environment base URL, e.g. https://myorg.crm.dynamics.com.
	DataverseURL string
	// Azure AD app registration used for the client-credentials flow.
	TenantID     string
	ClientID     string
	ClientSecret string
	// Scope is the token scope; defaults to <DataverseURL>/.default when empty.
	Scope string

	// StorageType determines where exports land: "local" or "s3".
	StorageType string
	// LocalStoragePath is the directory for local exports.
	LocalStoragePath string
	// AWSRegion is the region for S3 uploads.
	AWSRegion string
	// S3Bucket is the target bucket name.
	S3Bucket string
	// S3Endpoint is an optional custom endpoint for non-AWS S3 providers.
	S3Endpoint string
	// S3PathStyle enables path-style addressing (needed by some providers).
	S3PathStyle bool

	// WorkerCount is the number of concurrent export jobs allowed.
	WorkerCount int
	// MaxConcurrentRetrievals bounds in-flight Dataverse retrievals globally.
	MaxConcurrentRetrievals int64
	// DefaultTimeout is the maximum duration for one export job.
	DefaultTimeout time.Duration
	// Compression enables gzip compression of export artifacts.
	Compression bool

	// MirrorDSN enables the MySQL mirror when set.
	MirrorDSN string
	// MirrorTable is the snapshot table name.
	MirrorTable string

	// ProgressAddr serves the websocket progress feed when set (e.g. :8090).
	ProgressAddr string
}

func Load() *Config {
	return &Config{
		AppEnv:                  getEnv("APP_ENV", "development"),
		DataverseURL:            getEnv("DATAVERSE_URL", ""),
		TenantID:                getEnv("TENANT_ID", ""),
		ClientID:                getEnv("CLIENT_ID", ""),
		ClientSecret:            getEnv("CLIENT_SECRET", ""),
		Scope:                   getEnv("SCOPE", ""),
		StorageType:             getEnv("STORAGE_TYPE", "local"),
		LocalStoragePath:        getEnv("LOCAL_STORAGE_PATH", "./exports"),
		AWSRegion:               getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:                getEnv("S3_BUCKET", ""),
		S3Endpoint:              getEnv("S3_ENDPOINT", ""),
		S3PathStyle:             getEnvBool("S3_PATH_STYLE", false),
		WorkerCount:             getEnvInt("WORKER_COUNT", 5),
		MaxConcurrentRetrievals: int64(getEnvInt("MAX_CONCURRENT_RETRIEVALS", 3)),
		DefaultTimeout:          getEnvDuration("DEFAULT_TIMEOUT", 15*time.Minute),
		Compression:             getEnvBool("COMPRESSION", false),
		MirrorDSN:               getEnv("MIRROR_MYSQL_DSN", ""),
		MirrorTable:             getEnv("MIRROR_TABLE", "dataverse_snapshot"),
		ProgressAddr:            getEnv("PROGRESS_ADDR", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
