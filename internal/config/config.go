package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
	_ "time/tzdata"

	"filerelay/internal/upload"
)

// UploadConfig holds the limits and destination of incoming uploads.
type UploadConfig struct {
	MaxFileSize int64
	Folder      string
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

// S3Config holds object storage settings for AWS S3 or an S3-compatible endpoint.
type S3Config struct {
	Bucket         string
	Region         string
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	UseSSL         bool
}

// AppConfig is the centralized configuration struct for the upload server.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost       string
	Port          string
	StaticRoot    string
	StorageDriver string
	Location      *time.Location
	Upload        UploadConfig
	MinIO         MinIOConfig
	S3            S3Config
}

// ClientConfig configures the uploader CLI.
type ClientConfig struct {
	ServerURL string
	PrefsPath string
	Timeout   time.Duration
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:       getEnv("APP_HOST", "localhost:8080"),
		Port:          getEnv("PORT", "8080"),
		StaticRoot:    getEnv("STATIC_ROOT", "frontend"),
		StorageDriver: getEnv("STORAGE_DRIVER", "minio"),
		Location:      getEnvLocation("TZ_LOCATION", time.UTC),
		Upload: UploadConfig{
			MaxFileSize: getEnvInt64("UPLOAD_MAX_BYTES", upload.MaxFileSize),
			Folder:      getEnv("UPLOAD_FOLDER", "/filerelay"),
		},
		MinIO: MinIOConfig{
			Endpoint:      getEnv("MINIO_ENDPOINT", ""),
			AccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey:     getEnv("MINIO_SECRET_KEY", ""),
			Bucket:        getEnv("MINIO_BUCKET", ""),
			UseSSL:        getEnvBool("MINIO_USE_SSL", false),
			PublicBaseURL: getEnv("MINIO_PUBLIC_BASE_URL", ""),
		},
		S3: S3Config{
			Bucket:         getEnv("S3_BUCKET", ""),
			Region:         getEnv("S3_REGION", "us-east-1"),
			Endpoint:       getEnv("S3_ENDPOINT", ""),
			PublicEndpoint: getEnv("S3_PUBLIC_ENDPOINT", ""),
			AccessKey:      getEnv("S3_ACCESS_KEY", ""),
			SecretKey:      getEnv("S3_SECRET_KEY", ""),
			UseSSL:         getEnvBool("S3_USE_SSL", true),
		},
	}
}

// Rules returns the upload rules with the configured size limit.
func (c *AppConfig) Rules() upload.Rules {
	r := upload.DefaultRules()
	if c.Upload.MaxFileSize > 0 {
		r.MaxFileSize = c.Upload.MaxFileSize
	}
	return r
}

// LoadClient reads the uploader CLI configuration from environment variables.
func LoadClient() *ClientConfig {
	return &ClientConfig{
		ServerURL: getEnv("UPLOADER_SERVER_URL", "http://localhost:8080"),
		PrefsPath: getEnv("UPLOADER_PREFS_PATH", defaultPrefsPath()),
		Timeout:   time.Duration(getEnvInt("UPLOADER_TIMEOUT_SEC", 0)) * time.Second,
	}
}

func defaultPrefsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "filerelay", "prefs.json")
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

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvLocation(key string, def *time.Location) *time.Location {
	if v := os.Getenv(key); v != "" {
		loc, err := time.LoadLocation(v)
		if err == nil {
			return loc
		}
	}
	return def
}
