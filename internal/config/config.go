package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Object store drivers understood by ObjectStoreConfig.Driver.
const (
	DriverMinIO = "minio"
	DriverS3    = "s3"
)

// Config aggregates runtime configuration for the file-storage API.
type Config struct {
	Server      ServerConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	ObjectStore ObjectStoreConfig
	Auth        AuthConfig
	Files       FilesConfig
	Metrics     MetricsConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// CORSOrigins lists browser origins allowed to call the API. Empty disables CORS.
	CORSOrigins []string
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxConns        int32
	MaxConnIdleTime time.Duration
}

// DSN returns the PostgreSQL connection URL with credentials escaped.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.Database,
		RawQuery: url.Values{"sslmode": {p.SSLMode}}.Encode(),
	}
	return u.String()
}

// RedisConfig points at the cache instance reported by /ping.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Address returns the redis address in host:port form.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ObjectStoreConfig selects and configures the blob backend.
type ObjectStoreConfig struct {
	Driver string
	Bucket string
	MinIO  MinIOConfig
	S3     S3Config
}

// MinIOConfig carries MinIO connection information.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	Region          string
}

// S3Config carries settings for S3-compatible services.
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// AuthConfig groups authentication-related settings.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenTTL    time.Duration
	BcryptCost        int
}

// FilesConfig controls upload and download behaviour.
type FilesConfig struct {
	DownloadDir       string
	MaxUploadBytes    int64
	DefaultListLimit  int
	RejectUnsafePaths bool
	EnforceOwnership  bool
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:         getString("FILESTORE_API_HOST", "127.0.0.1"),
			Port:         getInt("FILESTORE_API_PORT", 8000),
			ReadTimeout:  getDuration("FILESTORE_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("FILESTORE_API_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:  getDuration("FILESTORE_API_IDLE_TIMEOUT", 60*time.Second),
			CORSOrigins:  getList("FILESTORE_CORS_ORIGINS"),
		},
		Postgres: PostgresConfig{
			Host:     getString("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getString("POSTGRES_USER", "postgres"),
			Password: getString("POSTGRES_PASSWORD", "postgres"),
			Database: getString("POSTGRES_DB", "postgres"),
			SSLMode:  strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),

			MaxConns:        int32(getInt("POSTGRES_MAX_CONNS", 10)),
			MaxConnIdleTime: getDuration("POSTGRES_MAX_CONN_IDLE", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getString("REDIS_HOST", "127.0.0.1"),
			Port:     getInt("REDIS_PORT", 6379),
			Password: getString("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		ObjectStore: ObjectStoreConfig{
			Driver: strings.ToLower(getString("OBJECT_STORE_DRIVER", DriverMinIO)),
			Bucket: getString("OBJECT_STORE_BUCKET", "filestore"),
			MinIO: MinIOConfig{
				Endpoint:        getString("MINIO_ENDPOINT", "localhost:9000"),
				AccessKeyID:     getString("MINIO_ROOT_USER", "filestore"),
				SecretAccessKey: getString("MINIO_ROOT_PASSWORD", "change-me-strong-password"),
				UseSSL:          getBool("MINIO_USE_SSL", false),
				Region:          getString("MINIO_REGION", ""),
			},
			S3: S3Config{
				Endpoint:        getString("S3_ENDPOINT_URL", "https://storage.yandexcloud.net"),
				Region:          getString("S3_REGION", "ru-central1"),
				AccessKeyID:     getString("AWS_ACCESS_KEY_ID", ""),
				SecretAccessKey: getString("AWS_SECRET_ACCESS_KEY", ""),
				UsePathStyle:    getBool("S3_USE_PATH_STYLE", true),
			},
		},
		Auth: loadAuthConfig(),
		Files: FilesConfig{
			DownloadDir:       getString("FILESTORE_DOWNLOAD_DIR", "downloads"),
			MaxUploadBytes:    getInt64("FILESTORE_MAX_UPLOAD_BYTES", 100*1024*1024),
			DefaultListLimit:  getInt("FILESTORE_LIST_LIMIT", 100),
			RejectUnsafePaths: getBool("FILESTORE_REJECT_UNSAFE_PATHS", true),
			EnforceOwnership:  getBool("FILESTORE_ENFORCE_OWNERSHIP", false),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("FILESTORE_METRICS_PATH", "/metrics"),
		},
	}

	switch cfg.ObjectStore.Driver {
	case DriverMinIO, DriverS3:
	default:
		return Config{}, fmt.Errorf("unsupported object store driver %q", cfg.ObjectStore.Driver)
	}
	if cfg.ObjectStore.Bucket == "" {
		return Config{}, fmt.Errorf("object store bucket must not be empty")
	}
	if cfg.Files.DefaultListLimit <= 0 {
		cfg.Files.DefaultListLimit = 100
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func loadAuthConfig() AuthConfig {
	cost := getInt("FILESTORE_AUTH_BCRYPT_COST", 12)
	if cost < 4 || cost > 31 {
		cost = 12
	}

	return AuthConfig{
		AccessTokenSecret: getString("FILESTORE_JWT_SECRET", "your-secret-key"),
		AccessTokenTTL:    getDuration("FILESTORE_AUTH_TOKEN_TTL", 30*time.Minute),
		BcryptCost:        cost,
	}
}
