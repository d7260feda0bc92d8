package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Replica     DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Stats       StatsConfig
	Replication ReplicationConfig
	Storage     StorageConfig
}

// DatabaseConfig describes a PostgreSQL connection. URL takes precedence over the
// discrete host settings when present.
type DatabaseConfig struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// Configured reports whether enough connection data exists to open the database.
func (c DatabaseConfig) Configured() bool {
	return c.URL != "" || c.Host != ""
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StatsConfig tunes the statistics and duration analytics readers.
type StatsConfig struct {
	CacheTTL          time.Duration
	DefaultWindowDays int
	MaxRangeDays      int
}

// ReplicationConfig governs the primary -> replica resync job.
type ReplicationConfig struct {
	Timeout   time.Duration
	BatchSize int
	Interval  time.Duration
}

// StorageConfig points photo uploads at an S3 compatible bucket.
type StorageConfig struct {
	Enabled         bool
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	UploadURLTTL    time.Duration
	MaxFileSize     int64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = loadDatabase(v, "DB")
	cfg.Replica = loadDatabase(v, "REPLICA_DB")

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_CACHE"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 7*24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Stats = StatsConfig{
		CacheTTL:          parseDuration(v.GetString("STATS_CACHE_TTL"), 5*time.Minute),
		DefaultWindowDays: v.GetInt("STATS_DEFAULT_WINDOW_DAYS"),
		MaxRangeDays:      v.GetInt("STATS_MAX_RANGE_DAYS"),
	}

	cfg.Replication = ReplicationConfig{
		Timeout:   parseDuration(v.GetString("REPLICATION_TIMEOUT"), 2*time.Minute),
		BatchSize: v.GetInt("REPLICATION_BATCH_SIZE"),
		Interval:  parseDuration(v.GetString("REPLICATION_INTERVAL"), 0),
	}

	maxPhotoSize := v.GetInt64("S3_MAX_FILE_SIZE")
	if maxPhotoSize <= 0 {
		maxPhotoSize = 5 * 1024 * 1024
	}
	cfg.Storage = StorageConfig{
		Enabled:         v.GetBool("ENABLE_PHOTO_UPLOADS"),
		Endpoint:        v.GetString("S3_ENDPOINT"),
		Region:          v.GetString("S3_REGION"),
		Bucket:          v.GetString("S3_BUCKET"),
		AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
		SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
		PublicBaseURL:   strings.TrimRight(v.GetString("S3_PUBLIC_BASE_URL"), "/"),
		UploadURLTTL:    parseDuration(v.GetString("S3_UPLOAD_URL_TTL"), 15*time.Minute),
		MaxFileSize:     maxPhotoSize,
	}

	return cfg, nil
}

func loadDatabase(v *viper.Viper, prefix string) DatabaseConfig {
	return DatabaseConfig{
		URL:          v.GetString(prefix + "_URL"),
		Host:         v.GetString(prefix + "_HOST"),
		Port:         v.GetInt(prefix + "_PORT"),
		User:         v.GetString(prefix + "_USER"),
		Password:     v.GetString(prefix + "_PASSWORD"),
		Name:         v.GetString(prefix + "_NAME"),
		SSLMode:      v.GetString(prefix + "_SSL_MODE"),
		MaxOpenConns: v.GetInt(prefix + "_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt(prefix + "_MAX_IDLE_CONNS"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "facility_reports")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	// The replica stays unconfigured unless REPLICA_DB_URL or REPLICA_DB_HOST is set.
	v.SetDefault("REPLICA_DB_URL", "")
	v.SetDefault("REPLICA_DB_HOST", "")
	v.SetDefault("REPLICA_DB_PORT", 5432)
	v.SetDefault("REPLICA_DB_USER", "postgres")
	v.SetDefault("REPLICA_DB_PASSWORD", "postgres")
	v.SetDefault("REPLICA_DB_NAME", "facility_reports_replica")
	v.SetDefault("REPLICA_DB_SSL_MODE", "disable")
	v.SetDefault("REPLICA_DB_MAX_OPEN_CONNS", 5)
	v.SetDefault("REPLICA_DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "168h")
	v.SetDefault("JWT_ISSUER", "facility-report-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STATS_CACHE_TTL", "5m")
	v.SetDefault("STATS_DEFAULT_WINDOW_DAYS", 7)
	v.SetDefault("STATS_MAX_RANGE_DAYS", 366)

	v.SetDefault("REPLICATION_TIMEOUT", "2m")
	v.SetDefault("REPLICATION_BATCH_SIZE", 500)
	v.SetDefault("REPLICATION_INTERVAL", "")

	v.SetDefault("ENABLE_PHOTO_UPLOADS", false)
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_REGION", "auto")
	v.SetDefault("S3_BUCKET", "report-photos")
	v.SetDefault("S3_ACCESS_KEY_ID", "")
	v.SetDefault("S3_SECRET_ACCESS_KEY", "")
	v.SetDefault("S3_PUBLIC_BASE_URL", "")
	v.SetDefault("S3_UPLOAD_URL_TTL", "15m")
	v.SetDefault("S3_MAX_FILE_SIZE", 5*1024*1024)
}

// isMissingFile treats a missing .env as optional; viper reports it as a path error
// when SetConfigFile is used instead of a search path.
func isMissingFile(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
