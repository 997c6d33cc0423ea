// Package config defines all configuration structures for the
// LexCase-Intelligence platform.  No I/O or parsing logic lives here, only
// plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// Backend names shared by the storage, cache and search sections.
const (
	BackendFile       = "file"
	BackendPostgres   = "postgres"
	BackendRedis      = "redis"
	BackendOpenSearch = "opensearch"
	BackendMinIO      = "minio"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// CORSAllowedOrigins is empty to disable cross-origin access.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	// RateLimitRPS is the per-client request rate; 0 disables limiting.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`

	Auth AuthConfig `mapstructure:"auth"`
}

// AuthConfig enables bearer-token checks on /api/v1.  Tokens are HS256 JWTs
// signed with HMACSecret; health and metrics routes stay open.
type AuthConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	HMACSecret string `mapstructure:"hmac_secret"`
	Issuer     string `mapstructure:"issuer"`
	Audience   string `mapstructure:"audience"`
	// AdminRole is required by POST /api/v1/analyses/regenerate.  Empty
	// lets any authenticated caller regenerate.
	AdminRole string `mapstructure:"admin_role"`
}

// StorageConfig selects where case, document and playbook records live.
type StorageConfig struct {
	// Backend is "file" (flat JSON/YAML files under DataDir) or "postgres".
	Backend string `mapstructure:"backend"`
	DataDir string `mapstructure:"data_dir"`
	// AnalysisSource selects where per-document analysis records are read
	// from: "" follows Backend, "minio" reads them from object storage.
	AnalysisSource string `mapstructure:"analysis_source"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"` // empty uses the embedded set
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// CacheConfig controls the analysis cache.
type CacheConfig struct {
	// Backend is "file" (one JSON mapping under storage.data_dir) or "redis".
	Backend string `mapstructure:"backend"`
	// FreshnessWindow is how long a cached analysis is served without
	// recomputation.
	FreshnessWindow time.Duration `mapstructure:"freshness_window"`
	// RecentWindow bounds the "recent analyses" statistic.
	RecentWindow time.Duration `mapstructure:"recent_window"`
	// PlaybookTTL enables redis caching of playbook lookups when > 0 and the
	// redis backend is selected.
	PlaybookTTL time.Duration `mapstructure:"playbook_ttl"`
	// BatchLockTTL bounds the distributed lock held by regenerate-all.
	BatchLockTTL time.Duration `mapstructure:"batch_lock_ttl"`
}

// SearchConfig selects the research corpus backend.
type SearchConfig struct {
	Backend string `mapstructure:"backend"` // "file" | "opensearch"
}

// OpenSearchConfig holds OpenSearch cluster connection parameters.
type OpenSearchConfig struct {
	Addresses          []string      `mapstructure:"addresses"`
	User               string        `mapstructure:"user"`
	Password           string        `mapstructure:"password"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	CorpusIndex        string        `mapstructure:"corpus_index"`
	MaxResults         int           `mapstructure:"max_results"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters.
type MinIOConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	Bucket         string `mapstructure:"bucket"`
	UseSSL         bool   `mapstructure:"use_ssl"`
	Region         string `mapstructure:"region"`
	AnalysisPrefix string `mapstructure:"analysis_prefix"`
}

// KafkaConfig holds Apache Kafka parameters.  Topic receives
// analysis-completed events; the worker consumes RequestTopic and parks
// requests it cannot process on DeadLetterTopic.
type KafkaConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Brokers         []string      `mapstructure:"brokers"`
	Topic           string        `mapstructure:"topic"`
	BatchSize       int           `mapstructure:"batch_size"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	RequiredAcks    int           `mapstructure:"required_acks"`
	Async           bool          `mapstructure:"async"`
	RequestTopic    string        `mapstructure:"request_topic"`
	ConsumerGroup   string        `mapstructure:"consumer_group"`
	DeadLetterTopic string        `mapstructure:"dead_letter_topic"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.  Every infrastructure
// component and application service reads its settings from the relevant
// sub-struct.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Search     SearchConfig     `mapstructure:"search"`
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Log        LogConfig        `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.  It
// returns the first error encountered.  Connection settings are only checked
// for the backends that are actually selected.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Server.Auth.Enabled && len(c.Server.Auth.HMACSecret) < 32 {
		return fmt.Errorf("config: server.auth.hmac_secret must be at least 32 bytes when auth is enabled")
	}

	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("config: storage.data_dir is required for the file backend")
		}
	case BackendPostgres:
		if err := c.validateDatabase(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("config: storage.backend %q is invalid; expected file|postgres", c.Storage.Backend)
	}

	switch c.Storage.AnalysisSource {
	case "", BackendFile, BackendPostgres:
	case BackendMinIO:
		if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
			return fmt.Errorf("config: minio.endpoint and minio.bucket are required for analysis_source=minio")
		}
	default:
		return fmt.Errorf("config: storage.analysis_source %q is invalid; expected file|postgres|minio", c.Storage.AnalysisSource)
	}

	switch c.Cache.Backend {
	case BackendFile:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("config: storage.data_dir is required for the file cache backend")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required for the redis cache backend")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
		}
	default:
		return fmt.Errorf("config: cache.backend %q is invalid; expected file|redis", c.Cache.Backend)
	}
	if c.Cache.FreshnessWindow <= 0 {
		return fmt.Errorf("config: cache.freshness_window must be positive, got %s", c.Cache.FreshnessWindow)
	}
	if c.Cache.RecentWindow <= 0 {
		return fmt.Errorf("config: cache.recent_window must be positive, got %s", c.Cache.RecentWindow)
	}

	switch c.Search.Backend {
	case BackendFile:
	case BackendOpenSearch:
		if len(c.OpenSearch.Addresses) == 0 {
			return fmt.Errorf("config: opensearch.addresses must contain at least one address")
		}
		if c.OpenSearch.CorpusIndex == "" {
			return fmt.Errorf("config: opensearch.corpus_index is required")
		}
	default:
		return fmt.Errorf("config: search.backend %q is invalid; expected file|opensearch", c.Search.Backend)
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("config: kafka.topic is required")
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	return nil
}

//Personal.AI order the ending
