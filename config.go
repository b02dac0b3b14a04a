package main

import (
	"time"

	"github.com/BurntSushi/toml"
)

// Config File Model for Application
type Config struct {
	Main        GeneralConfig     `toml:"main"`
	Server      ServerConfig      `toml:"server"`
	Metrics     MetricsConfig     `toml:"metrics"`
	Logging     LoggingConfig     `toml:"logging"`
	Caching     CachingConfig     `toml:"cache"`
	Database    DatabaseConfig    `toml:"database"`
	Places      PlacesConfig      `toml:"places"`
	Enrichment  EnrichmentConfig  `toml:"enrichment"`
	RequestLog  RequestLogConfig  `toml:"request_log"`
	RateLimiter RateLimiterConfig `toml:"rate_limiter"`
}

// GeneralConfig is a collection of general configuration values.
type GeneralConfig struct {
	// InstanceID represents a unique ID for the current instance, when multiple instances on the same host
	InstanceID int `toml:"instance_id"`
	// Environment indicates the operating environment of the running instance (e.g., "dev", "stage", "prod")
	Environment string
	// ConfigFile represents the physical filepath to the leadscout Configuration
	ConfigFile string
	// Hostname is populated with the self-resolved Hostname where the instance is running
	Hostname string
}

// ServerConfig is a collection of configurations for the main http listener for the application
type ServerConfig struct {
	// ListenAddress is IP address for the main http listener for the application
	ListenAddress string `toml:"listen_address"`
	// ListenPort is TCP Port for the main http listener for the application
	ListenPort int `toml:"listen_port"`
}

// CachingConfig is a collection of defining the leadscout Caching Behavior
type CachingConfig struct {
	// CacheType represents the type of cache that we wish to use: "memory", "filesystem", "boltdb", or "redis"
	CacheType      string                `toml:"cache_type"`
	SuccessTTLSecs int64                 `toml:"success_ttl_secs"`
	FailureTTLSecs int64                 `toml:"failure_ttl_secs"`
	Redis          RedisConfig           `toml:"redis"`
	Filesystem     FilesystemCacheConfig `toml:"filesystem"`
	BoltDB         BoltDBCacheConfig     `toml:"boltdb"`
	ReapSleepMS    int64                 `toml:"reap_sleep_ms"`
	Compression    bool                  `toml:"compression"`
}

// SuccessTTL returns the time-to-live applied to verified-successful lookup outcomes.
func (c CachingConfig) SuccessTTL() time.Duration {
	return time.Duration(c.SuccessTTLSecs) * time.Second
}

// FailureTTL returns the time-to-live applied to failed or negative lookup outcomes.
// It is shorter than SuccessTTL so unclear identities are retried sooner.
func (c CachingConfig) FailureTTL() time.Duration {
	return time.Duration(c.FailureTTLSecs) * time.Second
}

// RedisConfig is a collection of Configurations for Connecting to Redis
type RedisConfig struct {
	// Protocol represents the connection method (e.g., "tcp", "unix", etc.)
	Protocol string `toml:"protocol"`
	// Endpoint represents FQDN:port or IPAddress:Port of the Redis server
	Endpoint string `toml:"endpoint"`
	// Password can be set when the Redis server requires authentication
	Password string `toml:"password"`
}

// FilesystemCacheConfig is a collection of Configurations for storing cached data on the Filesystem
type FilesystemCacheConfig struct {
	// CachePath represents the path on disk where our cache will live
	CachePath string `toml:"cache_path"`
}

// BoltDBCacheConfig is a collection of Configurations for storing cached data in BoltDB
type BoltDBCacheConfig struct {
	// CachePath represents the path on disk where our boltdb database will live
	CachePath string `toml:"cache_path"`
	// Filename represents the filename (relative to CachePath) of the database file
	Filename string `toml:"filename"`
	// Bucket represents the name of the bucket within the database
	Bucket string `toml:"bucket"`
}

// DatabaseConfig is a collection of configurations for the relational lead store
type DatabaseConfig struct {
	// Path represents the path on disk to the SQLite database file
	Path string `toml:"path"`
}

// PlacesConfig is a collection of configurations for the maps-search API used to generate leads
type PlacesConfig struct {
	// BaseURL is the endpoint of the maps text-search API
	BaseURL string `toml:"base_url"`
	// APIKey authenticates requests; when empty, leads are generated from the static mock catalog
	APIKey      string `toml:"api_key"`
	TimeoutSecs int64  `toml:"timeout_secs"`
}

// EnrichmentConfig is a collection of configurations for the people-data enrichment API
type EnrichmentConfig struct {
	// BaseURL is the endpoint of the contact-enrichment API
	BaseURL string `toml:"base_url"`
	// APIKey authenticates requests; when empty, enrichment is skipped entirely
	APIKey      string `toml:"api_key"`
	TimeoutSecs int64  `toml:"timeout_secs"`
	// EnrichLimit bounds how many generated leads are enriched per request, since each lookup costs money
	EnrichLimit int `toml:"enrich_limit"`
}

// RequestLogConfig is a collection of configurations for the in-process request metrics collector
type RequestLogConfig struct {
	// Capacity is the fixed number of recent request metrics retained
	Capacity int `toml:"capacity"`
	// SlowThresholdMS is the duration in milliseconds above which a request is considered slow
	SlowThresholdMS int64 `toml:"slow_threshold_ms"`
}

// SlowThreshold returns the slow-request threshold as a Duration.
func (c RequestLogConfig) SlowThreshold() time.Duration {
	return time.Duration(c.SlowThresholdMS) * time.Millisecond
}

// RateLimiterConfig is a collection of configurations for the per-client rate limiter
type RateLimiterConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// MetricsConfig is a collection of Metrics Collection configurations
type MetricsConfig struct {
	// ListenAddress is IP address from which the Application Metrics are available for pulling at /metrics
	ListenAddress string `toml:"listen_address"`
	// ListenPort is TCP Port from which the Application Metrics are available for pulling at /metrics
	ListenPort int `toml:"listen_port"`
}

// LoggingConfig is a collection of Logging configurations
type LoggingConfig struct {
	// LogFile provides the filepath to the instances's logfile. Set as empty string to Log to Console
	LogFile string `toml:"log_file"`
	// LogLevel provides the most granular level (e.g., DEBUG, INFO, ERROR) to log
	LogLevel string `toml:"log_level"`
}

// NewConfig returns a Config initialized with default values.
func NewConfig() *Config {
	return &Config{
		Main: GeneralConfig{
			ConfigFile: "/etc/leadscout/leadscout.conf",
			Hostname:   "localhost.unknown",
		},

		Server: ServerConfig{
			ListenPort: 8080,
		},

		Metrics: MetricsConfig{
			ListenPort: 8082,
		},

		Logging: LoggingConfig{LogFile: "", LogLevel: "INFO"},

		Caching: CachingConfig{
			CacheType:      ctMemory,
			SuccessTTLSecs: 3600,
			FailureTTLSecs: 1800,
			Redis:          RedisConfig{Protocol: "tcp", Endpoint: "redis:6379"},
			Filesystem:     FilesystemCacheConfig{CachePath: "/tmp/leadscout"},
			BoltDB:         BoltDBCacheConfig{CachePath: "/tmp/leadscout", Filename: "leadscout.db", Bucket: "leadscout"},
			ReapSleepMS:    600000,
			Compression:    true,
		},

		Database: DatabaseConfig{Path: "leadscout.db"},

		Places: PlacesConfig{
			BaseURL:     "https://maps.googleapis.com/maps/api/place/textsearch/json",
			TimeoutSecs: 15,
		},

		Enrichment: EnrichmentConfig{
			BaseURL:     "https://api.peopledatalabs.com/v5/person/enrich",
			TimeoutSecs: 10,
			EnrichLimit: 5,
		},

		RequestLog: RequestLogConfig{
			Capacity:        1000,
			SlowThresholdMS: 1000,
		},

		RateLimiter: RateLimiterConfig{
			Enabled:           true,
			RequestsPerSecond: 5,
			Burst:             10,
		},
	}
}

// LoadFile loads application configuration from a TOML-formatted file.
func (c *Config) LoadFile(path string) error {
	_, err := toml.DecodeFile(path, &c)
	return err
}
