package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr      string
	LogLevel  string
	LogFormat string
	Upstream  Upstream
	Session   Session
	Redis     RedisConfig
}

// Upstream locates the directory service and the address sink.
type Upstream struct {
	DirectoryBaseURL string
	SinkBaseURL      string
	Timeout          time.Duration
}

// Session tunes form session lifetimes.
type Session struct {
	// ErrorTTL is how long a session error stays visible before it auto-expires.
	ErrorTTL time.Duration
	// IdleTTL evicts sessions nobody touched for this long.
	IdleTTL time.Duration
}

// RedisConfig configures the optional receipt store. An empty URL keeps receipts in memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ReceiptTTL   time.Duration
}

const defaultUpstream = "http://localhost:3001"

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:      envString("SHIPFORM_ADDR", ":8080"),
		LogLevel:  envString("LOG_LEVEL", "info"),
		LogFormat: envString("LOG_FORMAT", "json"),
		Upstream: Upstream{
			DirectoryBaseURL: envString("DIRECTORY_BASE_URL", defaultUpstream),
			SinkBaseURL:      envString("ADDRESS_SINK_BASE_URL", defaultUpstream),
			Timeout:          envDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		},
		Session: Session{
			ErrorTTL: envDuration("SESSION_ERROR_TTL", 6*time.Second),
			IdleTTL:  envDuration("SESSION_IDLE_TTL", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			ReceiptTTL:   envDuration("RECEIPT_TTL", 24*time.Hour),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Malformed values fall back to the default rather than aborting startup.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
