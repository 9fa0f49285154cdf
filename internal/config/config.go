// Package config provides configuration structures and validation for the API gateway
// and the capital processor. Values come from defaults, an optional .env file and the
// environment, and are validated once at startup.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration. Each field is one subsystem's
// settings and is validated during application startup.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	FX          FXConfig
	Capital     CapitalConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers           string
	AccrualTopic      string
	NumPartitions     int // Number of partitions for topics
	ReplicationFactor int // Replication factor for topics
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string // Topic for Dead Letter Queue
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string        // Database connection string
	MaxConns        int32         // Maximum number of open connections
	MinConns        int32         // Maximum number of idle connections
	ConnMaxLifetime time.Duration // Maximum lifetime of a connection
	ConnMaxIdleTime time.Duration // Maximum idle time of a connection
	MigrationsPath  string        // Path to migration files
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// OutboxConfig contains outbox pattern configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int // Maximum number of retry attempts for outbox messages
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int // Maximum number of workers in the pool
}

// FXConfig controls the exchange rate cache in front of the rate table
type FXConfig struct {
	CacheTTL             time.Duration
	CacheCleanupInterval time.Duration
}

// CapitalConfig holds limits applied by the capital API
type CapitalConfig struct {
	AccrualBatchLimit int // Maximum loan notes per batch accrual request
}

// problems collects every configuration error so startup reports them together
type problems []string

func (p *problems) positive(key string, ok bool) {
	if !ok {
		*p = append(*p, key+" must be greater than 0")
	}
}

func (p *problems) required(key, value string) {
	if value == "" {
		*p = append(*p, key+" is required")
	}
}

// validate checks every subsystem. An empty KAFKA_DLQ_TOPIC is allowed and
// disables the dead letter queue.
func (c *Config) validate() error {
	var p problems

	p.positive("SERVER_PORT", c.Server.Port > 0)
	p.positive("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout > 0)
	p.positive("SERVER_READ_TIMEOUT", c.Server.ReadTimeout > 0)
	p.positive("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout > 0)
	p.positive("SERVER_IDLE_TIMEOUT", c.Server.IdleTimeout > 0)

	p.required("KAFKA_BROKERS", c.Kafka.Brokers)
	p.required("KAFKA_ACCRUAL_TOPIC", c.Kafka.AccrualTopic)
	p.required("KAFKA_CONSUMER_GROUP", c.Kafka.ConsumerGroup)
	p.positive("KAFKA_CONSUMER_MIN_BYTES", c.Kafka.MinBytes > 0)
	p.positive("KAFKA_CONSUMER_MAX_BYTES", c.Kafka.MaxBytes > 0)
	p.positive("KAFKA_CONSUMER_MAX_WAIT", c.Kafka.MaxWait > 0)
	if c.Kafka.DLQTopic != "" && c.Kafka.DLQTopic == c.Kafka.AccrualTopic {
		p = append(p, "KAFKA_DLQ_TOPIC must differ from KAFKA_ACCRUAL_TOPIC")
	}

	p.required("POSTGRES_URL", c.Postgres.URL)
	p.positive("POSTGRES_MAX_CONNS", c.Postgres.MaxConns > 0)
	p.positive("POSTGRES_MIN_CONNS", c.Postgres.MinConns > 0)
	p.positive("POSTGRES_MAX_CONN_LIFETIME", c.Postgres.ConnMaxLifetime > 0)
	p.positive("POSTGRES_MAX_CONN_IDLE_TIME", c.Postgres.ConnMaxIdleTime > 0)

	p.required("MONGO_URI", c.MongoDB.URI)
	p.required("MONGO_DATABASE", c.MongoDB.Database)
	p.positive("MONGO_TIMEOUT", c.MongoDB.Timeout > 0)
	p.positive("MONGO_MAX_POOL_SIZE", c.MongoDB.MaxPoolSize > 0)
	p.positive("MONGO_MIN_POOL_SIZE", c.MongoDB.MinPoolSize > 0)
	p.positive("MONGO_MAX_CONN_IDLE_TIME", c.MongoDB.MaxConnIdleTime > 0)

	p.positive("OUTBOX_POLLING_INTERVAL", c.Outbox.PollingInterval > 0)
	p.positive("OUTBOX_BATCH_SIZE", c.Outbox.BatchSize > 0)
	p.positive("OUTBOX_MAX_RETRY_ATTEMPTS", c.Outbox.MaxRetryAttempts > 0)

	p.positive("WORKER_POOL_SIZE", c.WorkerPool.Size > 0)

	p.positive("FX_CACHE_TTL", c.FX.CacheTTL > 0)
	p.positive("FX_CACHE_CLEANUP_INTERVAL", c.FX.CacheCleanupInterval > 0)
	p.positive("CAPITAL_ACCRUAL_BATCH_LIMIT", c.Capital.AccrualBatchLimit > 0)

	if len(p) > 0 {
		return errors.New(strings.Join(p, ", "))
	}
	return nil
}
