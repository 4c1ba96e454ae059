// Package redis is the Redis backend. Each collection is one list of
// JSON-encoded records kept in insertion order.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alem-hub/student-records/pkg/logger"
	"github.com/alem-hub/student-records/pkg/retry"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection configuration.
type Config struct {
	// Addr is the Redis server address in "host:port" format.
	Addr string

	// Password is the Redis authentication password (empty if no auth).
	Password string

	// DB is the Redis database number (0-15).
	DB int

	// Prefix namespaces the collection keys.
	Prefix string

	// PoolSize is the maximum number of socket connections.
	PoolSize int

	// MinIdleConns is the minimum number of idle connections.
	MinIdleConns int

	// MaxRetries is the maximum number of retries before giving up.
	MaxRetries int

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration

	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration

	// PoolTimeout is the timeout for getting a connection from the pool.
	PoolTimeout time.Duration

	// ConnectAttempts is how many times the first PING is tried.
	ConnectAttempts int
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            "localhost:6379",
		Prefix:          "records",
		PoolSize:        4,
		MinIdleConns:    1,
		MaxRetries:      3,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		PoolTimeout:     4 * time.Second,
		ConnectAttempts: 5,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrConnection is returned when Redis cannot be reached.
	ErrConnection = errors.New("redis: connection failed")

	// ErrSerialization is returned when a list element cannot be decoded.
	ErrSerialization = errors.New("redis: serialization failed")

	// ErrConflict is returned when a watched key kept changing.
	ErrConflict = errors.New("redis: concurrent modification")
)

// ══════════════════════════════════════════════════════════════════════════════
// KEYS
// ══════════════════════════════════════════════════════════════════════════════

// Key suffixes for the three collections.
const (
	SuffixStudents    = "students"
	SuffixDisciplines = "disciplines"
	SuffixGrades      = "grades"
)

// keys holds the resolved list keys.
type keys struct {
	students    string
	disciplines string
	grades      string
}

func newKeys(prefix string) keys {
	if prefix == "" {
		prefix = "records"
	}
	return keys{
		students:    prefix + ":" + SuffixStudents,
		disciplines: prefix + ":" + SuffixDisciplines,
		grades:      prefix + ":" + SuffixGrades,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// newClient creates the client and verifies it with PING, retrying while the
// server is unreachable.
func newClient(ctx context.Context, cfg Config, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
	})

	opts := retry.ConnectOptions(cfg.ConnectAttempts)
	opts = append(opts, retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		log.Warn("redis ping failed, retrying",
			logger.Int("attempt", attempt),
			logger.Err(err),
			logger.Duration("delay", delay),
		)
	}))

	err := retry.Do(ctx, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}, opts...)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	return client, nil
}
