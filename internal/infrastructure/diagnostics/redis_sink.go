package diagnostics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"streampool/internal/core/ports"
	"streampool/pkg/retry"
)

// Config tunes the remote diagnostics sink.
type Config struct {
	Address  string
	Password string
	DB       int
	// Key is the redis list the diagnostic lines are pushed onto.
	Key string
	// MaxLines bounds both the local buffer and the remote list.
	MaxLines int
}

// RedisSink buffers diagnostic lines locally and ships them to a redis list
// on demand. Shipping is best-effort and asynchronous so a broken sink never
// slows down or fails the operation that produced the line.
type RedisSink struct {
	client   *redis.Client
	key      string
	maxLines int
	logger   *zap.SugaredLogger

	mu    sync.Mutex
	lines []string

	flushing sync.Mutex
}

// NewRedisSink connects the sink to its redis backend. The connection is
// verified up front so a misconfigured sink surfaces at startup.
func NewRedisSink(cfg Config, logger *zap.SugaredLogger) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to diagnostics redis: %w", err)
	}

	maxLines := cfg.MaxLines
	if maxLines <= 0 {
		maxLines = 200
	}
	key := cfg.Key
	if key == "" {
		key = "streampool:diagnostics"
	}

	logger.Infow("diagnostics sink connected", "address", cfg.Address, "key", key)
	return &RedisSink{
		client:   client,
		key:      key,
		maxLines: maxLines,
		logger:   logger,
	}, nil
}

var _ ports.DiagnosticsSink = (*RedisSink)(nil)

// Record keeps the line in the local ring buffer. Oldest lines fall off when
// the buffer is full.
func (s *RedisSink) Record(line string) {
	stamped := time.Now().UTC().Format(time.RFC3339) + " " + line

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, stamped)
	if len(s.lines) > s.maxLines {
		s.lines = s.lines[len(s.lines)-s.maxLines:]
	}
}

// FlushAsync ships the buffered lines to the remote list in the background.
// The caller never observes the outcome.
func (s *RedisSink) FlushAsync() {
	s.mu.Lock()
	pending := s.lines
	s.lines = nil
	s.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	go func() {
		// One flush at a time keeps remote ordering sane.
		s.flushing.Lock()
		defer s.flushing.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		err := retry.Do(ctx, retry.Config{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			Multiplier:   2,
			MaxDelay:     2 * time.Second,
		}, func() error {
			return s.push(ctx, pending)
		})
		if err != nil {
			s.logger.Warnw("diagnostics flush failed", "lines", len(pending), "error", err)
			return
		}
		s.logger.Debugw("diagnostics flushed", "lines", len(pending))
	}()
}

func (s *RedisSink) push(ctx context.Context, lines []string) error {
	values := make([]interface{}, len(lines))
	for i, line := range lines {
		values[i] = line
	}

	pipe := s.client.Pipeline()
	pipe.LPush(ctx, s.key, values...)
	pipe.LTrim(ctx, s.key, 0, int64(s.maxLines)-1)
	_, err := pipe.Exec(ctx)
	return err
}

// Close releases the redis connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}

// NopSink discards everything. Used when remote diagnostics are disabled.
type NopSink struct{}

func (NopSink) Record(string) {}
func (NopSink) FlushAsync()   {}
