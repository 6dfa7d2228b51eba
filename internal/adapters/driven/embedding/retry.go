// Package embedding provides shared decorators for embedding service adapters.
package embedding

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/fleetmind-ai/fleetmind/internal/core/domain"
	"github.com/fleetmind-ai/fleetmind/internal/core/ports/driven"
	"github.com/fleetmind-ai/fleetmind/internal/logger"
)

// Ensure RetryService implements the interface.
var _ driven.EmbeddingService = (*RetryService)(nil)

// Default retry configuration values.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultMaxDelay    = 8 * time.Second
	DefaultRateLimit   = 10 // requests per second
	DefaultRateBurst   = 20
)

// RetryConfig holds configuration for the retry decorator.
type RetryConfig struct {
	// MaxAttempts is the total number of tries per call (default: 3).
	MaxAttempts int

	// BaseDelay is the first backoff delay, doubled per attempt (default: 500ms).
	BaseDelay time.Duration

	// MaxDelay caps the backoff delay (default: 8s).
	MaxDelay time.Duration

	// RateLimit is the sustained request rate per second (default: 10).
	RateLimit float64

	// RateBurst is the burst allowance (default: 20).
	RateBurst int
}

// RetryService wraps an embedding service with rate limiting and
// bounded exponential backoff. Only provider availability failures
// are retried; everything else is returned to the caller as-is.
type RetryService struct {
	inner       driven.EmbeddingService
	limiter     *rate.Limiter
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// NewRetryService wraps the given embedding service.
func NewRetryService(inner driven.EmbeddingService, cfg RetryConfig) *RetryService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = DefaultRateBurst
	}

	return &RetryService{
		inner:       inner,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		maxDelay:    cfg.MaxDelay,
	}
}

// Embed generates a vector embedding for the given text.
func (s *RetryService) Embed(ctx context.Context, text string) ([]float32, error) {
	var result []float32
	err := s.do(ctx, func() error {
		var err error
		result, err = s.inner.Embed(ctx, text)
		return err
	})
	return result, err
}

// EmbedBatch generates embeddings for multiple texts.
func (s *RetryService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var result [][]float32
	err := s.do(ctx, func() error {
		var err error
		result, err = s.inner.EmbedBatch(ctx, texts)
		return err
	})
	return result, err
}

// Dimensions returns the embedding vector size.
func (s *RetryService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the name of the embedding model being used.
func (s *RetryService) ModelName() string {
	return s.inner.ModelName()
}

// Ping validates the underlying service is reachable.
func (s *RetryService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close releases resources held by the underlying service.
func (s *RetryService) Close() error {
	return s.inner.Close()
}

func (s *RetryService) do(ctx context.Context, call func() error) error {
	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := s.backoff(attempt)
			logger.Debug("Embedding retry %d/%d after %s: %v", attempt, s.maxAttempts-1, delay, lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		lastErr = call()
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, domain.ErrEmbeddingUnavailable) {
			return lastErr
		}
	}
	return lastErr
}

func (s *RetryService) backoff(attempt int) time.Duration {
	delay := s.baseDelay << (attempt - 1)
	if delay > s.maxDelay || delay <= 0 {
		delay = s.maxDelay
	}
	return delay
}
