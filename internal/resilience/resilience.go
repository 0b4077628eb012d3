// Package resilience guards calls to external services with a circuit
// breaker and retries with exponential backoff.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/sony/gobreaker"
)

var (
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = gobreaker.ErrOpenState
	// ErrTooManyRequests is returned when a half-open breaker is already probing.
	ErrTooManyRequests = gobreaker.ErrTooManyRequests
	// ErrExhaustedRetries indicates retry attempts were exhausted.
	ErrExhaustedRetries = errors.New("retry attempts exhausted")
)

// CircuitBreakerConfig holds configuration for circuit breakers.
type CircuitBreakerConfig struct {
	Name string
	// MaxFailures consecutive failures open the breaker.
	MaxFailures int
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
	// HalfOpenLimit is the number of probe calls allowed while half-open.
	HalfOpenLimit int
}

// CircuitBreaker wraps gobreaker with context-aware execution.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewCircuitBreaker creates a circuit breaker. Zero config fields get defaults:
// 5 failures, 30s open timeout, 1 half-open probe.
func NewCircuitBreaker(cfg CircuitBreakerConfig, logger *slog.Logger) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.HalfOpenLimit <= 0 {
		cfg.HalfOpenLimit = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "circuit_breaker", "name", cfg.Name)

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: uint32(cfg.HalfOpenLimit),
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.MaxFailures)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	}

	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs operation through the breaker. A cancelled caller context is
// not counted against the guarded service.
func (c *CircuitBreaker) Execute(ctx context.Context, operation func(context.Context) error) error {
	var callerErr error
	_, err := c.cb.Execute(func() (interface{}, error) {
		err := operation(ctx)
		if err != nil && errors.Is(err, context.Canceled) {
			callerErr = err
			return nil, nil
		}
		return nil, err
	})
	if callerErr != nil {
		return callerErr
	}
	return err
}

// State returns the breaker state name: "closed", "half-open" or "open".
func (c *CircuitBreaker) State() string {
	return c.cb.State().String()
}

// RetryConfig holds configuration for retry operations.
type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	RandomFactor    float64
}

// DefaultRetryConfig returns a default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2.0,
		RandomFactor:    0.1,
	}
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err}
}

// WithRetry executes an operation with exponential backoff retry. It stops
// early on context cancellation, a breaker rejection, or a Permanent error.
func WithRetry(ctx context.Context, operation func(context.Context) error, cfg RetryConfig) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	interval := cfg.InitialInterval

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return fmt.Errorf("retry abandoned: %w", ctx.Err())
		}

		var perm permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests) {
			return err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		slog.Debug("Operation failed, retrying",
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"next_interval", interval,
			"error", err,
		)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry abandoned: %w", ctx.Err())
		case <-timer.C:
		}

		jitter := 1.0 + cfg.RandomFactor*(2*rand.Float64()-1)
		interval = time.Duration(float64(interval) * cfg.Multiplier * jitter)
		if cfg.MaxInterval > 0 && interval > cfg.MaxInterval {
			interval = cfg.MaxInterval
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhaustedRetries, cfg.MaxAttempts, lastErr)
}
