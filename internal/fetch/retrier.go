// Package fetch retries backend resource loads with linear backoff.
//
// Each resource key (cameras, videos, uploads) carries its own attempt
// counter. A failed load schedules the next attempt after base delay
// multiplied by the attempt number; a successful load resets the
// counter. Intermediate failures are logged only, and the exhausted
// callback fires once when the attempt budget runs out.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vigil/internal/logging"
	"vigil/internal/services"
)

// Loader produces the payload for a resource key.
type Loader func(ctx context.Context) error

// ExhaustedFunc runs after the final failed attempt for a key.
type ExhaustedFunc func(ctx context.Context, key string, attempts int, err error)

// Retrier drives resource loads through the per-key retry policy.
type Retrier struct {
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
	onExhausted ExhaustedFunc
	sleep       func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	attempts map[string]int
}

// Option adjusts Retrier construction.
type Option func(*Retrier)

// WithExhausted installs the callback invoked when a key runs out of
// attempts.
func WithExhausted(fn ExhaustedFunc) Option {
	return func(r *Retrier) { r.onExhausted = fn }
}

// WithSleep replaces the inter-attempt wait. Tests use this to avoid
// real delays.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Retrier) { r.sleep = fn }
}

// New builds a Retrier. maxAttempts must be at least one and baseDelay
// non-negative; out-of-range values are clamped.
func New(maxAttempts int, baseDelay time.Duration, logger *slog.Logger, opts ...Option) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay < 0 {
		baseDelay = 0
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Retrier{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		logger:      logger,
		sleep:       sleepContext,
		attempts:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do runs the loader for key, retrying failures with linear backoff
// until the attempt budget is spent. The delay before retry N is
// baseDelay multiplied by N. A success resets the key's counter so the
// next failure starts from attempt one again.
func (r *Retrier) Do(ctx context.Context, key string, loader Loader) error {
	var lastErr error
	for {
		attempt := r.bumpAttempt(key)
		err := loader(ctx)
		if err == nil {
			r.Reset(key)
			if attempt > 1 {
				r.logger.Info("resource load recovered",
					logging.String(logging.FieldResource, key),
					logging.Int(logging.FieldAttempt, attempt))
			}
			return nil
		}
		lastErr = err

		if attempt >= r.maxAttempts {
			r.logger.Error("resource load exhausted retries",
				logging.String(logging.FieldResource, key),
				logging.Int(logging.FieldAttempt, attempt),
				logging.Error(err))
			if r.onExhausted != nil {
				r.onExhausted(ctx, key, attempt, err)
			}
			r.Reset(key)
			return services.Wrap(services.ErrTransient, "fetch", "do",
				fmt.Sprintf("resource %q failed after %d attempts", key, attempt), lastErr)
		}

		delay := r.baseDelay * time.Duration(attempt)
		r.logger.Warn("resource load failed, retrying",
			logging.String(logging.FieldResource, key),
			logging.Int(logging.FieldAttempt, attempt),
			logging.Duration("retry_in", delay),
			logging.Error(err))
		if err := r.sleep(ctx, delay); err != nil {
			return services.Wrap(services.ErrTransient, "fetch", "do", "retry wait interrupted", err)
		}
	}
}

// Attempts reports the current attempt counter for key.
func (r *Retrier) Attempts(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts[key]
}

// Reset clears the attempt counter for key.
func (r *Retrier) Reset(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, key)
}

func (r *Retrier) bumpAttempt(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[key]++
	return r.attempts[key]
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
