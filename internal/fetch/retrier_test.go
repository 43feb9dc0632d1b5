package fetch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"vigil/internal/fetch"
)

func noSleep(delays *[]time.Duration) fetch.Option {
	return fetch.WithSleep(func(_ context.Context, d time.Duration) error {
		if delays != nil {
			*delays = append(*delays, d)
		}
		return nil
	})
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	retrier := fetch.New(3, time.Second, nil, noSleep(nil))
	calls := 0
	err := retrier.Do(context.Background(), "cameras", func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("loader called %d times", calls)
	}
	if got := retrier.Attempts("cameras"); got != 0 {
		t.Fatalf("attempts after success = %d", got)
	}
}

func TestDoLinearBackoff(t *testing.T) {
	var delays []time.Duration
	retrier := fetch.New(3, 100*time.Millisecond, nil, noSleep(&delays))
	calls := 0
	err := retrier.Do(context.Background(), "videos", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("boom")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v", delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestDoExhaustsAndNotifiesOnce(t *testing.T) {
	var exhausted int
	var exhaustedKey string
	var exhaustedAttempts int
	retrier := fetch.New(2, time.Millisecond, nil,
		noSleep(nil),
		fetch.WithExhausted(func(_ context.Context, key string, attempts int, _ error) {
			exhausted++
			exhaustedKey = key
			exhaustedAttempts = attempts
		}))

	boom := errors.New("connection refused")
	err := retrier.Do(context.Background(), "uploads", func(context.Context) error {
		return boom
	})
	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("final error should wrap loader error, got %v", err)
	}
	if exhausted != 1 || exhaustedKey != "uploads" || exhaustedAttempts != 2 {
		t.Fatalf("exhausted callback: count=%d key=%q attempts=%d", exhausted, exhaustedKey, exhaustedAttempts)
	}
	// Counter resets so a later manual refresh starts fresh.
	if got := retrier.Attempts("uploads"); got != 0 {
		t.Fatalf("attempts after exhaustion = %d", got)
	}
}

func TestDoKeysAreIndependent(t *testing.T) {
	retrier := fetch.New(5, time.Millisecond, nil, noSleep(nil))
	_ = retrier.Do(context.Background(), "cameras", func(context.Context) error {
		return nil
	})
	failing := 0
	err := retrier.Do(context.Background(), "videos", func(context.Context) error {
		failing++
		if failing < 4 {
			return errors.New("boom")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if failing != 4 {
		t.Fatalf("loader called %d times", failing)
	}
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	retrier := fetch.New(5, time.Millisecond, nil,
		fetch.WithSleep(func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		}))
	calls := 0
	err := retrier.Do(ctx, "cameras", func(context.Context) error {
		calls++
		return errors.New("boom")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("loader called %d times after cancel", calls)
	}
}
