package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func fastConfig(maxAttempts int) Config {
	return Config{
		MaxAttempts:   maxAttempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestRetryAllErrors(t *testing.T) {
	if RetryAllErrors(nil) {
		t.Error("Expected false for nil error")
	}
	if RetryAllErrors(context.Canceled) {
		t.Error("Expected false for context.Canceled")
	}
	if RetryAllErrors(fmt.Errorf("wrapped: %w", context.Canceled)) {
		t.Error("Expected false for wrapped context.Canceled")
	}
	if !RetryAllErrors(context.DeadlineExceeded) {
		t.Error("Expected true for context.DeadlineExceeded (per-request timeouts should retry)")
	}
	if !RetryAllErrors(errors.New("429 rate limited")) {
		t.Error("Expected true for provider error")
	}
}

func TestNewPolicy_DefaultClassifier(t *testing.T) {
	p := NewPolicy(DefaultConfig, nil)
	if p.Classifier == nil {
		t.Error("Expected default classifier when nil passed")
	}
	if p.ShouldRetry(nil) {
		t.Error("Expected false for nil error with default classifier")
	}
}

func TestCalculateDelay_FirstAttempt(t *testing.T) {
	p := NewPolicy(Config{
		InitialDelay:  time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        false,
	}, nil)

	if delay := p.CalculateDelay(1); delay != 0 {
		t.Errorf("Expected 0 delay for first attempt, got: %v", delay)
	}
}

func TestCalculateDelay_ExponentialBackoff(t *testing.T) {
	p := NewPolicy(Config{
		InitialDelay:  time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        false,
	}, nil)

	if delay := p.CalculateDelay(2); delay != time.Second {
		t.Errorf("Expected 1s for attempt 2, got: %v", delay)
	}
	if delay := p.CalculateDelay(3); delay != 2*time.Second {
		t.Errorf("Expected 2s for attempt 3, got: %v", delay)
	}
	if delay := p.CalculateDelay(4); delay != 4*time.Second {
		t.Errorf("Expected 4s for attempt 4, got: %v", delay)
	}
}

func TestCalculateDelay_MaxDelayCap(t *testing.T) {
	p := NewPolicy(Config{
		InitialDelay:  time.Second,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        false,
	}, nil)

	if delay := p.CalculateDelay(10); delay != 5*time.Second {
		t.Errorf("Expected 5s (max delay cap) for attempt 10, got: %v", delay)
	}
}

func TestCalculateDelay_WithJitter(t *testing.T) {
	p := NewPolicy(Config{
		InitialDelay:  time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}, nil)

	delay := p.CalculateDelay(2)
	baseDelay := time.Second
	minDelay := baseDelay - time.Duration(float64(baseDelay)*0.1)
	maxDelay := baseDelay + time.Duration(float64(baseDelay)*0.1)

	if delay < minDelay || delay > maxDelay {
		t.Errorf("Expected delay within ±10%% of %v, got: %v", baseDelay, delay)
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	p := NewPolicy(fastConfig(3), nil)
	calls := 0

	got, err := Do(context.Background(), p, func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("unexpected result: %q, %v", got, err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ExactAttemptBudget(t *testing.T) {
	// Two attempts means exactly two calls and then the last error, never a third.
	p := NewPolicy(fastConfig(2), nil)
	calls := 0

	_, err := Do(context.Background(), p, func(context.Context) (string, error) {
		calls++
		return "", fmt.Errorf("boom %d", calls)
	})
	if calls != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", calls)
	}
	if err == nil || err.Error() != "boom 2" {
		t.Errorf("expected last attempt's error, got %v", err)
	}
}

func TestDo_RecoverOnRetry(t *testing.T) {
	p := NewPolicy(fastConfig(3), nil)
	calls := 0

	got, err := Do(context.Background(), p, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil || got != 42 {
		t.Fatalf("unexpected result: %d, %v", got, err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	p := NewPolicy(fastConfig(5), func(err error) bool { return false })
	calls := 0

	_, err := Do(context.Background(), p, func(context.Context) (string, error) {
		calls++
		return "", errors.New("fatal")
	})
	if calls != 1 {
		t.Errorf("expected 1 attempt for non-retryable error, got %d", calls)
	}
	if err == nil {
		t.Error("expected error")
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	p := NewPolicy(Config{
		MaxAttempts:   3,
		InitialDelay:  time.Second,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Do(ctx, p, func(context.Context) (string, error) {
		calls++
		return "", errors.New("transient")
	})
	if calls != 1 {
		t.Errorf("expected cancellation during backoff after 1 attempt, got %d", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDo_OnRetryHook(t *testing.T) {
	p := NewPolicy(fastConfig(3), nil)
	var attempts []int
	p.OnRetry = func(attempt int, err error) {
		attempts = append(attempts, attempt)
	}

	_, _ = Do(context.Background(), p, func(context.Context) (string, error) {
		return "", errors.New("boom")
	})
	if len(attempts) != 2 || attempts[0] != 2 || attempts[1] != 3 {
		t.Errorf("expected hooks for attempts 2 and 3, got %v", attempts)
	}
}
