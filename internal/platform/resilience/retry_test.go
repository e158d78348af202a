package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func fastRetryConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts: attempts,
		BaseDelay:   1 * time.Millisecond,
		MaxDelay:    10 * time.Millisecond,
		Jitter:      0,
	}
}

// TestRetrySucceedsAfterTransientFailures verifies retry eventually succeeds
func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(3), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient failure")
		}
		return nil
	})

	if err != nil {
		t.Errorf("Expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}

	t.Log("✓ Retry succeeds after transient failures")
}

// TestRetryExhaustsAttempts verifies the last error is wrapped after exhaustion
func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	wantErr := errors.New("persistent failure")

	err := Retry(context.Background(), fastRetryConfig(3), func(ctx context.Context) error {
		calls++
		return wantErr
	})

	if err == nil {
		t.Fatal("Expected error after exhausting attempts")
	}
	if !errors.Is(err, wantErr) {
		t.Errorf("Expected wrapped original error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}

	t.Log("✓ Retry exhausts attempts and wraps last error")
}

// TestRetryStopsOnNonRetryableError verifies 4xx-style errors short-circuit
func TestRetryStopsOnNonRetryableError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetryConfig(5), func(ctx context.Context) error {
		calls++
		return errors.New("quote request failed with status code 400")
	})

	if err == nil {
		t.Fatal("Expected error")
	}
	if calls != 1 {
		t.Errorf("Expected 1 call for non-retryable error, got %d", calls)
	}

	t.Log("✓ Non-retryable errors short-circuit the retry loop")
}

// TestRetryWithResultReturnsValue verifies the generic variant
func TestRetryWithResultReturnsValue(t *testing.T) {
	calls := 0
	result, err := RetryWithResult(context.Background(), fastRetryConfig(3), func(ctx context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("transient failure")
		}
		return 42, nil
	})

	if err != nil {
		t.Fatalf("Expected success, got %v", err)
	}
	if result != 42 {
		t.Errorf("Expected result 42, got %d", result)
	}

	t.Log("✓ RetryWithResult returns value on success")
}

// TestRetryRespectsContextCancellation verifies cancellation aborts the loop
func TestRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Retry(ctx, RetryConfig{
		MaxAttempts: 10,
		BaseDelay:   50 * time.Millisecond,
		MaxDelay:    1 * time.Second,
	}, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("failure")
	})

	if err == nil {
		t.Fatal("Expected error from cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in chain, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call before cancellation took effect, got %d", calls)
	}

	t.Log("✓ Retry respects context cancellation")
}

// TestIsRetryable verifies error classification
func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"circuit open", ErrCircuitOpen, false},
		{"wrapped circuit open", fmt.Errorf("quote: %w", ErrCircuitOpen), false},
		{"context canceled", context.Canceled, false},
		{"no route", errors.New("Could not find any route"), false},
		{"invalid mint", errors.New("invalid mint: not-a-mint"), false},
		{"bad request", errors.New("quote request failed with status code 400: bad input"), false},
		{"rate limited", errors.New("quote request failed with status code 429"), true},
		{"server error", errors.New("quote request failed with status code 502"), true},
		{"network error", errors.New("connection reset by peer"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}

	t.Log("✓ Error classification works correctly")
}

// TestCalculateBackoffGrowsAndCaps verifies exponential growth with cap
func TestCalculateBackoffGrowsAndCaps(t *testing.T) {
	base := 100 * time.Millisecond
	max := 500 * time.Millisecond

	d0 := calculateBackoff(0, base, max, 0)
	d1 := calculateBackoff(1, base, max, 0)
	d4 := calculateBackoff(4, base, max, 0)

	if d0 != base {
		t.Errorf("Expected first backoff %v, got %v", base, d0)
	}
	if d1 != 2*base {
		t.Errorf("Expected second backoff %v, got %v", 2*base, d1)
	}
	if d4 != max {
		t.Errorf("Expected capped backoff %v, got %v", max, d4)
	}

	t.Log("✓ Backoff grows exponentially and caps at max delay")
}
