package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func retryableClassifier(error) ErrorClassification {
	return ErrorClassification{Retryable: true, RecordFailure: true}
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	calls := 0
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, retryableClassifier)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestExecuteStopsOnNonRetryableError(t *testing.T) {
	exec := NewExecutor(Config{BreakerEnabled: false})

	permanent := errors.New("bad request")
	calls := 0
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return permanent
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected the original error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("non-retryable error must not retry, attempts=%d", calls)
	}
}

func TestExecuteExhaustsAttempts(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		BreakerEnabled:      false,
	})

	transient := errors.New("still failing")
	calls := 0
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return transient
	}, retryableClassifier)
	if !errors.Is(err, transient) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestExecuteRespectsContextCancellation(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    5,
		RetryInitialBackoff: 50 * time.Millisecond,
		BreakerEnabled:      false,
	})

	ctx, cancel := context.WithCancel(context.Background())
	transient := errors.New("transient")
	calls := 0
	err := exec.Execute(ctx, "op", func(context.Context) error {
		calls++
		cancel()
		return transient
	}, retryableClassifier)
	if !errors.Is(err, transient) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("canceled context must stop retries, attempts=%d", calls)
	}
}

func TestExecuteOpensBreakerAfterFailureRatio(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    1,
		BreakerEnabled:      true,
		BreakerMinRequests:  2,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  time.Minute,
	})

	transient := errors.New("down")
	for i := 0; i < 2; i++ {
		_ = exec.Execute(context.Background(), "op", func(context.Context) error {
			return transient
		}, retryableClassifier)
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatal("callback must not run while the breaker is open")
		return nil
	}, retryableClassifier)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected gobreaker open state, got %v", err)
	}
}

func TestBreakersAreIsolatedPerOperation(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    1,
		BreakerEnabled:      true,
		BreakerMinRequests:  2,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  time.Minute,
	})

	for i := 0; i < 3; i++ {
		_ = exec.Execute(context.Background(), "failing-op", func(context.Context) error {
			return errors.New("down")
		}, retryableClassifier)
	}

	if err := exec.Execute(context.Background(), "healthy-op", func(context.Context) error {
		return nil
	}, retryableClassifier); err != nil {
		t.Fatalf("unrelated operation tripped by another breaker: %v", err)
	}
}
