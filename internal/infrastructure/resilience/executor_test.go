package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func retryableClassifier(error) ErrorClassification {
	return ErrorClassification{Retryable: true, RecordFailure: true}
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	cfg := Config{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2.0,
	}
	e := NewExecutor(cfg)

	attempts := 0
	err := e.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, retryableClassifier)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestSingleAttemptNeverRetries(t *testing.T) {
	e := NewExecutor(SingleAttempt())

	attempts := 0
	wantErr := errors.New("boom")
	err := e.Execute(context.Background(), "classify", func(context.Context) error {
		attempts++
		return wantErr
	}, retryableClassifier)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Execute() error = %v, want boom", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want exactly 1", attempts)
	}
}

func TestExecuteStopsOnNonRetryable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BreakerEnabled = false
	e := NewExecutor(cfg)

	attempts := 0
	err := e.Execute(context.Background(), "op", func(context.Context) error {
		attempts++
		return errors.New("permanent")
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	cfg := Config{
		MaxAttempts:         1,
		InitialBackoff:      time.Millisecond,
		MaxBackoff:          time.Millisecond,
		Multiplier:          1.0,
		BreakerEnabled:      true,
		BreakerMinRequests:  3,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  time.Minute,
	}
	e := NewExecutor(cfg)

	for i := 0; i < 3; i++ {
		_ = e.Execute(context.Background(), "op", func(context.Context) error {
			return errors.New("down")
		}, retryableClassifier)
	}

	err := e.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatalf("callback must not run when the circuit is open")
		return nil
	}, retryableClassifier)
	if !IsCircuitOpen(err) {
		t.Fatalf("Execute() error = %v, want open circuit", err)
	}
}

func TestExecuteHonorsCanceledContext(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BreakerEnabled = false
	e := NewExecutor(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Execute(ctx, "op", func(context.Context) error {
		t.Fatalf("callback must not run on a canceled context")
		return nil
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}
}
