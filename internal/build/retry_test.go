package build

import (
	"context"
	"errors"
	"testing"
	"time"

	"estatekg/relate/internal/config"
)

type fakeTransient struct{ msg string }

func (e *fakeTransient) Error() string   { return e.msg }
func (e *fakeTransient) Transient() bool { return true }

func fastRetry() config.Retry {
	return config.Retry{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

func TestWithRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastRetry(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithRetry_RecoversFromTransient(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastRetry(), func() error {
		calls++
		if calls < 3 {
			return &fakeTransient{msg: "connection reset"}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastRetry(), func() error {
		calls++
		return &fakeTransient{msg: "timeout"}
	})
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !isTransient(err) {
		t.Error("exhausted error should still unwrap to the transient cause")
	}
}

func TestWithRetry_NonTransientFailsImmediately(t *testing.T) {
	calls := 0
	permanent := errors.New("constraint violation")
	err := withRetry(context.Background(), fastRetry(), func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected the permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on permanent errors)", calls)
	}
}

func TestWithRetry_CancelledBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withRetry(ctx, fastRetry(), func() error {
		return &fakeTransient{msg: "busy"}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
