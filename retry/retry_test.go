package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(retries int) Policy {
	return Policy{InitialBackoff: time.Millisecond, MaxBackoff: 4 * time.Millisecond, Multiplier: 2, MaxRetries: retries}
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastPolicy(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestDoExhausted(t *testing.T) {
	boom := errors.New("boom")
	var calls int
	err := Do(context.Background(), fastPolicy(2), func(context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 3 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}

	calls = 0
	if err := Do(context.Background(), Policy{}, func(context.Context) error { calls++; return boom }); err != boom || calls != 1 {
		t.Errorf("no-retry policy: err = %v, calls = %d", err, calls)
	}
}

func TestDoIfStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("auth failed")
	var calls int
	err := DoIf(context.Background(), fastPolicy(5), func(context.Context) error {
		calls++
		return permanent
	}, func(err error) bool { return !errors.Is(err, permanent) })
	if !errors.Is(err, permanent) || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestDoCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{InitialBackoff: time.Hour, MaxRetries: 3}
	var calls int
	err := Do(ctx, p, func(context.Context) error {
		calls++
		cancel()
		return errors.New("down")
	})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestBackoffCapped(t *testing.T) {
	p := Policy{Multiplier: 10, MaxBackoff: time.Second}
	if got := p.next(500 * time.Millisecond); got != time.Second {
		t.Errorf("next = %v, want capped at 1s", got)
	}
}
