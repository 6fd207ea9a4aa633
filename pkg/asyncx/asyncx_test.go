package asyncx_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abraxas-365/keystone/pkg/asyncx"
)

func TestFuture_AwaitReturnsValue(t *testing.T) {
	f := asyncx.Run(func() (int, error) {
		return 42, nil
	})

	v, err := f.Await()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
}

func TestFuture_AwaitIsIdempotent(t *testing.T) {
	calls := 0
	f := asyncx.Run(func() (string, error) {
		calls++
		return "once", nil
	})

	for i := 0; i < 3; i++ {
		v, err := f.Await()
		if err != nil || v != "once" {
			t.Fatalf("unexpected result: %q, %v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestAll_CollectsInOrder(t *testing.T) {
	results, err := asyncx.All(context.Background(),
		func(context.Context) (string, error) {
			time.Sleep(10 * time.Millisecond)
			return "slow", nil
		},
		func(context.Context) (string, error) {
			return "fast", nil
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0] != "slow" || results[1] != "fast" {
		t.Fatalf("results out of order: %v", results)
	}
}

func TestAll_ReturnsErrorAfterAllFinish(t *testing.T) {
	boom := errors.New("boom")
	done := false

	_, err := asyncx.All(context.Background(),
		func(context.Context) (int, error) {
			return 0, boom
		},
		func(context.Context) (int, error) {
			time.Sleep(10 * time.Millisecond)
			done = true
			return 1, nil
		},
	)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if !done {
		t.Fatal("All returned before every goroutine finished")
	}
}
