package step

import (
	"context"
	"testing"
)

func TestInMemory_RunsThunkOnce(t *testing.T) {
	s := NewInMemory()
	calls := 0

	thunk := func(ctx context.Context) (any, error) {
		calls++
		return "result", nil
	}

	v1, err := s.Run(context.Background(), "only-step", thunk)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v2, err := s.Run(context.Background(), "only-step", thunk)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 1 {
		t.Fatalf("expected thunk to run once, ran %d times", calls)
	}
	if v1 != "result" || v2 != "result" {
		t.Fatalf("expected cached result on resume, got %v then %v", v1, v2)
	}
}

func TestInMemory_DistinctNamesRunIndependently(t *testing.T) {
	s := NewInMemory()
	calls := map[string]int{}

	for _, name := range []string{"a", "b", "a"} {
		_, err := s.Run(context.Background(), name, func(ctx context.Context) (any, error) {
			calls[name]++
			return name, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if calls["a"] != 1 || calls["b"] != 1 {
		t.Fatalf("expected each name to run exactly once, got %v", calls)
	}
}

func TestInMemory_ThunkErrorNotCached(t *testing.T) {
	s := NewInMemory()
	calls := 0

	_, err := s.Run(context.Background(), "fails-once", func(ctx context.Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, context.DeadlineExceeded
		}
		return "ok", nil
	})
	if err == nil {
		t.Fatal("expected error from first attempt")
	}

	v, err := s.Run(context.Background(), "fails-once", func(ctx context.Context) (any, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if v != "ok" || calls != 2 {
		t.Fatalf("expected retry to run thunk again after a failure, calls=%d v=%v", calls, v)
	}
}
