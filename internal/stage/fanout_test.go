package stage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestFanOutPreservesInputOrder(t *testing.T) {
	items := []int{5, 3, 8, 1, 9}
	outcomes := FanOut(context.Background(), 3, 0, items, func(_ context.Context, n int) (string, error) {
		time.Sleep(time.Duration(n) * time.Millisecond)
		return fmt.Sprintf("item-%d", n), nil
	})
	if len(outcomes) != len(items) {
		t.Fatalf("expected %d outcomes, got %d", len(items), len(outcomes))
	}
	for i, n := range items {
		want := fmt.Sprintf("item-%d", n)
		if outcomes[i].Value != want {
			t.Fatalf("outcome %d = %q, want %q", i, outcomes[i].Value, want)
		}
	}
}

func TestFanOutRecordsPerItemErrors(t *testing.T) {
	boom := errors.New("boom")
	outcomes := FanOut(context.Background(), 2, 0, []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n * 10, nil
	})
	if outcomes[0].Err != nil || outcomes[2].Err != nil {
		t.Fatalf("healthy items must not error: %+v", outcomes)
	}
	if !errors.Is(outcomes[1].Err, boom) {
		t.Fatalf("expected boom for item 2, got %v", outcomes[1].Err)
	}
	if outcomes[0].Value != 10 || outcomes[2].Value != 30 {
		t.Fatalf("healthy values lost: %+v", outcomes)
	}
}

func TestFanOutHonorsLimit(t *testing.T) {
	var inFlight, peak int64
	var mu sync.Mutex
	items := make([]int, 20)
	FanOut(context.Background(), 2, 0, items, func(_ context.Context, _ int) (struct{}, error) {
		current := atomic.AddInt64(&inFlight, 1)
		mu.Lock()
		if current > peak {
			peak = current
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return struct{}{}, nil
	})
	if peak > 2 {
		t.Fatalf("observed %d concurrent items, limit was 2", peak)
	}
}

func TestFanOutAppliesPerItemTimeout(t *testing.T) {
	outcomes := FanOut(context.Background(), 1, 10*time.Millisecond, []int{1}, func(ctx context.Context, _ int) (int, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Second):
			return 1, nil
		}
	})
	if !errors.Is(outcomes[0].Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", outcomes[0].Err)
	}
}

func TestFanOutStopsLaunchingAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ran := int64(0)
	outcomes := FanOut(ctx, 1, 0, []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		atomic.AddInt64(&ran, 1)
		return n, nil
	})
	if ran != 0 {
		t.Fatalf("no item should launch under a cancelled context, %d ran", ran)
	}
	for i, outcome := range outcomes {
		if !errors.Is(outcome.Err, context.Canceled) {
			t.Fatalf("outcome %d should carry the cancellation, got %v", i, outcome.Err)
		}
	}
}
