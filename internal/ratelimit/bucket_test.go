package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestAcquireDeductsImmediatelyWhenAvailable(t *testing.T) {
	l := New(10, 600, 0)
	if err := l.Acquire(context.Background(), 3, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	status := l.Status()
	if status.AvailableTokens > 7.1 {
		t.Fatalf("expected roughly 7 tokens left, got %f", status.AvailableTokens)
	}
}

func TestAcquireRejectsImpossibleCost(t *testing.T) {
	l := New(10, 60, 2)
	err := l.Acquire(context.Background(), 9, 0)
	if !errors.Is(err, ErrCostTooHigh) {
		t.Fatalf("expected ErrCostTooHigh, got %v", err)
	}
}

func TestMinReserveBlocksOrdinaryAdmission(t *testing.T) {
	l := New(10, 60, 5)
	// 5 usable tokens above the reserve.
	if err := l.Acquire(context.Background(), 5, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := l.Acquire(ctx, 1, 0)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected blocked acquire to time out, got %v", err)
	}
}

func TestDoRunsFnAfterDeduction(t *testing.T) {
	l := New(10, 600, 0)
	ran := false
	err := l.Do(context.Background(), 2, 0, func() error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Fatal("fn did not run")
	}
}

func TestDoDoesNotRefundFailedCalls(t *testing.T) {
	l := New(10, 60, 0)
	boom := errors.New("provider exploded")
	err := l.Do(context.Background(), 4, 0, func() error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error passed through, got %v", err)
	}
	status := l.Status()
	if status.AvailableTokens > 6.5 {
		t.Fatalf("failed call must keep its deduction, got %f tokens", status.AvailableTokens)
	}
}

func TestWaiterAdmittedAfterRefill(t *testing.T) {
	l := New(2, 6000, 0)
	if err := l.Acquire(context.Background(), 2, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	start := time.Now()
	if err := l.Acquire(ctx, 1, 0); err != nil {
		t.Fatalf("waiter was never admitted: %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("admission took too long: %v", time.Since(start))
	}
}

func TestPriorityWaitersAdmittedFirst(t *testing.T) {
	l := New(2, 6000, 0)
	if err := l.Acquire(context.Background(), 2, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var mu sync.Mutex
	var order []string
	var wg sync.WaitGroup
	acquire := func(name string, priority int) {
		defer wg.Done()
		if err := l.Acquire(context.Background(), 1, priority); err != nil {
			t.Errorf("%s: %v", name, err)
			return
		}
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	wg.Add(1)
	go acquire("low", 0)
	time.Sleep(20 * time.Millisecond)
	wg.Add(1)
	go acquire("high", 5)
	time.Sleep(20 * time.Millisecond)

	wg.Wait()
	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != "high" {
		t.Fatalf("expected high priority admitted first, got %v", order)
	}
}

func TestFIFOWithinEqualPriority(t *testing.T) {
	l := New(1, 6000, 0)
	if err := l.Acquire(context.Background(), 1, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := l.Acquire(context.Background(), 1, 0); err != nil {
				t.Errorf("waiter %d: %v", n, err)
				return
			}
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
		}(i)
		// Stagger arrivals so FIFO order is well defined.
		time.Sleep(15 * time.Millisecond)
	}

	wg.Wait()
	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 {
		t.Fatalf("expected three admissions, got %v", order)
	}
	for i := 1; i < len(order); i++ {
		if order[i] < order[i-1] {
			t.Fatalf("admission order not FIFO: %v", order)
		}
	}
}

func TestCancelledWaiterLeavesQueue(t *testing.T) {
	l := New(1, 60, 0)
	if err := l.Acquire(context.Background(), 1, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Acquire(ctx, 1, 0) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled waiter never returned")
	}
	if status := l.Status(); status.Waiting != 0 {
		t.Fatalf("expected empty queue, got %d waiting", status.Waiting)
	}
}

func TestRefillNeverExceedsCapacity(t *testing.T) {
	l := New(5, 6000, 0)
	l.mu.Lock()
	l.lastRefill = l.now().Add(-time.Hour)
	l.mu.Unlock()
	status := l.Status()
	if status.AvailableTokens != 5 {
		t.Fatalf("refill exceeded capacity: %f", status.AvailableTokens)
	}
}

func TestStatusReportsWaiting(t *testing.T) {
	l := New(1, 60, 0)
	if err := l.Acquire(context.Background(), 1, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Acquire(ctx, 1, 0) }()
	time.Sleep(20 * time.Millisecond)
	if status := l.Status(); status.Waiting != 1 {
		t.Fatalf("expected one waiter, got %d", status.Waiting)
	}
}
