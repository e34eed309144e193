// Package ratelimit provides the token bucket that gates every call to the
// hosting provider's API. Capacity refills continuously from wall-clock
// time; a minimum reserve keeps low-priority bursts from starving urgent
// calls. Waiters are admitted strictly by priority then arrival order.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCostTooHigh is returned when a single call requests more tokens than
// the bucket can ever hold above its reserve.
var ErrCostTooHigh = errors.New("ratelimit: token cost exceeds bucket capacity")

// Limiter is a process-wide token bucket. One instance per process; it is
// constructed explicitly and injected, never a package singleton.
type Limiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	minReserve float64
	lastRefill time.Time
	waiters    []*waiter
	timer      *time.Timer
	now        func() time.Time
}

type waiter struct {
	cost     float64
	priority int
	ready    chan struct{}
}

// Status is a read-only snapshot for observability.
type Status struct {
	AvailableTokens float64 `json:"available_tokens"`
	MaxTokens       float64 `json:"max_tokens"`
	RefillRate      float64 `json:"refill_rate"`
	Waiting         int     `json:"waiting"`
}

// New constructs a Limiter. refillPerMinute is the provider's call ceiling;
// minReserve tokens are held back from ordinary admission.
func New(maxTokens, refillPerMinute, minReserve float64) *Limiter {
	if maxTokens <= 0 {
		maxTokens = 1
	}
	if refillPerMinute <= 0 {
		refillPerMinute = 60
	}
	if minReserve < 0 || minReserve >= maxTokens {
		minReserve = 0
	}
	l := &Limiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillPerMinute / 60.0,
		minReserve: minReserve,
		now:        time.Now,
	}
	l.lastRefill = l.now()
	return l
}

// Do waits for cost tokens (plus the reserve) to be available, deducts them,
// then runs fn. It never fails because of rate limiting; it waits until
// tokens free up or ctx is done. fn's own error passes through untouched,
// and failed calls do not get their tokens back.
func (l *Limiter) Do(ctx context.Context, cost float64, priority int, fn func() error) error {
	if err := l.Acquire(ctx, cost, priority); err != nil {
		return err
	}
	return fn()
}

// Acquire blocks until cost tokens can be deducted under the admission rule
// tokens >= cost + minReserve. Callers with priority > 0 are promoted ahead
// of waiting zero-priority callers; equal priorities keep FIFO order.
func (l *Limiter) Acquire(ctx context.Context, cost float64, priority int) error {
	if cost <= 0 {
		cost = 1
	}
	if cost+l.minReserve > l.maxTokens {
		return ErrCostTooHigh
	}

	l.mu.Lock()
	l.refillLocked()
	if len(l.waiters) == 0 && l.tokens >= cost+l.minReserve {
		l.tokens -= cost
		l.mu.Unlock()
		return nil
	}

	w := &waiter{cost: cost, priority: priority, ready: make(chan struct{})}
	l.enqueueLocked(w)
	l.scheduleLocked()
	l.mu.Unlock()

	select {
	case <-w.ready:
		if err := ctx.Err(); err != nil {
			// Admitted but the caller is gone; credit the deduction back.
			l.mu.Lock()
			l.tokens = min(l.maxTokens, l.tokens+cost)
			l.scheduleLocked()
			l.mu.Unlock()
			return err
		}
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		l.removeLocked(w)
		l.mu.Unlock()
		select {
		case <-w.ready:
			// Lost the race with admission; refund.
			l.mu.Lock()
			l.tokens = min(l.maxTokens, l.tokens+cost)
			l.scheduleLocked()
			l.mu.Unlock()
		default:
		}
		return ctx.Err()
	}
}

// Status reports current availability. It mutates nothing beyond the lazy
// refill computation.
func (l *Limiter) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refillLocked()
	return Status{
		AvailableTokens: l.tokens,
		MaxTokens:       l.maxTokens,
		RefillRate:      l.refillRate,
		Waiting:         len(l.waiters),
	}
}

// refillLocked applies lazy refill: min(max, tokens + elapsed * rate).
func (l *Limiter) refillLocked() {
	now := l.now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	if elapsed > 0 {
		l.tokens = min(l.maxTokens, l.tokens+elapsed*l.refillRate)
	}
	l.lastRefill = now
}

// enqueueLocked inserts by priority (higher first), preserving arrival
// order within equal priority.
func (l *Limiter) enqueueLocked(w *waiter) {
	idx := len(l.waiters)
	for i, existing := range l.waiters {
		if w.priority > existing.priority {
			idx = i
			break
		}
	}
	l.waiters = append(l.waiters, nil)
	copy(l.waiters[idx+1:], l.waiters[idx:])
	l.waiters[idx] = w
}

func (l *Limiter) removeLocked(target *waiter) {
	for i, w := range l.waiters {
		if w == target {
			l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
			return
		}
	}
}

// admitLocked wakes head waiters while the bucket covers them. Only the
// head is ever admitted, keeping ordering strict.
func (l *Limiter) admitLocked() {
	for len(l.waiters) > 0 {
		head := l.waiters[0]
		if l.tokens < head.cost+l.minReserve {
			return
		}
		l.tokens -= head.cost
		l.waiters = l.waiters[1:]
		close(head.ready)
	}
}

// scheduleLocked refills, admits what it can, and arms a timer for the
// moment the head waiter's tokens will have accrued.
func (l *Limiter) scheduleLocked() {
	l.refillLocked()
	l.admitLocked()
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	if len(l.waiters) == 0 {
		return
	}
	needed := l.waiters[0].cost + l.minReserve - l.tokens
	delay := time.Duration(needed / l.refillRate * float64(time.Second))
	if delay < 10*time.Millisecond {
		delay = 10 * time.Millisecond
	}
	l.timer = time.AfterFunc(delay, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.timer = nil
		l.scheduleLocked()
	})
}
