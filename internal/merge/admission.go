package merge

import (
	"context"
	"fmt"
	"sync"
)

// Admission gates merge jobs on a shared memory budget. Admit blocks until
// the requested cost fits the remaining budget, in strict FIFO order among
// waiting callers: a large job at the head of the queue is never overtaken by
// smaller jobs behind it, so it cannot starve.
//
// One Admission instance is constructed per pipeline run and handed to every
// worker; there is no process-global budget.
type Admission struct {
	mu        sync.Mutex
	total     int64
	available int64
	waiters   []*waiter
}

type waiter struct {
	cost    int64
	granted bool
	ready   chan struct{}
}

// Token represents one admitted reservation. Release it exactly once; extra
// releases are ignored rather than inflating the budget.
type Token struct {
	a        *Admission
	cost     int64
	released bool
}

// NewAdmission creates an Admission with the given total budget in bytes.
func NewAdmission(total int64) (*Admission, error) {
	if total <= 0 {
		return nil, fmt.Errorf("merge: admission budget must be positive, got %d", total)
	}
	return &Admission{total: total, available: total}, nil
}

// Total returns the configured budget.
func (a *Admission) Total() int64 { return a.total }

// Available returns the currently unreserved budget.
func (a *Admission) Available() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.available
}

// Admit blocks until cost fits the remaining budget, then reserves it and
// returns a Token. A cost larger than the total budget fails immediately with
// UnschedulableError. Cancelling ctx abandons the wait.
func (a *Admission) Admit(ctx context.Context, cost int64) (*Token, error) {
	if cost <= 0 {
		return nil, fmt.Errorf("merge: admission cost must be positive, got %d", cost)
	}
	if cost > a.total {
		return nil, &UnschedulableError{Cost: cost, Total: a.total}
	}

	w := &waiter{cost: cost, ready: make(chan struct{})}

	a.mu.Lock()
	a.waiters = append(a.waiters, w)
	a.grantFromHead()
	granted := w.granted
	a.mu.Unlock()

	if granted {
		return &Token{a: a, cost: cost}, nil
	}

	select {
	case <-w.ready:
		return &Token{a: a, cost: cost}, nil
	case <-ctx.Done():
		a.mu.Lock()
		if w.granted {
			// Lost the race against a concurrent grant: hand the budget back.
			a.available += w.cost
			a.grantFromHead()
			a.mu.Unlock()
			return nil, ctx.Err()
		}
		a.remove(w)
		a.grantFromHead()
		a.mu.Unlock()
		return nil, ctx.Err()
	}
}

// Release returns the token's reservation to the budget and wakes any waiter
// that now fits. Safe to call more than once.
func (t *Token) Release() {
	t.a.mu.Lock()
	defer t.a.mu.Unlock()
	if t.released {
		return
	}
	t.released = true
	t.a.available += t.cost
	t.a.grantFromHead()
}

// grantFromHead admits queued waiters strictly from the front, stopping at
// the first one that does not fit. Caller holds a.mu.
func (a *Admission) grantFromHead() {
	for len(a.waiters) > 0 {
		head := a.waiters[0]
		if head.cost > a.available {
			return
		}
		a.available -= head.cost
		head.granted = true
		close(head.ready)
		a.waiters = a.waiters[1:]
	}
}

// remove drops w from the wait queue if it is still queued. Caller holds a.mu.
func (a *Admission) remove(w *waiter) {
	for i, queued := range a.waiters {
		if queued == w {
			a.waiters = append(a.waiters[:i], a.waiters[i+1:]...)
			return
		}
	}
}
