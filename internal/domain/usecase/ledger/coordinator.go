package ledger

import (
	"sort"
	"sync"

	"github.com/sasha-s/go-deadlock"
)

// LockCoordinator serializes in-process ledger operations per account.
// It keeps one mutex per account number, created lazily on first use and
// retained for the process lifetime. When an operation spans two accounts
// the locks are always taken in lexicographic account-number order, so two
// concurrent transfers over overlapping accounts can never circular-wait.
//
// The coordinator is an explicitly owned component: construct one per
// process (or per test) and inject it into the ledger service. The row-level
// locks taken inside the durable scope remain the authoritative guard; this
// layer cheaply serializes same-process callers before they reach the store.
type LockCoordinator struct {
	mu    deadlock.Mutex
	table map[string]*deadlock.Mutex
}

// NewLockCoordinator creates an empty lock coordinator
func NewLockCoordinator() *LockCoordinator {
	return &LockCoordinator{
		table: make(map[string]*deadlock.Mutex),
	}
}

// Acquire blocks until exclusive locks on all given account numbers are
// held and returns the release function. Empty identifiers are skipped and
// duplicates are locked once, so single-account operations can pass the
// other identifier as "". The returned release unlocks in inverse
// acquisition order and is idempotent: calling it more than once, or on a
// lock already released, is a no-op.
func (c *LockCoordinator) Acquire(numbers ...string) (release func()) {
	distinct := make([]string, 0, len(numbers))
	seen := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		distinct = append(distinct, n)
	}

	// Canonical lock order: lexicographic over account numbers
	sort.Strings(distinct)

	held := make([]*deadlock.Mutex, 0, len(distinct))
	for _, n := range distinct {
		m := c.lockFor(n)
		m.Lock()
		held = append(held, m)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(held) - 1; i >= 0; i-- {
				held[i].Unlock()
			}
		})
	}
}

// lockFor returns the mutex for an account number, creating it on first use
func (c *LockCoordinator) lockFor(number string) *deadlock.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.table[number]
	if !ok {
		m = &deadlock.Mutex{}
		c.table[number] = m
	}
	return m
}
