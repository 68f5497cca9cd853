package ledger

import "sync"

// accountLocks hands out one mutex per account id. Holding the account's
// mutex across the read-check-write span of an operation is what makes
// operations on the same account serializable; operations on different
// accounts proceed in parallel.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]*sync.Mutex)}
}

// forAccount returns the mutex for uid, creating it on first use.
// Locks are never removed; the registry grows with the set of active
// accounts, which is bounded by the user table.
func (a *accountLocks) forAccount(uid string) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()

	lock, ok := a.locks[uid]
	if !ok {
		lock = &sync.Mutex{}
		a.locks[uid] = lock
	}
	return lock
}
