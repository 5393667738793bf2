package payments

import "sync"

// paymentLocks hands out one exclusive lock per payment id. Entries are
// reference counted and removed once the last holder releases, so the map
// stays bounded by the number of in-flight verifications.
type paymentLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newPaymentLocks() *paymentLocks {
	return &paymentLocks{locks: make(map[string]*lockEntry)}
}

// acquire blocks until the caller exclusively holds paymentId. The returned
// release function must be called exactly once.
func (l *paymentLocks) acquire(paymentId string) func() {
	l.mu.Lock()
	entry, ok := l.locks[paymentId]
	if !ok {
		entry = &lockEntry{}
		l.locks[paymentId] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, paymentId)
		}
		l.mu.Unlock()
	}
}
