package service

import "sync"

// Every ledger/chat-log mutation is a full read-modify-write of one store
// key, so writers of the same key must take turns. Locks are shared process
// wide, keyed by store key.
var (
	keyLocksMu sync.Mutex
	keyLocks   = map[string]*sync.Mutex{}
)

func lockForKey(key string) *sync.Mutex {
	keyLocksMu.Lock()
	defer keyLocksMu.Unlock()

	if mu, ok := keyLocks[key]; ok {
		return mu
	}

	mu := &sync.Mutex{}
	keyLocks[key] = mu
	return mu
}
