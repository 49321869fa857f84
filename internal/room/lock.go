package room

import "sync"

// keyedMutex serializes all mutations of a given room id. Entries are
// refcounted so the map does not grow with dead room ids.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	refs int
	mu   sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*lockEntry)}
}

// Lock acquires the mutex for key and returns its unlock func. The unlock
// must run on every exit path of the critical section.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, exist := k.locks[key]
	if !exist {
		entry = &lockEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
