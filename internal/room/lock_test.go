package room

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	locks := newKeyedMutex()

	const workers = 50
	counter := 0
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			unlock := locks.Lock("room-1")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	require.Equal(t, workers, counter)
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	locks := newKeyedMutex()

	unlockA := locks.Lock("room-a")
	// Holding room-a must not block room-b.
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("room-b")
		unlockB()
		close(done)
	}()
	<-done
	unlockA()
}

func TestKeyedMutexReleasesEntries(t *testing.T) {
	locks := newKeyedMutex()

	unlock := locks.Lock("room-1")
	locks.mu.Lock()
	require.Len(t, locks.locks, 1)
	locks.mu.Unlock()
	unlock()

	// Entries are refcounted away once nobody holds or waits on the key.
	locks.mu.Lock()
	require.Empty(t, locks.locks)
	locks.mu.Unlock()
}
