package core

import (
	"sync"
	"testing"
)

func TestTagLocksMutualExclusion(t *testing.T) {
	locks := newTagLocks()

	const workers = 32
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.acquire("legacy/1")
			defer release()
			counter++ // data race here would trip -race
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Errorf("counter = %d, want %d", counter, workers)
	}
}

func TestTagLocksIndependentTags(t *testing.T) {
	locks := newTagLocks()

	releaseA := locks.acquire("legacy/a")
	done := make(chan struct{})
	go func() {
		// Must not block on a different tag.
		release := locks.acquire("legacy/b")
		release()
		close(done)
	}()
	<-done
	releaseA()
}

func TestTagLocksEntryRemovedAfterRelease(t *testing.T) {
	locks := newTagLocks()

	release := locks.acquire("legacy/1")
	release()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	if len(locks.locks) != 0 {
		t.Errorf("lock table has %d entries after release, want 0", len(locks.locks))
	}
}

func TestTagLocksEntryKeptWhileContended(t *testing.T) {
	locks := newTagLocks()

	release := locks.acquire("legacy/1")

	acquired := make(chan func())
	go func() {
		acquired <- locks.acquire("legacy/1")
	}()

	// Wait until the second acquire has registered its reference.
	for {
		locks.mu.Lock()
		l, ok := locks.locks["legacy/1"]
		refs := 0
		if ok {
			refs = l.refs
		}
		locks.mu.Unlock()
		if refs == 2 {
			break
		}
	}

	release()
	secondRelease := <-acquired
	secondRelease()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	if len(locks.locks) != 0 {
		t.Errorf("lock table has %d entries after both releases, want 0", len(locks.locks))
	}
}
