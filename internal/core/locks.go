package core

import "sync"

// tagLocks serializes the check-then-mark window per origin tag so two
// concurrent imports of the same tag cannot both pass the duplicate check
// before either marks it admitted. Entries are reference counted and removed
// when the last holder releases.
type tagLocks struct {
	mu    sync.Mutex
	locks map[string]*tagLock
}

type tagLock struct {
	mu   sync.Mutex
	refs int
}

func newTagLocks() *tagLocks {
	return &tagLocks{locks: make(map[string]*tagLock)}
}

// acquire blocks until the tag's lock is held and returns the release func.
func (t *tagLocks) acquire(tag string) func() {
	t.mu.Lock()
	l, ok := t.locks[tag]
	if !ok {
		l = &tagLock{}
		t.locks[tag] = l
	}
	l.refs++
	t.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		t.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(t.locks, tag)
		}
		t.mu.Unlock()
	}
}
