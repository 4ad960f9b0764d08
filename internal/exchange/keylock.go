package exchange

import "sync"

// keyLock hands out one mutex per key. Entries are reference counted and
// dropped once nobody holds or waits for them.
type keyLock struct {
	mu    sync.Mutex
	byKey map[string]*keyEntry
}

type keyEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{byKey: make(map[string]*keyEntry)}
}

// Lock blocks until key is free and returns the function that releases it.
func (l *keyLock) Lock(key string) (unlock func()) {
	l.mu.Lock()
	e, ok := l.byKey[key]
	if !ok {
		e = &keyEntry{}
		l.byKey[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()

		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.byKey, key)
		}
		l.mu.Unlock()
	}
}

func (l *keyLock) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey)
}
