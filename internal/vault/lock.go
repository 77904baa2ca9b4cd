package vault

import "sync"

// pathLocks hands out one mutex per vault path. Entries are dropped once
// no caller holds or waits on them.
type pathLocks struct {
	mu sync.Mutex
	m  map[string]*pathLock
}

type pathLock struct {
	mu   sync.Mutex
	refs int
}

func newPathLocks() *pathLocks {
	return &pathLocks{m: make(map[string]*pathLock)}
}

// lock blocks until path is free and returns the release func.
func (l *pathLocks) lock(path string) func() {
	l.mu.Lock()
	e, ok := l.m[path]
	if !ok {
		e = &pathLock{}
		l.m[path] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, path)
		}
		l.mu.Unlock()
	}
}
