package service

import "sync"

// serialLocks — пер-серийная сериализация публикаций. Запись живет только на
// время публикаций, удерживающих или ожидающих замок: разные серийники
// публикуются параллельно, один и тот же — строго по очереди.
type serialLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newSerialLocks() *serialLocks {
	return &serialLocks{entries: make(map[string]*lockEntry)}
}

func (l *serialLocks) lock(serial string) {
	l.mu.Lock()
	e, ok := l.entries[serial]
	if !ok {
		e = &lockEntry{}
		l.entries[serial] = e
	}
	e.refs++
	l.mu.Unlock()
	e.mu.Lock()
}

func (l *serialLocks) unlock(serial string) {
	l.mu.Lock()
	e := l.entries[serial]
	e.refs--
	if e.refs == 0 {
		delete(l.entries, serial)
	}
	l.mu.Unlock()
	e.mu.Unlock()
}
