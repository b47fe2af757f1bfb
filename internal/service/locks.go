package service

import (
	"sync"

	"github.com/google/uuid"
)

// debtLocks serializes payment recording per debt within this process. The
// repository's guarded balance update covers multi-instance deployments; the
// lock keeps the service-level checks from racing a concurrent writer.
type debtLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newDebtLocks() *debtLocks {
	return &debtLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

func (l *debtLocks) lock(debtID uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	m, ok := l.locks[debtID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[debtID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m
}
