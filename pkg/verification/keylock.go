package verification

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// KeyLock serializes code issue/send sequences per (subject, purpose) so a
// CanSend check and the Issue it authorizes cannot interleave with another
// request for the same pair. Operations on different pairs are independent.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyLock creates an empty keyed lock set.
func NewKeyLock() *KeyLock {
	return &KeyLock{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for (subject, purpose) and returns its unlock
// function.
func (k *KeyLock) Lock(subjectID uuid.UUID, purpose Purpose) func() {
	key := fmt.Sprintf("%s/%s", subjectID, purpose)

	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
