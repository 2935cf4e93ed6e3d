package cache

import (
	"hash/fnv"
	"slices"
	"sync"
)

// DefaultLockStripes is the stripe count used when NewStore is not given one.
const DefaultLockStripes = 32

// KeyedLocks hands out reader/writer locks for arbitrary keys from a fixed
// set of stripes. Unrelated keys may share a stripe and contend with each
// other; the number of mutexes never grows with the key space.
type KeyedLocks struct {
	stripes []sync.RWMutex
}

// NewKeyedLocks returns a lock set with n stripes. n <= 0 selects
// DefaultLockStripes.
func NewKeyedLocks(n int) *KeyedLocks {
	if n <= 0 {
		n = DefaultLockStripes
	}
	return &KeyedLocks{stripes: make([]sync.RWMutex, n)}
}

// Stripe returns the stripe index for key. The mapping is stable for the
// lifetime of the process.
func (l *KeyedLocks) Stripe(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(l.stripes)))
}

// RLock acquires the read side of key's stripe and returns its release func.
func (l *KeyedLocks) RLock(key string) (unlock func()) {
	mu := &l.stripes[l.Stripe(key)]
	mu.RLock()
	return mu.RUnlock
}

// Lock acquires the write side of key's stripe and returns its release func.
func (l *KeyedLocks) Lock(key string) (unlock func()) {
	mu := &l.stripes[l.Stripe(key)]
	mu.Lock()
	return mu.Unlock
}

// RLockAll read-locks the stripes of every key. Stripes are de-duplicated
// and taken in ascending order so that overlapping batches from different
// goroutines cannot deadlock, whatever order the caller listed the keys in.
// If acquisition panics, every stripe already held is released first.
func (l *KeyedLocks) RLockAll(keys []string) (unlock func()) {
	idx := make([]int, 0, len(keys))
	for _, key := range keys {
		idx = append(idx, l.Stripe(key))
	}
	slices.Sort(idx)
	idx = slices.Compact(idx)

	held := 0
	defer func() {
		if held == len(idx) {
			return
		}
		for i := held - 1; i >= 0; i-- {
			l.stripes[idx[i]].RUnlock()
		}
	}()
	for _, i := range idx {
		l.stripes[i].RLock()
		held++
	}

	return func() {
		for i := len(idx) - 1; i >= 0; i-- {
			l.stripes[idx[i]].RUnlock()
		}
	}
}
