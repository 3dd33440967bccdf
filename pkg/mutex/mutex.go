package mutex

import (
	"sync"
	"time"
)

// KeyedMutex hands out one mutex per key, used to serialize mint attempts on
// the same card while leaving other cards independent.
type KeyedMutex struct {
	mutexes    map[string]*mutexEntry
	mapMutex   sync.RWMutex
	cleanupTTL time.Duration
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// mutexEntry holds a mutex and its last access time for cleanup
type mutexEntry struct {
	mutex      *sync.Mutex
	lastAccess time.Time
}

// New creates a KeyedMutex with automatic cleanup of idle entries
func New(cleanupTTL time.Duration) *KeyedMutex {
	km := &KeyedMutex{
		mutexes:    make(map[string]*mutexEntry),
		cleanupTTL: cleanupTTL,
		stopCh:     make(chan struct{}),
	}

	go km.cleanup()

	return km
}

// GetMutex returns the mutex for key, creating it on first use
func (km *KeyedMutex) GetMutex(key string) *sync.Mutex {
	km.mapMutex.RLock()
	if entry, exists := km.mutexes[key]; exists {
		entry.lastAccess = time.Now()
		km.mapMutex.RUnlock()
		return entry.mutex
	}
	km.mapMutex.RUnlock()

	km.mapMutex.Lock()
	defer km.mapMutex.Unlock()

	// Another goroutine may have created it between the two locks
	if entry, exists := km.mutexes[key]; exists {
		entry.lastAccess = time.Now()
		return entry.mutex
	}

	entry := &mutexEntry{
		mutex:      &sync.Mutex{},
		lastAccess: time.Now(),
	}
	km.mutexes[key] = entry

	return entry.mutex
}

// Size returns the number of mutexes currently tracked
func (km *KeyedMutex) Size() int {
	km.mapMutex.RLock()
	defer km.mapMutex.RUnlock()
	return len(km.mutexes)
}

// cleanup runs periodically to drop idle mutexes and bound memory
func (km *KeyedMutex) cleanup() {
	ticker := time.NewTicker(km.cleanupTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			km.removeIdle()
		case <-km.stopCh:
			return
		}
	}
}

// removeIdle removes mutexes that are unlocked and past the idle TTL
func (km *KeyedMutex) removeIdle() {
	km.mapMutex.Lock()
	defer km.mapMutex.Unlock()

	now := time.Now()
	for key, entry := range km.mutexes {
		if now.Sub(entry.lastAccess) > km.cleanupTTL {
			if entry.mutex.TryLock() {
				entry.mutex.Unlock()
				delete(km.mutexes, key)
			}
		}
	}
}

// Stop stops the cleanup goroutine
func (km *KeyedMutex) Stop() {
	km.stopOnce.Do(func() {
		close(km.stopCh)
	})
}
