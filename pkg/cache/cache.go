package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"nft-marketplace-api/internal/models"
)

// Store persists the serialized feed snapshot so it survives a process
// restart. Load returns (nil, nil) when no snapshot exists.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// FeedCache is a single-slot, time-boxed store of the last fetched card
// list. There is deliberately no per-filter partitioning and no eviction
// beyond the TTL: a hit means "some recent feed", not "the feed for the
// current filter".
type FeedCache struct {
	mutex sync.RWMutex
	entry *models.FeedCacheEntry
	ttl   time.Duration
	store Store
}

// New creates a FeedCache with the given TTL. When a durable store is
// provided, any previously persisted snapshot is loaded into the slot;
// unreadable or corrupt data is treated as a miss, never an error.
func New(ttl time.Duration, store Store) *FeedCache {
	c := &FeedCache{
		ttl:   ttl,
		store: store,
	}
	c.restore()
	return c
}

// Read returns the stored entry only while it is valid. Side-effect free.
func (c *FeedCache) Read() (*models.FeedCacheEntry, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.entry == nil {
		return nil, false
	}
	if time.Since(c.entry.Timestamp) >= c.ttl {
		return nil, false
	}

	// Copy the slice header contents so callers cannot mutate the slot
	cards := make([]models.Card, len(c.entry.Cards))
	copy(cards, c.entry.Cards)

	return &models.FeedCacheEntry{
		Timestamp: c.entry.Timestamp,
		Cards:     cards,
	}, true
}

// Write overwrites the single slot with a fresh entry and persists it.
// Persistence is best effort: a failing store never fails the write.
func (c *FeedCache) Write(ctx context.Context, cards []models.Card) {
	snapshot := make([]models.Card, len(cards))
	copy(snapshot, cards)

	entry := &models.FeedCacheEntry{
		Timestamp: time.Now(),
		Cards:     snapshot,
	}

	c.mutex.Lock()
	c.entry = entry
	c.mutex.Unlock()

	if c.store == nil {
		return
	}
	if data, err := json.Marshal(entry); err == nil {
		_ = c.store.Save(ctx, data)
	}
}

// restore loads a persisted snapshot into the slot, failing open on any error
func (c *FeedCache) restore() {
	if c.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := c.store.Load(ctx)
	if err != nil || len(data) == 0 {
		return
	}

	var entry models.FeedCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return
	}
	if entry.Timestamp.IsZero() {
		return
	}

	c.mutex.Lock()
	c.entry = &entry
	c.mutex.Unlock()
}

// MemoryStore is an in-process Store used in tests and when MongoDB is not
// configured.
type MemoryStore struct {
	mutex sync.Mutex
	data  []byte
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored snapshot
func (s *MemoryStore) Load(ctx context.Context) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.data, nil
}

// Save overwrites the stored snapshot
func (s *MemoryStore) Save(ctx context.Context, data []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.data = append([]byte(nil), data...)
	return nil
}
