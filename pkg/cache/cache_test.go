package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"nft-marketplace-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore returns errors from every operation
type failingStore struct{}

func (s *failingStore) Load(ctx context.Context) ([]byte, error) {
	return nil, errors.New("load failed")
}

func (s *failingStore) Save(ctx context.Context, data []byte) error {
	return errors.New("save failed")
}

// corruptStore returns data that does not decode as a cache entry
type corruptStore struct{}

func (s *corruptStore) Load(ctx context.Context) ([]byte, error) {
	return []byte("{not json"), nil
}

func (s *corruptStore) Save(ctx context.Context, data []byte) error {
	return nil
}

func testCards(n int) []models.Card {
	cards := make([]models.Card, 0, n)
	for i := 0; i < n; i++ {
		cards = append(cards, models.Card{
			ID:     string(rune('a' + i)),
			Title:  "Card",
			Price:  10,
			Status: models.StatusMinting,
			Rating: 3,
		})
	}
	return cards
}

func TestFeedCache(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyCacheMisses", func(t *testing.T) {
		c := New(time.Minute, nil)

		entry, ok := c.Read()
		assert.False(t, ok)
		assert.Nil(t, entry)
	})

	t.Run("WriteThenRead", func(t *testing.T) {
		c := New(time.Minute, nil)
		c.Write(ctx, testCards(3))

		entry, ok := c.Read()
		require.True(t, ok)
		assert.Len(t, entry.Cards, 3)
		assert.WithinDuration(t, time.Now(), entry.Timestamp, time.Second)
	})

	t.Run("ExpiredEntryMisses", func(t *testing.T) {
		c := New(10*time.Millisecond, nil)
		c.Write(ctx, testCards(2))

		time.Sleep(20 * time.Millisecond)

		_, ok := c.Read()
		assert.False(t, ok)
	})

	t.Run("WriteOverwritesSlot", func(t *testing.T) {
		c := New(time.Minute, nil)
		c.Write(ctx, testCards(5))
		c.Write(ctx, testCards(2))

		entry, ok := c.Read()
		require.True(t, ok)
		assert.Len(t, entry.Cards, 2)
	})

	t.Run("ReadReturnsCopy", func(t *testing.T) {
		c := New(time.Minute, nil)
		c.Write(ctx, testCards(2))

		entry, ok := c.Read()
		require.True(t, ok)
		entry.Cards[0].Title = "mutated"

		again, ok := c.Read()
		require.True(t, ok)
		assert.Equal(t, "Card", again.Cards[0].Title)
	})
}

func TestFeedCachePersistence(t *testing.T) {
	ctx := context.Background()

	t.Run("RestoresFromStore", func(t *testing.T) {
		store := NewMemoryStore()

		first := New(time.Minute, store)
		first.Write(ctx, testCards(4))

		second := New(time.Minute, store)
		entry, ok := second.Read()
		require.True(t, ok)
		assert.Len(t, entry.Cards, 4)
	})

	t.Run("ExpiredPersistedEntryMisses", func(t *testing.T) {
		store := NewMemoryStore()

		first := New(10*time.Millisecond, store)
		first.Write(ctx, testCards(1))

		time.Sleep(20 * time.Millisecond)

		second := New(10*time.Millisecond, store)
		_, ok := second.Read()
		assert.False(t, ok)
	})

	t.Run("CorruptStoreFailsOpen", func(t *testing.T) {
		c := New(time.Minute, &corruptStore{})

		_, ok := c.Read()
		assert.False(t, ok)

		// Slot still works after the failed restore
		c.Write(ctx, testCards(1))
		entry, ok := c.Read()
		require.True(t, ok)
		assert.Len(t, entry.Cards, 1)
	})

	t.Run("FailingStoreNeverFailsWrites", func(t *testing.T) {
		c := New(time.Minute, &failingStore{})

		c.Write(ctx, testCards(2))

		entry, ok := c.Read()
		require.True(t, ok)
		assert.Len(t, entry.Cards, 2)
	})
}
