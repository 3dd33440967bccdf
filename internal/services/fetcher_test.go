package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"nft-marketplace-api/internal/config"
	"nft-marketplace-api/internal/models"
	"nft-marketplace-api/pkg/cache"
	"nft-marketplace-api/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockIndexer implements IndexerInterface for testing
type mockIndexer struct {
	mu         sync.Mutex
	assets     []IndexedAsset
	err        error
	lastMethod string
	lastOwner  string
	lastGroup  string
}

func (m *mockIndexer) AssetsByGroup(ctx context.Context, groupID string, page, limit int) ([]IndexedAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastMethod = "group"
	m.lastGroup = groupID
	return m.assets, m.err
}

func (m *mockIndexer) AssetsByOwner(ctx context.Context, owner string, page, limit int) ([]IndexedAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastMethod = "owner"
	m.lastOwner = owner
	return m.assets, m.err
}

func (m *mockIndexer) calledMethod() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastMethod
}

// mockPricing implements PricingInterface for testing
type mockPricing struct {
	floor float64
	err   error
}

func (m *mockPricing) FloorPrice(ctx context.Context, collection string) (float64, error) {
	return m.floor, m.err
}

func testAsset(id, name, image string) IndexedAsset {
	var a IndexedAsset
	a.ID = id
	a.Content.Metadata.Name = name
	a.Content.Metadata.Image = image
	return a
}

func newTestFetcher(indexer IndexerInterface, pricing PricingInterface) (*FeedFetcher, *cache.FeedCache, *metrics.MetricsCollector) {
	feedCache := cache.New(time.Minute, nil)
	collector := metrics.NewMetricsCollector()

	indexerCfg := &config.IndexerConfig{
		Timeout:   time.Second,
		PageSize:  12,
		IPFSProxy: "https://ipfs.io/ipfs/",
	}
	feedCfg := &config.FeedConfig{
		SyntheticCount:   9,
		PlaceholderImage: "https://picsum.photos/seed/%s/400/400",
		WatchedWallets:   []string{"wallet-1"},
		DefaultGroupID:   "test-group",
	}

	fetcher := NewFeedFetcher(indexer, pricing, nil, feedCache, collector, indexerCfg, feedCfg)
	return fetcher, feedCache, collector
}

func TestFeedFetcherFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("IndexerFailureNeverErrors", func(t *testing.T) {
		indexer := &mockIndexer{err: errors.New("indexer down")}
		fetcher, feedCache, collector := newTestFetcher(indexer, &mockPricing{})

		cards := fetcher.Fetch(ctx, models.FeedFilter{Tab: models.TabTrending, Chain: "all"})

		require.NotEmpty(t, cards)
		assert.Len(t, cards, 9)
		for _, card := range cards {
			assert.NoError(t, card.Validate())
		}

		m := collector.GetMetrics()
		assert.Equal(t, int64(1), m.FetchFallbacks)
		assert.Equal(t, int64(1), m.FetchFailures)

		// Fallback results are cached like primary ones, so the next cold
		// start paints instantly instead of blocking on a miss
		entry, ok := feedCache.Read()
		require.True(t, ok)
		assert.Len(t, entry.Cards, 9)
	})

	t.Run("EmptyResultFallsBack", func(t *testing.T) {
		indexer := &mockIndexer{assets: nil}
		fetcher, feedCache, collector := newTestFetcher(indexer, &mockPricing{})

		cards := fetcher.Fetch(ctx, models.FeedFilter{Tab: models.TabGradually})

		require.NotEmpty(t, cards)
		assert.Equal(t, int64(1), collector.GetMetrics().FetchFallbacks)

		entry, ok := feedCache.Read()
		require.True(t, ok)
		assert.Len(t, entry.Cards, len(cards))
	})

	t.Run("MintedTabGeneratesAllSold", func(t *testing.T) {
		indexer := &mockIndexer{err: errors.New("down")}
		fetcher, _, _ := newTestFetcher(indexer, &mockPricing{})

		cards := fetcher.Fetch(ctx, models.FeedFilter{Tab: models.TabMinted})

		require.NotEmpty(t, cards)
		for _, card := range cards {
			assert.Equal(t, models.StatusSold, card.Status)
		}
	})

	t.Run("GraduallyTabProgressRange", func(t *testing.T) {
		indexer := &mockIndexer{err: errors.New("down")}
		fetcher, _, _ := newTestFetcher(indexer, &mockPricing{})

		cards := fetcher.Fetch(ctx, models.FeedFilter{Tab: models.TabGradually})

		require.NotEmpty(t, cards)
		for _, card := range cards {
			require.Equal(t, models.StatusProgress, card.Status)
			require.NotNil(t, card.Progress)
			assert.GreaterOrEqual(t, *card.Progress, 20)
			assert.LessOrEqual(t, *card.Progress, 90)
		}
	})
}

func TestFeedFetcherPrimary(t *testing.T) {
	ctx := context.Background()

	t.Run("NormalizesAssets", func(t *testing.T) {
		indexer := &mockIndexer{assets: []IndexedAsset{
			testAsset("asset-1", "Fox #1", "https://img.example/1.png"),
			testAsset("asset-2", "Fox #2", "ipfs://bafyhash/2.png"),
			testAsset("asset-3", "", ""),
		}}
		fetcher, feedCache, collector := newTestFetcher(indexer, &mockPricing{floor: 2.5})

		cards := fetcher.Fetch(ctx, models.FeedFilter{Tab: models.TabTrending, Chain: "all"})

		require.Len(t, cards, 3)
		for _, card := range cards {
			assert.NoError(t, card.Validate())
		}

		assert.Equal(t, "asset-1", cards[0].ID)
		assert.Equal(t, "https://img.example/1.png", cards[0].Image)
		assert.Equal(t, "https://ipfs.io/ipfs/bafyhash/2.png", cards[1].Image)

		// Missing name and image get stand-ins
		assert.Equal(t, "Untitled #3", cards[2].Title)
		assert.Contains(t, cards[2].Image, "picsum.photos")

		// Floor-derived prices stay at or above the floor
		for _, card := range cards {
			assert.GreaterOrEqual(t, card.Price, 2.5)
		}

		// Primary results are cached
		entry, ok := feedCache.Read()
		require.True(t, ok)
		assert.Len(t, entry.Cards, 3)

		m := collector.GetMetrics()
		assert.Equal(t, int64(1), m.FetchCalls)
		assert.Equal(t, int64(0), m.FetchFallbacks)
	})

	t.Run("SanitizesMarkup", func(t *testing.T) {
		indexer := &mockIndexer{assets: []IndexedAsset{
			testAsset("asset-1", `<script>alert(1)</script>Fox`, ""),
		}}
		fetcher, _, _ := newTestFetcher(indexer, &mockPricing{})

		cards := fetcher.Fetch(ctx, models.FeedFilter{Tab: models.TabTrending})

		require.Len(t, cards, 1)
		assert.False(t, strings.Contains(cards[0].Title, "<"))
		assert.Contains(t, cards[0].Title, "Fox")
	})

	t.Run("FloorPriceFailureTolerated", func(t *testing.T) {
		indexer := &mockIndexer{assets: []IndexedAsset{
			testAsset("asset-1", "Fox", ""),
		}}
		fetcher, _, collector := newTestFetcher(indexer, &mockPricing{err: errors.New("pricing down")})

		cards := fetcher.Fetch(ctx, models.FeedFilter{Tab: models.TabTrending})

		require.Len(t, cards, 1)
		assert.Greater(t, cards[0].Price, 0.0)
		assert.Equal(t, int64(0), collector.GetMetrics().FetchFallbacks)
	})

	t.Run("WatchlistRoutesToOwnerQuery", func(t *testing.T) {
		indexer := &mockIndexer{assets: []IndexedAsset{
			testAsset("asset-1", "Fox", ""),
		}}
		fetcher, _, _ := newTestFetcher(indexer, &mockPricing{})

		fetcher.Fetch(ctx, models.FeedFilter{Tab: models.TabWatchlist})
		assert.Equal(t, "owner", indexer.calledMethod())

		fetcher.Fetch(ctx, models.FeedFilter{Tab: models.TabTrending})
		assert.Equal(t, "group", indexer.calledMethod())
	})
}
