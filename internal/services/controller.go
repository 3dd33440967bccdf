package services

import (
	"context"
	"sync"
	"sync/atomic"

	"nft-marketplace-api/internal/config"
	"nft-marketplace-api/internal/models"
	"nft-marketplace-api/pkg/cache"
	"nft-marketplace-api/pkg/logger"
	"nft-marketplace-api/pkg/metrics"

	"go.uber.org/zap"
)

// FeedController owns the feed view state: active tab, active chain, the
// loading flag and the visible card list. Filter changes start background
// refreshes; a sequence number guards against an older fetch overwriting a
// newer one when responses complete out of order.
type FeedController struct {
	fetcher   FetcherInterface
	feedCache *cache.FeedCache
	collector *metrics.MetricsCollector
	logger    *logger.Logger

	mutex       sync.RWMutex
	activeTab   models.CategoryTab
	activeChain string
	isLoading   bool
	cards       []models.Card

	// fetchSeq increases once per started fetch; only the fetch holding the
	// newest sequence number may publish its result
	fetchSeq atomic.Uint64

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewFeedController creates a controller with the configured initial filter
func NewFeedController(
	fetcher FetcherInterface,
	feedCache *cache.FeedCache,
	collector *metrics.MetricsCollector,
	feedCfg *config.FeedConfig,
) *FeedController {
	ctx, cancel := context.WithCancel(context.Background())

	tab, err := models.ParseTab(feedCfg.DefaultTab)
	if err != nil {
		tab = models.TabTrending
	}

	return &FeedController{
		fetcher:     fetcher,
		feedCache:   feedCache,
		collector:   collector,
		logger:      logger.GetLogger(),
		activeTab:   tab,
		activeChain: feedCfg.DefaultChain,
		baseCtx:     ctx,
		cancel:      cancel,
	}
}

// Start populates the initial card list. A valid cached snapshot is shown
// immediately and silently revalidated in the background; a cache miss
// blocks until the first fetch completes so the caller never sees an empty
// feed without the loading flag having been up.
func (c *FeedController) Start(ctx context.Context) {
	if entry, ok := c.feedCache.Read(); ok {
		c.collector.RecordCacheHit()

		c.mutex.Lock()
		c.cards = entry.Cards
		c.mutex.Unlock()

		c.logger.Info("Feed restored from cache",
			zap.Int("cards", len(entry.Cards)),
			zap.Time("cached_at", entry.Timestamp),
		)

		c.refreshAsync(false)
		return
	}

	c.collector.RecordCacheMiss()
	c.refreshBlocking(ctx, true)
}

// Snapshot returns a copy of the current view state
func (c *FeedController) Snapshot() models.FeedState {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	cards := make([]models.Card, len(c.cards))
	copy(cards, c.cards)

	return models.FeedState{
		ActiveTab:   c.activeTab,
		ActiveChain: c.activeChain,
		IsLoading:   c.isLoading,
		Cards:       cards,
	}
}

// SetTab switches the active category and starts a refresh. The previous
// card list stays visible under the loading flag until new data lands.
func (c *FeedController) SetTab(ctx context.Context, tab models.CategoryTab) {
	c.mutex.Lock()
	if c.activeTab == tab {
		c.mutex.Unlock()
		return
	}
	c.activeTab = tab
	c.mutex.Unlock()

	c.refreshAsync(true)
}

// SetChain switches the active chain filter and starts a refresh
func (c *FeedController) SetChain(ctx context.Context, chain string) {
	c.mutex.Lock()
	if c.activeChain == chain {
		c.mutex.Unlock()
		return
	}
	c.activeChain = chain
	c.mutex.Unlock()

	c.refreshAsync(true)
}

// Refresh re-fetches the current filter. force raises the loading flag;
// otherwise the swap is silent.
func (c *FeedController) Refresh(ctx context.Context, force bool) {
	c.refreshAsync(force)
}

// CardByID finds a card in the current list
func (c *FeedController) CardByID(id string) (models.Card, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	for _, card := range c.cards {
		if card.ID == id {
			return card, true
		}
	}
	return models.Card{}, false
}

// Close stops background refreshes and waits for in-flight ones to finish
func (c *FeedController) Close() {
	c.cancel()
	c.wg.Wait()
}

// refreshAsync starts a fetch for the current filter without blocking the
// caller. The sequence number is claimed before the goroutine is spawned so
// that call order, not scheduling order, decides which fetch is newest. Runs
// on the controller's lifetime context, not the request's.
func (c *FeedController) refreshAsync(showLoading bool) {
	seq := c.fetchSeq.Add(1)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runFetch(c.baseCtx, seq, showLoading)
	}()
}

// refreshBlocking performs one fetch-and-publish cycle synchronously
func (c *FeedController) refreshBlocking(ctx context.Context, showLoading bool) {
	c.runFetch(ctx, c.fetchSeq.Add(1), showLoading)
}

// runFetch performs one fetch-and-publish cycle. At publish time the claimed
// sequence number decides whether the result is still the newest; losers are
// dropped so a slow older fetch can never overwrite a newer one.
func (c *FeedController) runFetch(ctx context.Context, seq uint64, showLoading bool) {
	c.mutex.Lock()
	if showLoading {
		c.isLoading = true
	}
	filter := models.FeedFilter{Tab: c.activeTab, Chain: c.activeChain}
	c.mutex.Unlock()

	cards := c.fetcher.Fetch(ctx, filter)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if seq != c.fetchSeq.Load() {
		c.collector.RecordStaleFetchDropped()
		c.logger.Debug("Dropping stale fetch result",
			zap.Uint64("seq", seq),
			zap.Uint64("latest", c.fetchSeq.Load()),
			zap.String("tab", string(filter.Tab)),
		)
		return
	}

	c.cards = cards
	c.isLoading = false
}
