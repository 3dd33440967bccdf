package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"nft-marketplace-api/internal/config"
	"nft-marketplace-api/internal/models"
	"nft-marketplace-api/pkg/cache"
	"nft-marketplace-api/pkg/logger"
	"nft-marketplace-api/pkg/metrics"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FeedFetcher produces the card list for a feed filter. It degrades through
// three tiers and never returns an error: primary indexer data, then a
// synthetic themed list, then a static last-resort list. Every fetch writes
// its result back to the feed cache, fallback tiers included, so the next
// cold start paints from the cache instead of blocking.
type FeedFetcher struct {
	indexer    IndexerInterface
	pricing    PricingInterface
	metadata   *MetadataClient
	feedCache  *cache.FeedCache
	collector  *metrics.MetricsCollector
	indexerCfg *config.IndexerConfig
	feedCfg    *config.FeedConfig
	sanitizer  *bluemonday.Policy
	logger     *logger.Logger

	randMutex sync.Mutex
	rng       *rand.Rand
}

// NewFeedFetcher creates a feed fetcher. metadata may be nil; enrichment is
// then skipped regardless of configuration.
func NewFeedFetcher(
	indexer IndexerInterface,
	pricing PricingInterface,
	metadata *MetadataClient,
	feedCache *cache.FeedCache,
	collector *metrics.MetricsCollector,
	indexerCfg *config.IndexerConfig,
	feedCfg *config.FeedConfig,
) *FeedFetcher {
	return &FeedFetcher{
		indexer:    indexer,
		pricing:    pricing,
		metadata:   metadata,
		feedCache:  feedCache,
		collector:  collector,
		indexerCfg: indexerCfg,
		feedCfg:    feedCfg,
		sanitizer:  bluemonday.StrictPolicy(),
		logger:     logger.GetLogger(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Fetch returns cards for the filter. The returned slice is always non-nil
// and non-empty; source failures degrade to generated data instead of
// surfacing as errors.
func (f *FeedFetcher) Fetch(ctx context.Context, filter models.FeedFilter) []models.Card {
	log := f.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"tab":   string(filter.Tab),
		"chain": filter.Chain,
	})

	start := time.Now()
	assets, floor, err := f.fetchPrimary(ctx, filter)
	f.collector.RecordFetch(time.Since(start), err == nil && len(assets) > 0)

	if err != nil || len(assets) == 0 {
		if err != nil {
			log.Warn("Primary feed source failed, falling back to generated cards", zap.Error(err))
		} else {
			log.Info("Primary feed source returned no assets, falling back to generated cards")
		}
		f.collector.RecordFallback()
		return f.fallback(ctx, filter)
	}

	cards := f.normalize(ctx, filter, assets, floor)
	if len(cards) == 0 {
		f.collector.RecordFallback()
		return f.fallback(ctx, filter)
	}

	log.Info("Feed fetched from primary source",
		zap.Int("cards", len(cards)),
		zap.Duration("duration", time.Since(start)),
	)

	f.feedCache.Write(ctx, cards)
	return cards
}

// fetchPrimary queries the indexer and the floor-price API concurrently.
// A floor-price failure is tolerated; an indexer failure is not.
func (f *FeedFetcher) fetchPrimary(ctx context.Context, filter models.FeedFilter) ([]IndexedAsset, float64, error) {
	var (
		assets []IndexedAsset
		floor  float64
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		assets, err = f.fetchAssets(gctx, filter)
		return err
	})

	g.Go(func() error {
		price, err := f.pricing.FloorPrice(gctx, f.collectionSymbol(filter))
		if err != nil {
			f.logger.WithContext(gctx).Debug("Floor price lookup failed", zap.Error(err))
			return nil
		}
		floor = price
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return assets, floor, nil
}

// fetchAssets routes the filter to an owner-scoped or collection-scoped query
func (f *FeedFetcher) fetchAssets(ctx context.Context, filter models.FeedFilter) ([]IndexedAsset, error) {
	limit := f.indexerCfg.PageSize

	switch filter.Tab {
	case models.TabWatchlist, models.TabRecently:
		owner := f.watchedWallet()
		if owner == "" {
			return f.indexer.AssetsByGroup(ctx, f.feedCfg.DefaultGroupID, 1, limit)
		}
		return f.indexer.AssetsByOwner(ctx, owner, 1, limit)
	default:
		return f.indexer.AssetsByGroup(ctx, f.feedCfg.DefaultGroupID, 1, limit)
	}
}

// normalize converts raw indexer assets into validated cards. Assets that
// fail validation are dropped rather than failing the whole batch.
func (f *FeedFetcher) normalize(ctx context.Context, filter models.FeedFilter, assets []IndexedAsset, floor float64) []models.Card {
	cards := make([]models.Card, 0, len(assets))

	for i, asset := range assets {
		title := f.sanitizer.Sanitize(asset.Content.Metadata.Name)
		description := f.sanitizer.Sanitize(asset.Content.Metadata.Description)

		meta := f.enrich(ctx, &asset)
		if meta != nil {
			if title == "" {
				title = f.sanitizer.Sanitize(meta.Name)
			}
			if description == "" {
				description = f.sanitizer.Sanitize(meta.Description)
			}
		}
		if title == "" {
			title = fmt.Sprintf("Untitled #%d", i+1)
		}

		image := asset.ImageURI()
		if image == "" && meta != nil {
			image = meta.Image
		}
		image = f.resolveImage(image, i)

		status, progress := f.statusFor(filter.Tab, i)

		card := models.Card{
			ID:           asset.ID,
			Title:        title,
			Description:  description,
			Price:        f.priceFor(floor),
			Status:       status,
			Progress:     progress,
			Rating:       f.ratingFor(),
			IsBoosted:    filter.Tab == models.TabTrending,
			IsNew:        filter.Tab == models.TabRecently,
			Image:        image,
			Mint:         asset.ID,
			CollectionID: asset.Collection(),
		}
		if meta != nil && meta.ExternalURL != "" {
			card.MarketplaceURL = meta.ExternalURL
		}

		if err := card.Validate(); err != nil {
			f.logger.WithContext(ctx).Warn("Dropping invalid asset from feed",
				zap.String("asset_id", asset.ID),
				zap.Error(err),
			)
			continue
		}
		cards = append(cards, card)
	}

	return cards
}

// enrich follows the asset's off-chain metadata URI when enrichment is
// enabled. Failures degrade to the on-chain fields.
func (f *FeedFetcher) enrich(ctx context.Context, asset *IndexedAsset) *AssetMetadata {
	if !f.feedCfg.EnrichMetadata || f.metadata == nil {
		return nil
	}
	uri := asset.Content.JSONURI
	if uri == "" {
		return nil
	}

	meta, err := f.metadata.FetchMetadata(ctx, f.rewriteIPFS(uri))
	if err != nil {
		f.logger.WithContext(ctx).Debug("Metadata enrichment failed",
			zap.String("asset_id", asset.ID),
			zap.Error(err),
		)
		return nil
	}
	return meta
}

// fallback produces generated cards and caches them like primary results,
// so a fallback render still seeds the next startup
func (f *FeedFetcher) fallback(ctx context.Context, filter models.FeedFilter) []models.Card {
	cards := f.generated(filter)
	f.feedCache.Write(ctx, cards)
	return cards
}

// generated produces the synthetic list, or the static list if generation
// itself panics. The static list is the floor of the degradation chain.
func (f *FeedFetcher) generated(filter models.FeedFilter) (cards []models.Card) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("Synthetic card generation panicked, using static fallback", zap.Any("panic", r))
			cards = staticFallback(f.feedCfg.PlaceholderImage)
		}
	}()

	f.randMutex.Lock()
	cards = generateSynthetic(filter, f.feedCfg.SyntheticCount, f.feedCfg.PlaceholderImage, f.rng)
	f.randMutex.Unlock()

	if len(cards) == 0 {
		cards = staticFallback(f.feedCfg.PlaceholderImage)
	}
	return cards
}

// resolveImage rewrites ipfs:// URIs through the configured gateway and
// substitutes a deterministic placeholder when no image is available
func (f *FeedFetcher) resolveImage(uri string, index int) string {
	if uri == "" {
		return placeholderImage(f.feedCfg.PlaceholderImage, fmt.Sprintf("asset%d", index))
	}
	return f.rewriteIPFS(uri)
}

// rewriteIPFS maps ipfs:// URIs onto the configured HTTP gateway
func (f *FeedFetcher) rewriteIPFS(uri string) string {
	if strings.HasPrefix(uri, "ipfs://") {
		return f.indexerCfg.IPFSProxy + strings.TrimPrefix(uri, "ipfs://")
	}
	return uri
}

// statusFor applies the tab status heuristic under the rand lock
func (f *FeedFetcher) statusFor(tab models.CategoryTab, index int) (models.CardStatus, *int) {
	f.randMutex.Lock()
	defer f.randMutex.Unlock()
	return statusForIndex(tab, index, f.rng)
}

// priceFor derives a display price from the collection floor, or a plausible
// stand-in when no floor is known
func (f *FeedFetcher) priceFor(floor float64) float64 {
	f.randMutex.Lock()
	defer f.randMutex.Unlock()

	if floor > 0 {
		return floor + floor*f.rng.Float64()*0.5
	}
	return float64(20 + f.rng.Intn(80))
}

// ratingFor returns a display rating in [3,5]
func (f *FeedFetcher) ratingFor() int {
	f.randMutex.Lock()
	defer f.randMutex.Unlock()
	return 3 + f.rng.Intn(3)
}

// watchedWallet picks a random owner from the watch list
func (f *FeedFetcher) watchedWallet() string {
	if len(f.feedCfg.WatchedWallets) == 0 {
		return ""
	}
	f.randMutex.Lock()
	defer f.randMutex.Unlock()
	return f.feedCfg.WatchedWallets[f.rng.Intn(len(f.feedCfg.WatchedWallets))]
}

// collectionSymbol maps the filter to a pricing API symbol. All tabs share
// the default group today; chain-specific symbols would plug in here.
func (f *FeedFetcher) collectionSymbol(filter models.FeedFilter) string {
	return f.feedCfg.DefaultGroupID
}
