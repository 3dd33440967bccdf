package services

import (
	"context"

	"nft-marketplace-api/internal/models"
)

// AuthServiceInterface defines the interface for authentication services
type AuthServiceInterface interface {
	ValidateAPIKey(key string) (*models.APIKey, error)
}

// IndexerInterface defines the interface for the primary DAS indexing API
type IndexerInterface interface {
	AssetsByGroup(ctx context.Context, groupID string, page, limit int) ([]IndexedAsset, error)
	AssetsByOwner(ctx context.Context, owner string, page, limit int) ([]IndexedAsset, error)
}

// PricingInterface defines the interface for the collection floor-price API
type PricingInterface interface {
	FloorPrice(ctx context.Context, collection string) (float64, error)
}

// FetcherInterface defines the interface for the feed fetcher
type FetcherInterface interface {
	Fetch(ctx context.Context, filter models.FeedFilter) []models.Card
}

// ControllerInterface defines the interface the HTTP layer drives
type ControllerInterface interface {
	Snapshot() models.FeedState
	SetTab(ctx context.Context, tab models.CategoryTab)
	SetChain(ctx context.Context, chain string)
	Refresh(ctx context.Context, force bool)
	CardByID(id string) (models.Card, bool)
}

// WalletSessionInterface defines the interface for wallet session management
type WalletSessionInterface interface {
	Probe() models.WalletSession
	Connect(ctx context.Context, choice models.WalletProviderChoice) (models.WalletSession, error)
	Disconnect(ctx context.Context) error
	Signer() (WalletProvider, bool)
}

// BlockhashSource provides a recent blockhash for transaction construction
type BlockhashSource interface {
	LatestBlockhash(ctx context.Context) (string, error)
}

// Settler is the pluggable mint settlement strategy. The default simulated
// implementation signs and waits a fixed delay; a real submit-and-confirm
// implementation can be substituted without touching the simulator's state
// machine.
type Settler interface {
	Settle(ctx context.Context, cardID, title, wallet string) (*models.SettlementResult, error)
}

// Notifier receives terminal user-visible notifications from the mint flow
type Notifier interface {
	Notify(n models.Notification)
}
