package models

import (
	"fmt"
	"time"
)

// CardStatus describes the lifecycle badge of a marketplace card.
// Exactly one status holds for a card at any time.
type CardStatus string

const (
	StatusMinting  CardStatus = "minting"
	StatusProgress CardStatus = "progress"
	StatusSold     CardStatus = "sold"
)

// CategoryTab is the feed category selected in the UI
type CategoryTab string

const (
	TabTrending  CategoryTab = "trending"
	TabRecently  CategoryTab = "recently"
	TabGradually CategoryTab = "gradually"
	TabMinted    CategoryTab = "minted"
	TabWatchlist CategoryTab = "watchlist"
)

// ValidTabs lists the accepted category tabs in display order
var ValidTabs = []CategoryTab{TabTrending, TabRecently, TabGradually, TabMinted, TabWatchlist}

// ParseTab validates a tab string from the API surface
func ParseTab(s string) (CategoryTab, error) {
	for _, t := range ValidTabs {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tab %q", s)
}

// Card is a single marketplace entry in the feed
type Card struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	Status      CardStatus `json:"status"`
	Progress    *int       `json:"progress,omitempty"`
	Rating      int        `json:"rating"`
	IsBoosted   bool       `json:"is_boosted"`
	IsNew       bool       `json:"is_new"`
	Image       string     `json:"image,omitempty"`

	// Provenance fields, populated only when sourced from a real indexer response
	Mint           string `json:"mint,omitempty"`
	CollectionID   string `json:"collection_id,omitempty"`
	MarketplaceURL string `json:"marketplace_url,omitempty"`
}

// Validate checks the card invariants: status/progress coupling, progress
// range, non-negative price and a 1-5 rating.
func (c *Card) Validate() error {
	switch c.Status {
	case StatusMinting, StatusSold:
		if c.Progress != nil {
			return fmt.Errorf("card %s: progress defined with status %q", c.ID, c.Status)
		}
	case StatusProgress:
		if c.Progress == nil {
			return fmt.Errorf("card %s: status progress without progress value", c.ID)
		}
		if *c.Progress < 0 || *c.Progress > 100 {
			return fmt.Errorf("card %s: progress %d out of range", c.ID, *c.Progress)
		}
	default:
		return fmt.Errorf("card %s: unknown status %q", c.ID, c.Status)
	}

	if c.Price < 0 {
		return fmt.Errorf("card %s: negative price %f", c.ID, c.Price)
	}
	if c.Rating < 1 || c.Rating > 5 {
		return fmt.Errorf("card %s: rating %d out of range", c.ID, c.Rating)
	}
	return nil
}

// FeedFilter is the filter a fetch was issued for
type FeedFilter struct {
	Tab   CategoryTab `json:"tab"`
	Chain string      `json:"chain"`
}

// FeedCacheEntry is the single cached feed snapshot. Order of Cards is the
// display order and is preserved through serialization.
type FeedCacheEntry struct {
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Cards     []Card    `json:"data" bson:"data"`
}

// FeedState is the controller snapshot exposed to the API
type FeedState struct {
	ActiveTab   CategoryTab `json:"active_tab"`
	ActiveChain string      `json:"active_chain"`
	IsLoading   bool        `json:"is_loading"`
	Cards       []Card      `json:"cards"`
}

// SetTabRequest selects a feed category
type SetTabRequest struct {
	Tab string `json:"tab" binding:"required"`
}

// SetChainRequest selects a chain filter
type SetChainRequest struct {
	Chain string `json:"chain" binding:"required"`
}

// RefreshRequest triggers a feed refresh. Force shows the blocking loading
// flag instead of a silent background swap.
type RefreshRequest struct {
	Force bool `json:"force"`
}
