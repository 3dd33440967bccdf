package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"nft-marketplace-api/internal/config"
)

// lamportsPerSol converts the pricing API's fixed-point subunit figures to
// display units (1 SOL = 1,000,000,000 lamports)
const lamportsPerSol = 1e9

// PricingClient resolves collection floor prices from a Magic Eden style
// stats endpoint. Figures arrive in lamports and are converted for display.
type PricingClient struct {
	httpClient *http.Client
	config     *config.PricingConfig
}

// NewPricingClient creates a new floor-price client
func NewPricingClient(cfg *config.PricingConfig) *PricingClient {
	return &PricingClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
	}
}

// FloorPrice returns the collection floor in SOL
func (c *PricingClient) FloorPrice(ctx context.Context, collection string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/collections/%s/stats", c.config.Endpoint, url.PathEscape(collection))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("build stats request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("stats request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("stats returned status %d", resp.StatusCode)
	}

	var stats struct {
		FloorPrice int64 `json:"floorPrice"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return 0, fmt.Errorf("decode stats response: %w", err)
	}
	if stats.FloorPrice < 0 {
		return 0, fmt.Errorf("negative floor price %d", stats.FloorPrice)
	}

	return float64(stats.FloorPrice) / lamportsPerSol, nil
}
