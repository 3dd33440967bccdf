package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"nft-marketplace-api/internal/config"

	"github.com/doyensec/safeurl"
	"golang.org/x/time/rate"
)

// maxMetadataBytes bounds off-chain metadata documents; anything larger is
// not a plausible NFT metadata JSON
const maxMetadataBytes = 1 << 20

// AssetMetadata is the off-chain JSON document an asset's json_uri points at
type AssetMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	ExternalURL string `json:"external_url"`
}

// MetadataClient follows metadata URIs taken from untrusted indexer
// responses. Requests go through an SSRF-hardened client and an outbound
// rate limiter so a hostile feed cannot aim this service at internal hosts
// or hammer a gateway.
type MetadataClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewMetadataClient creates a metadata client from feed configuration
func NewMetadataClient(cfg *config.FeedConfig) *MetadataClient {
	safeConfig := safeurl.GetConfigBuilder().
		SetTimeout(cfg.MetadataTimeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return &MetadataClient{
		httpClient: safeurl.Client(safeConfig).Client,
		limiter:    rate.NewLimiter(rate.Limit(cfg.MetadataRate), 1),
	}
}

// FetchMetadata retrieves and decodes the metadata document at uri
func (c *MetadataClient) FetchMetadata(ctx context.Context, uri string) (*AssetMetadata, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("build metadata request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metadata request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata returned status %d", resp.StatusCode)
	}

	var meta AssetMetadata
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxMetadataBytes)).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	return &meta, nil
}
