package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"nft-marketplace-api/internal/config"
)

// IndexedAsset is the subset of a DAS asset record this service consumes.
// Only metadata.name and an image URI are load-bearing; everything else is
// advisory.
type IndexedAsset struct {
	ID      string `json:"id"`
	Content struct {
		Metadata struct {
			Name        string `json:"name"`
			Description string `json:"description"`
			Image       string `json:"image"`
		} `json:"metadata"`
		Links struct {
			Image       string `json:"image"`
			ExternalURL string `json:"external_url"`
		} `json:"links"`
		Files []struct {
			URI string `json:"uri"`
		} `json:"files"`
		JSONURI string `json:"json_uri"`
	} `json:"content"`
	Grouping []struct {
		GroupKey   string `json:"group_key"`
		GroupValue string `json:"group_value"`
	} `json:"grouping"`
}

// Collection returns the asset's collection grouping value, if any
func (a *IndexedAsset) Collection() string {
	for _, g := range a.Grouping {
		if g.GroupKey == "collection" {
			return g.GroupValue
		}
	}
	return ""
}

// ImageURI returns the best available image URI for the asset
func (a *IndexedAsset) ImageURI() string {
	if a.Content.Metadata.Image != "" {
		return a.Content.Metadata.Image
	}
	if a.Content.Links.Image != "" {
		return a.Content.Links.Image
	}
	if len(a.Content.Files) > 0 {
		return a.Content.Files[0].URI
	}
	return ""
}

// rpcEnvelope is the JSON-RPC request shape the DAS API expects
type rpcEnvelope struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

// rpcResult is the JSON-RPC response shape
type rpcResult struct {
	Result struct {
		Items []IndexedAsset `json:"items"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// IndexerClient talks to a Helius-style DAS indexing API over JSON-RPC.
// Every call is bounded by the configured timeout; the caller decides what
// to do when the source fails.
type IndexerClient struct {
	httpClient *http.Client
	config     *config.IndexerConfig
}

// NewIndexerClient creates a new DAS indexer client
func NewIndexerClient(cfg *config.IndexerConfig) *IndexerClient {
	return &IndexerClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
	}
}

// AssetsByGroup lists assets for a collection group
func (c *IndexerClient) AssetsByGroup(ctx context.Context, groupID string, page, limit int) ([]IndexedAsset, error) {
	return c.call(ctx, "getAssetsByGroup", map[string]interface{}{
		"groupKey":   "collection",
		"groupValue": groupID,
		"page":       page,
		"limit":      limit,
	})
}

// AssetsByOwner lists assets held by a wallet
func (c *IndexerClient) AssetsByOwner(ctx context.Context, owner string, page, limit int) ([]IndexedAsset, error) {
	return c.call(ctx, "getAssetsByOwner", map[string]interface{}{
		"ownerAddress": owner,
		"page":         page,
		"limit":        limit,
	})
}

// call performs one JSON-RPC request bounded by the configured timeout
func (c *IndexerClient) call(ctx context.Context, method string, params interface{}) ([]IndexedAsset, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	body, err := json.Marshal(rpcEnvelope{
		JSONRPC: "2.0",
		ID:      "feed-fetch",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", method, resp.StatusCode)
	}

	var result rpcResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("%s error %d: %s", method, result.Error.Code, result.Error.Message)
	}

	return result.Result.Items, nil
}

// endpoint appends the API key query parameter when configured
func (c *IndexerClient) endpoint() string {
	if c.config.APIKey == "" {
		return c.config.Endpoint
	}
	u, err := url.Parse(c.config.Endpoint)
	if err != nil {
		return c.config.Endpoint
	}
	q := u.Query()
	q.Set("api-key", c.config.APIKey)
	u.RawQuery = q.Encode()
	return u.String()
}
