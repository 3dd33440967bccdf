package services

import (
	"context"
	"fmt"
	"time"

	"nft-marketplace-api/internal/config"

	"github.com/gagliardetto/solana-go/rpc"
)

// SolanaClient wraps the Solana RPC client with configuration. The mint
// settler uses it to obtain a recent blockhash before asking the wallet to
// sign.
type SolanaClient struct {
	client *rpc.Client
	config *config.RPCConfig
}

// NewSolanaClient creates a new Solana RPC client
func NewSolanaClient(cfg *config.RPCConfig) *SolanaClient {
	return &SolanaClient{
		client: rpc.New(cfg.Endpoint),
		config: cfg,
	}
}

// LatestBlockhash fetches a recent blockhash with retry and backoff
func (s *SolanaClient) LatestBlockhash(ctx context.Context) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
		result, err := s.client.GetLatestBlockhash(attemptCtx, rpc.CommitmentConfirmed)
		cancel()

		if err == nil {
			return result.Value.Blockhash.String(), nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if attempt < s.config.MaxRetries {
			time.Sleep(s.config.RetryDelay * time.Duration(attempt+1))
		}
	}

	return "", fmt.Errorf("failed to get latest blockhash after %d attempts: %w", s.config.MaxRetries+1, lastErr)
}

// IsHealthy checks if the RPC endpoint is responsive
func (s *SolanaClient) IsHealthy() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized); err != nil {
		return fmt.Errorf("RPC health check failed: %w", err)
	}
	return nil
}
