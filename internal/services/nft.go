package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nft-marketplace-api/internal/config"
	"nft-marketplace-api/internal/models"
	"nft-marketplace-api/pkg/logger"

	"github.com/gagliardetto/solana-go"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// NFTCreator runs the simulated create-NFT flow: validate the form, require
// a connected wallet, sign over a fresh blockhash and mint address, and
// return explorer links for the pretend transaction.
type NFTCreator struct {
	blockhashes BlockhashSource
	wallets     WalletSessionInterface
	config      *config.MintConfig
	validate    *validator.Validate
	logger      *logger.Logger
}

// NewNFTCreator creates the NFT creation service
func NewNFTCreator(blockhashes BlockhashSource, wallets WalletSessionInterface, cfg *config.MintConfig) *NFTCreator {
	return &NFTCreator{
		blockhashes: blockhashes,
		wallets:     wallets,
		config:      cfg,
		validate:    validator.New(),
		logger:      logger.GetLogger(),
	}
}

// Create validates and executes one create-NFT request
func (c *NFTCreator) Create(ctx context.Context, req *models.CreateNFTRequest) (*models.CreateNFTResponse, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, models.NewValidationError("Invalid NFT form", validationDetails(err))
	}

	signer, connected := c.wallets.Signer()
	if !connected {
		return nil, models.NewAppError(
			models.ErrorCodeWalletDisconnected, "Connect a wallet before creating an NFT")
	}

	blockhash, err := c.blockhashes.LatestBlockhash(ctx)
	if err != nil {
		return nil, models.NewAppErrorWithCause(
			models.ErrorCodeNetworkUnavailable, "Solana network unavailable", err)
	}

	// Fresh keypair stands in for the mint account a real flow would create
	mint := solana.NewWallet().PublicKey().String()

	payload := []byte(fmt.Sprintf("%s:%s:%s", blockhash, mint, req.Name))
	signature, err := signer.SignTransaction(ctx, payload)
	if err != nil {
		if errors.Is(err, ErrUserRejected) {
			return nil, models.NewAppErrorWithCause(
				models.ErrorCodeWalletRejected, "Transaction rejected in wallet", err)
		}
		return nil, models.NewAppErrorWithCause(
			models.ErrorCodeSigningFailed, "Transaction signing failed", err)
	}

	select {
	case <-time.After(c.config.SettleDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	c.logger.WithContext(ctx).Info("NFT created",
		zap.String("name", req.Name),
		zap.String("mint", mint),
		zap.String("signature", signature),
	)

	return &models.CreateNFTResponse{
		Name:           req.Name,
		Signature:      signature,
		TransactionURL: fmt.Sprintf("%s/tx/%s?cluster=%s", c.config.ExplorerBase, signature, c.config.Cluster),
		NFTURL:         fmt.Sprintf("%s/address/%s?cluster=%s", c.config.ExplorerBase, mint, c.config.Cluster),
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// validationDetails flattens validator errors into a readable detail string
func validationDetails(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
