package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"nft-marketplace-api/internal/config"
	"nft-marketplace-api/internal/models"
	"nft-marketplace-api/pkg/logger"
	"nft-marketplace-api/pkg/metrics"
	"nft-marketplace-api/pkg/mutex"

	"go.uber.org/zap"
)

// MintSimulator runs the per-card mint state machine. A card is either idle
// or minting; every attempt ends back at idle regardless of outcome, so a
// failed settlement never wedges a card.
type MintSimulator struct {
	controller ControllerInterface
	wallets    WalletSessionInterface
	settler    Settler
	notifier   Notifier
	collector  *metrics.MetricsCollector
	cardLocks  *mutex.KeyedMutex
	logger     *logger.Logger

	stateMutex sync.RWMutex
	states     map[string]models.MintState
}

// NewMintSimulator creates a mint simulator
func NewMintSimulator(
	controller ControllerInterface,
	wallets WalletSessionInterface,
	settler Settler,
	notifier Notifier,
	collector *metrics.MetricsCollector,
	cardLocks *mutex.KeyedMutex,
) *MintSimulator {
	return &MintSimulator{
		controller: controller,
		wallets:    wallets,
		settler:    settler,
		notifier:   notifier,
		collector:  collector,
		cardLocks:  cardLocks,
		logger:     logger.GetLogger(),
		states:     make(map[string]models.MintState),
	}
}

// State reports the simulation state for a card. Cards never seen are idle.
func (s *MintSimulator) State(cardID string) models.MintState {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	if state, ok := s.states[cardID]; ok {
		return state
	}
	return models.MintIdle
}

// Mint attempts to mint a card. Preconditions are checked before any state
// transition: the card must exist in the current feed, a wallet must be
// connected, the card must not be sold out, and no mint for the same card
// may be in flight.
func (s *MintSimulator) Mint(ctx context.Context, cardID string) (*models.SettlementResult, error) {
	s.collector.RecordMintAttempt()
	log := s.logger.WithContext(ctx).WithFields(map[string]interface{}{"card_id": cardID})

	card, ok := s.controller.CardByID(cardID)
	if !ok {
		s.collector.RecordMintRejection()
		return nil, models.NewAppErrorWithDetails(
			models.ErrorCodeUnknownCard, "Card not found in current feed", cardID)
	}

	if _, connected := s.wallets.Signer(); !connected {
		s.collector.RecordMintRejection()
		return nil, models.NewAppError(
			models.ErrorCodeWalletDisconnected, "Connect a wallet before minting")
	}

	if card.Status == models.StatusSold {
		s.collector.RecordMintRejection()
		return nil, models.NewAppErrorWithDetails(
			models.ErrorCodeCardSoldOut, "Card is sold out", cardID)
	}

	// Serializes the idle check with the transition to minting
	lock := s.cardLocks.GetMutex(cardID)
	lock.Lock()
	if s.State(cardID) == models.MintMinting {
		lock.Unlock()
		s.collector.RecordMintRejection()
		return nil, models.NewAppErrorWithDetails(
			models.ErrorCodeMintInProgress, "A mint for this card is already in progress", cardID)
	}
	s.setState(cardID, models.MintMinting)
	lock.Unlock()

	defer s.setState(cardID, models.MintIdle)

	log.Info("Mint started", zap.String("title", card.Title))

	wallet := ""
	if signer, connected := s.wallets.Signer(); connected {
		wallet = signer.PublicKey()
	}

	result, err := s.settler.Settle(ctx, cardID, card.Title, wallet)
	if err != nil {
		log.Warn("Mint failed", zap.Error(err))
		s.notify(models.Notification{
			Level:     "error",
			Message:   fmt.Sprintf("Minting %q failed", card.Title),
			CardID:    cardID,
			Timestamp: time.Now().UTC(),
		})
		return nil, err
	}

	s.collector.RecordMintSettlement()
	log.Info("Mint settled",
		zap.String("signature", result.Signature),
		zap.String("transaction_url", result.TransactionURL),
	)

	s.notify(models.Notification{
		Level:     "success",
		Message:   fmt.Sprintf("Minted %q", card.Title),
		Link:      result.TransactionURL,
		CardID:    cardID,
		Timestamp: time.Now().UTC(),
	})
	return result, nil
}

// setState records a card's state, dropping idle entries to bound the map
func (s *MintSimulator) setState(cardID string, state models.MintState) {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	if state == models.MintIdle {
		delete(s.states, cardID)
		return
	}
	s.states[cardID] = state
}

// notify delivers a notification when a sink is configured
func (s *MintSimulator) notify(n models.Notification) {
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}

// SimulatedSettler is the default Settler: it fetches a real blockhash, has
// the connected wallet sign it, then waits a fixed delay in place of
// transaction submission and confirmation. Swapping in a submit-and-confirm
// settler changes nothing in the simulator above.
type SimulatedSettler struct {
	blockhashes BlockhashSource
	wallets     WalletSessionInterface
	config      *config.MintConfig
	logger      *logger.Logger
}

// NewSimulatedSettler creates the default settlement strategy
func NewSimulatedSettler(blockhashes BlockhashSource, wallets WalletSessionInterface, cfg *config.MintConfig) *SimulatedSettler {
	return &SimulatedSettler{
		blockhashes: blockhashes,
		wallets:     wallets,
		config:      cfg,
		logger:      logger.GetLogger(),
	}
}

// Settle obtains a blockhash, signs it with the wallet and waits out the
// configured settlement delay
func (s *SimulatedSettler) Settle(ctx context.Context, cardID, title, wallet string) (*models.SettlementResult, error) {
	blockhash, err := s.blockhashes.LatestBlockhash(ctx)
	if err != nil {
		return nil, models.NewAppErrorWithCause(
			models.ErrorCodeNetworkUnavailable, "Solana network unavailable", err)
	}

	signer, connected := s.wallets.Signer()
	if !connected {
		return nil, models.NewAppError(
			models.ErrorCodeWalletDisconnected, "Wallet disconnected during mint")
	}

	payload := []byte(fmt.Sprintf("%s:%s:%s", blockhash, cardID, wallet))
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
	case <-time.After(s.config.SettleDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &models.SettlementResult{
		Signature:      signature,
		TransactionURL: s.explorerTxURL(signature),
		SettledAt:      time.Now().UTC(),
	}, nil
}

// explorerTxURL builds the explorer link for a transaction signature
func (s *SimulatedSettler) explorerTxURL(signature string) string {
	return fmt.Sprintf("%s/tx/%s?cluster=%s", s.config.ExplorerBase, signature, s.config.Cluster)
}
