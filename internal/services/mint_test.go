package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"nft-marketplace-api/internal/config"
	"nft-marketplace-api/internal/models"
	"nft-marketplace-api/pkg/metrics"
	"nft-marketplace-api/pkg/mutex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCardSource implements ControllerInterface over a fixed card set
type mockCardSource struct {
	cards map[string]models.Card
}

func (m *mockCardSource) Snapshot() models.FeedState                       { return models.FeedState{} }
func (m *mockCardSource) SetTab(ctx context.Context, tab models.CategoryTab) {}
func (m *mockCardSource) SetChain(ctx context.Context, chain string)         {}
func (m *mockCardSource) Refresh(ctx context.Context, force bool)            {}

func (m *mockCardSource) CardByID(id string) (models.Card, bool) {
	card, ok := m.cards[id]
	return card, ok
}

// mockSettler implements Settler with configurable outcome and delay
type mockSettler struct {
	mu    sync.Mutex
	err   error
	delay time.Duration
	calls int
}

func (m *mockSettler) Settle(ctx context.Context, cardID, title, wallet string) (*models.SettlementResult, error) {
	m.mu.Lock()
	m.calls++
	delay := m.delay
	err := m.err
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	return &models.SettlementResult{
		Signature:      "sig-" + cardID,
		TransactionURL: "https://explorer.solana.com/tx/sig-" + cardID + "?cluster=devnet",
		SettledAt:      time.Now().UTC(),
	}, nil
}

func (m *mockSettler) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func mintTestCards() map[string]models.Card {
	progress := 50
	return map[string]models.Card{
		"open-card": {
			ID: "open-card", Title: "Open Card", Price: 10,
			Status: models.StatusProgress, Progress: &progress, Rating: 4,
		},
		"sold-card": {
			ID: "sold-card", Title: "Sold Card", Price: 10,
			Status: models.StatusSold, Rating: 4,
		},
	}
}

func newTestSimulator(t *testing.T, settler Settler, connectWallet bool) (*MintSimulator, *NotificationBuffer, *metrics.MetricsCollector) {
	t.Helper()

	sessions := NewSessionManager(NewSimulatedProvider(models.ProviderPhantom))
	if connectWallet {
		_, err := sessions.Connect(context.Background(), models.ProviderPhantom)
		require.NoError(t, err)
	}

	collector := metrics.NewMetricsCollector()
	notifications := NewNotificationBuffer()
	cardLocks := mutex.New(time.Minute)
	t.Cleanup(cardLocks.Stop)

	simulator := NewMintSimulator(
		&mockCardSource{cards: mintTestCards()},
		sessions, settler, notifications, collector, cardLocks,
	)
	return simulator, notifications, collector
}

func TestMintSimulatorPreconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("RejectsUnknownCard", func(t *testing.T) {
		simulator, _, collector := newTestSimulator(t, &mockSettler{}, true)

		_, err := simulator.Mint(ctx, "missing")
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.ErrorCodeUnknownCard, appErr.Code)
		assert.Equal(t, int64(1), collector.GetMetrics().MintRejections)
	})

	t.Run("RejectsWithoutWallet", func(t *testing.T) {
		settler := &mockSettler{}
		simulator, _, collector := newTestSimulator(t, settler, false)

		_, err := simulator.Mint(ctx, "open-card")
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.ErrorCodeWalletDisconnected, appErr.Code)
		assert.Equal(t, int64(1), collector.GetMetrics().MintRejections)
		assert.Zero(t, settler.callCount(), "settlement must not start without a wallet")
	})

	t.Run("RejectsSoldOutCard", func(t *testing.T) {
		settler := &mockSettler{}
		simulator, _, _ := newTestSimulator(t, settler, true)

		_, err := simulator.Mint(ctx, "sold-card")
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.ErrorCodeCardSoldOut, appErr.Code)
		assert.Zero(t, settler.callCount())
	})

	t.Run("RejectsConcurrentMintOnSameCard", func(t *testing.T) {
		settler := &mockSettler{delay: 100 * time.Millisecond}
		simulator, _, collector := newTestSimulator(t, settler, true)

		done := make(chan error, 1)
		go func() {
			_, err := simulator.Mint(ctx, "open-card")
			done <- err
		}()

		waitFor(t, time.Second, func() bool {
			return simulator.State("open-card") == models.MintMinting
		})

		_, err := simulator.Mint(ctx, "open-card")
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.ErrorCodeMintInProgress, appErr.Code)

		require.NoError(t, <-done)
		assert.Equal(t, models.MintIdle, simulator.State("open-card"))
		assert.Equal(t, int64(1), collector.GetMetrics().MintSettlements)
	})
}

func TestMintSimulatorOutcomes(t *testing.T) {
	ctx := context.Background()

	t.Run("SuccessfulMintReturnsToIdle", func(t *testing.T) {
		simulator, notifications, collector := newTestSimulator(t, &mockSettler{}, true)

		result, err := simulator.Mint(ctx, "open-card")
		require.NoError(t, err)
		assert.Equal(t, "sig-open-card", result.Signature)
		assert.Contains(t, result.TransactionURL, "explorer.solana.com/tx/")

		assert.Equal(t, models.MintIdle, simulator.State("open-card"))
		assert.Equal(t, int64(1), collector.GetMetrics().MintSettlements)

		recent := notifications.Recent()
		require.Len(t, recent, 1)
		assert.Equal(t, "success", recent[0].Level)
		assert.Equal(t, "open-card", recent[0].CardID)
		assert.NotEmpty(t, recent[0].Link)
	})

	t.Run("FailedSettlementReturnsToIdle", func(t *testing.T) {
		settler := &mockSettler{err: models.NewAppError(
			models.ErrorCodeNetworkUnavailable, "Solana network unavailable")}
		simulator, notifications, collector := newTestSimulator(t, settler, true)

		_, err := simulator.Mint(ctx, "open-card")
		require.Error(t, err)

		// The failure must not wedge the card
		assert.Equal(t, models.MintIdle, simulator.State("open-card"))
		assert.Equal(t, int64(0), collector.GetMetrics().MintSettlements)

		recent := notifications.Recent()
		require.Len(t, recent, 1)
		assert.Equal(t, "error", recent[0].Level)

		// And a retry is possible immediately
		settler.mu.Lock()
		settler.err = nil
		settler.mu.Unlock()

		_, err = simulator.Mint(ctx, "open-card")
		assert.NoError(t, err)
	})

	t.Run("IndependentCardsMintConcurrently", func(t *testing.T) {
		settler := &mockSettler{delay: 50 * time.Millisecond}
		simulator, _, collector := newTestSimulator(t, settler, true)

		// Second open card for the concurrent attempt
		progress := 30
		source := &mockCardSource{cards: mintTestCards()}
		source.cards["other-card"] = models.Card{
			ID: "other-card", Title: "Other", Price: 5,
			Status: models.StatusProgress, Progress: &progress, Rating: 3,
		}
		simulator.controller = source

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, id := range []string{"open-card", "other-card"} {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				_, errs[i] = simulator.Mint(ctx, id)
			}(i, id)
		}
		wg.Wait()

		assert.NoError(t, errs[0])
		assert.NoError(t, errs[1])
		assert.Equal(t, int64(2), collector.GetMetrics().MintSettlements)
	})
}

// stubBlockhash implements BlockhashSource
type stubBlockhash struct {
	hash string
	err  error
}

func (s *stubBlockhash) LatestBlockhash(ctx context.Context) (string, error) {
	return s.hash, s.err
}

func TestSimulatedSettler(t *testing.T) {
	ctx := context.Background()

	mintCfg := &config.MintConfig{
		SettleDelay:  10 * time.Millisecond,
		Cluster:      "devnet",
		ExplorerBase: "https://explorer.solana.com",
	}

	connectedSessions := func(t *testing.T) *SessionManager {
		t.Helper()
		sessions := NewSessionManager(NewSimulatedProvider(models.ProviderPhantom))
		_, err := sessions.Connect(ctx, models.ProviderPhantom)
		require.NoError(t, err)
		return sessions
	}

	t.Run("SettlesWithExplorerLink", func(t *testing.T) {
		settler := NewSimulatedSettler(&stubBlockhash{hash: "hash-1"}, connectedSessions(t), mintCfg)

		result, err := settler.Settle(ctx, "card-1", "Card", "wallet-1")
		require.NoError(t, err)
		assert.NotEmpty(t, result.Signature)
		assert.Equal(t,
			"https://explorer.solana.com/tx/"+result.Signature+"?cluster=devnet",
			result.TransactionURL,
		)
	})

	t.Run("BlockhashFailureIsNetworkUnavailable", func(t *testing.T) {
		settler := NewSimulatedSettler(
			&stubBlockhash{err: errors.New("rpc down")}, connectedSessions(t), mintCfg)

		_, err := settler.Settle(ctx, "card-1", "Card", "wallet-1")
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.ErrorCodeNetworkUnavailable, appErr.Code)
	})

	t.Run("DisconnectedWalletRejected", func(t *testing.T) {
		sessions := NewSessionManager(NewSimulatedProvider(models.ProviderPhantom))
		settler := NewSimulatedSettler(&stubBlockhash{hash: "hash-1"}, sessions, mintCfg)

		_, err := settler.Settle(ctx, "card-1", "Card", "wallet-1")
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.ErrorCodeWalletDisconnected, appErr.Code)
	})

	t.Run("SigningRejectionSurfaces", func(t *testing.T) {
		provider := NewSimulatedProvider(models.ProviderPhantom)
		sessions := NewSessionManager(provider)
		_, err := sessions.Connect(ctx, models.ProviderPhantom)
		require.NoError(t, err)
		provider.SetReject(true)

		settler := NewSimulatedSettler(&stubBlockhash{hash: "hash-1"}, sessions, mintCfg)

		_, err = settler.Settle(ctx, "card-1", "Card", "wallet-1")
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.ErrorCodeWalletRejected, appErr.Code)
	})
}
