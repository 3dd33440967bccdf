package services

import (
	"context"
	"testing"

	"nft-marketplace-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("ConnectDisconnectCycle", func(t *testing.T) {
		p := NewSimulatedProvider(models.ProviderPhantom)
		assert.False(t, p.IsConnected())
		assert.Empty(t, p.PublicKey())

		address, err := p.Connect(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, address)
		assert.True(t, p.IsConnected())
		assert.Equal(t, address, p.PublicKey())

		require.NoError(t, p.Disconnect(ctx))
		assert.False(t, p.IsConnected())
	})

	t.Run("UnavailableProviderRejectsConnect", func(t *testing.T) {
		p := NewSimulatedProvider(models.ProviderPhantom)
		p.SetAvailable(false)

		_, err := p.Connect(ctx)
		assert.ErrorIs(t, err, ErrProviderUnavailable)
	})

	t.Run("SigningRequiresConnection", func(t *testing.T) {
		p := NewSimulatedProvider(models.ProviderPhantom)

		_, err := p.SignTransaction(ctx, []byte("payload"))
		assert.ErrorIs(t, err, ErrNotConnected)

		_, err = p.Connect(ctx)
		require.NoError(t, err)

		signature, err := p.SignTransaction(ctx, []byte("payload"))
		require.NoError(t, err)
		assert.NotEmpty(t, signature)
	})

	t.Run("SubscribeAndDispose", func(t *testing.T) {
		p := NewSimulatedProvider(models.ProviderPhantom)

		var events []models.WalletEvent
		dispose := p.Subscribe(func(e models.WalletEvent) {
			events = append(events, e)
		})

		_, err := p.Connect(ctx)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.True(t, events[0].Connected)

		dispose()
		require.NoError(t, p.Disconnect(ctx))
		assert.Len(t, events, 1)
	})
}

func TestSessionManagerConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("ConnectEstablishesSession", func(t *testing.T) {
		phantom := NewSimulatedProvider(models.ProviderPhantom)
		m := NewSessionManager(phantom)

		session, err := m.Connect(ctx, models.ProviderPhantom)
		require.NoError(t, err)
		assert.True(t, session.Connected)
		assert.NotEmpty(t, session.Address)
		assert.Equal(t, models.ProviderPhantom, session.Provider)

		signer, ok := m.Signer()
		require.True(t, ok)
		assert.Equal(t, models.ProviderPhantom, signer.Name())
	})

	t.Run("UnavailableProviderCarriesInstallURL", func(t *testing.T) {
		phantom := NewSimulatedProvider(models.ProviderPhantom)
		phantom.SetAvailable(false)
		m := NewSessionManager(phantom)

		_, err := m.Connect(ctx, models.ProviderPhantom)
		require.Error(t, err)

		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.ErrorCodeWalletUnavailable, appErr.Code)
		assert.Equal(t, "https://phantom.app/", appErr.Details)
	})

	t.Run("UnregisteredProviderCarriesInstallURL", func(t *testing.T) {
		m := NewSessionManager()

		_, err := m.Connect(ctx, models.ProviderSolflare)
		require.Error(t, err)

		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.ErrorCodeWalletUnavailable, appErr.Code)
		assert.Equal(t, "https://solflare.com/", appErr.Details)
	})

	t.Run("UserRejectionMapsToWalletRejected", func(t *testing.T) {
		phantom := NewSimulatedProvider(models.ProviderPhantom)
		phantom.SetReject(true)
		m := NewSessionManager(phantom)

		_, err := m.Connect(ctx, models.ProviderPhantom)
		require.Error(t, err)

		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.ErrorCodeWalletRejected, appErr.Code)

		// A rejected connect leaves no session behind
		assert.False(t, m.Probe().Connected)
		_, ok := m.Signer()
		assert.False(t, ok)
	})
}

func TestSessionManagerSwitching(t *testing.T) {
	ctx := context.Background()

	t.Run("SwitchTearsDownPreviousProvider", func(t *testing.T) {
		phantom := NewSimulatedProvider(models.ProviderPhantom)
		solflare := NewSimulatedProvider(models.ProviderSolflare)
		m := NewSessionManager(phantom, solflare)

		_, err := m.Connect(ctx, models.ProviderPhantom)
		require.NoError(t, err)
		require.True(t, phantom.IsConnected())

		session, err := m.Connect(ctx, models.ProviderSolflare)
		require.NoError(t, err)

		assert.False(t, phantom.IsConnected(), "previous provider must be disconnected")
		assert.True(t, solflare.IsConnected())
		assert.Equal(t, models.ProviderSolflare, session.Provider)
	})

	t.Run("ReplacedProviderEventsAreIgnored", func(t *testing.T) {
		phantom := NewSimulatedProvider(models.ProviderPhantom)
		solflare := NewSimulatedProvider(models.ProviderSolflare)
		m := NewSessionManager(phantom, solflare)

		_, err := m.Connect(ctx, models.ProviderPhantom)
		require.NoError(t, err)
		_, err = m.Connect(ctx, models.ProviderSolflare)
		require.NoError(t, err)

		// A late event from the replaced provider must not disturb the session
		_, err = phantom.Connect(ctx)
		require.NoError(t, err)
		require.NoError(t, phantom.Disconnect(ctx))

		session := m.Probe()
		assert.True(t, session.Connected)
		assert.Equal(t, models.ProviderSolflare, session.Provider)
	})

	t.Run("FailedSwitchLeavesNoSession", func(t *testing.T) {
		phantom := NewSimulatedProvider(models.ProviderPhantom)
		solflare := NewSimulatedProvider(models.ProviderSolflare)
		solflare.SetReject(true)
		m := NewSessionManager(phantom, solflare)

		_, err := m.Connect(ctx, models.ProviderPhantom)
		require.NoError(t, err)

		_, err = m.Connect(ctx, models.ProviderSolflare)
		require.Error(t, err)

		// The old provider was torn down before the failed prompt
		assert.False(t, phantom.IsConnected())
		assert.False(t, m.Probe().Connected)
	})
}

func TestSessionManagerPassiveEvents(t *testing.T) {
	ctx := context.Background()

	t.Run("ProviderDisconnectReconcilesSession", func(t *testing.T) {
		phantom := NewSimulatedProvider(models.ProviderPhantom)
		m := NewSessionManager(phantom)

		_, err := m.Connect(ctx, models.ProviderPhantom)
		require.NoError(t, err)

		// Provider drops the connection on its own
		require.NoError(t, phantom.Disconnect(ctx))

		session := m.Probe()
		assert.False(t, session.Connected)
		assert.Empty(t, session.Address)

		_, ok := m.Signer()
		assert.False(t, ok)
	})

	t.Run("ProbeAdoptsPreconnectedProvider", func(t *testing.T) {
		phantom := NewSimulatedProvider(models.ProviderPhantom)
		_, err := phantom.Connect(ctx)
		require.NoError(t, err)

		m := NewSessionManager(phantom)

		session := m.Probe()
		assert.True(t, session.Connected)
		assert.Equal(t, models.ProviderPhantom, session.Provider)
		assert.Equal(t, phantom.PublicKey(), session.Address)
	})

	t.Run("ProbeNeverPrompts", func(t *testing.T) {
		phantom := NewSimulatedProvider(models.ProviderPhantom)
		phantom.SetReject(true) // a prompt would fail loudly
		m := NewSessionManager(phantom)

		session := m.Probe()
		assert.False(t, session.Connected)
	})

	t.Run("DisconnectIsIdempotent", func(t *testing.T) {
		phantom := NewSimulatedProvider(models.ProviderPhantom)
		m := NewSessionManager(phantom)

		require.NoError(t, m.Disconnect(ctx))

		_, err := m.Connect(ctx, models.ProviderPhantom)
		require.NoError(t, err)

		require.NoError(t, m.Disconnect(ctx))
		require.NoError(t, m.Disconnect(ctx))
		assert.False(t, m.Probe().Connected)
	})
}
