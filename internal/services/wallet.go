package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"nft-marketplace-api/internal/models"
	"nft-marketplace-api/pkg/logger"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Sentinel errors returned by wallet providers. The session manager maps
// them onto API error codes.
var (
	ErrProviderUnavailable = errors.New("wallet provider not installed")
	ErrUserRejected        = errors.New("user rejected the request")
	ErrNotConnected        = errors.New("wallet not connected")
)

// WalletProvider is the adapter contract for a browser wallet extension.
// Subscribe registers a listener for connect/disconnect events the provider
// emits on its own; the returned disposer must be called on teardown so a
// replaced provider cannot keep reporting into the session.
type WalletProvider interface {
	Name() models.WalletProviderChoice
	Connect(ctx context.Context) (string, error)
	Disconnect(ctx context.Context) error
	IsConnected() bool
	PublicKey() string
	SignTransaction(ctx context.Context, payload []byte) (string, error)
	Subscribe(listener func(models.WalletEvent)) (dispose func())
}

// SimulatedProvider stands in for a wallet extension. It holds a real
// keypair so signatures verify, and can be configured to be absent or to
// reject prompts for exercising the failure paths.
type SimulatedProvider struct {
	name      models.WalletProviderChoice
	available bool
	reject    bool

	mutex     sync.Mutex
	wallet    *solana.Wallet
	connected bool
	listeners map[int]func(models.WalletEvent)
	nextID    int
}

// NewSimulatedProvider creates a provider that accepts connect prompts
func NewSimulatedProvider(name models.WalletProviderChoice) *SimulatedProvider {
	return &SimulatedProvider{
		name:      name,
		available: true,
		wallet:    solana.NewWallet(),
		listeners: make(map[int]func(models.WalletEvent)),
	}
}

// SetAvailable marks the provider extension as installed or absent
func (p *SimulatedProvider) SetAvailable(available bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.available = available
}

// SetReject makes subsequent connect prompts fail as user rejections
func (p *SimulatedProvider) SetReject(reject bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.reject = reject
}

// Name returns the provider identity
func (p *SimulatedProvider) Name() models.WalletProviderChoice {
	return p.name
}

// Connect prompts for approval and returns the wallet address
func (p *SimulatedProvider) Connect(ctx context.Context) (string, error) {
	p.mutex.Lock()
	if !p.available {
		p.mutex.Unlock()
		return "", ErrProviderUnavailable
	}
	if p.reject {
		p.mutex.Unlock()
		return "", ErrUserRejected
	}
	p.connected = true
	address := p.wallet.PublicKey().String()
	p.mutex.Unlock()

	p.emit(models.WalletEvent{
		Provider:  p.name,
		Connected: true,
		Address:   address,
		Timestamp: time.Now().UTC(),
	})
	return address, nil
}

// Disconnect drops the connection. Safe to call when already disconnected.
func (p *SimulatedProvider) Disconnect(ctx context.Context) error {
	p.mutex.Lock()
	wasConnected := p.connected
	p.connected = false
	p.mutex.Unlock()

	if wasConnected {
		p.emit(models.WalletEvent{
			Provider:  p.name,
			Connected: false,
			Timestamp: time.Now().UTC(),
		})
	}
	return nil
}

// IsConnected reports the connection state without prompting
func (p *SimulatedProvider) IsConnected() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.connected
}

// PublicKey returns the wallet address, empty when disconnected
func (p *SimulatedProvider) PublicKey() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if !p.connected {
		return ""
	}
	return p.wallet.PublicKey().String()
}

// SignTransaction signs the payload with the wallet's private key
func (p *SimulatedProvider) SignTransaction(ctx context.Context, payload []byte) (string, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.connected {
		return "", ErrNotConnected
	}
	if p.reject {
		return "", ErrUserRejected
	}

	signature, err := p.wallet.PrivateKey.Sign(payload)
	if err != nil {
		return "", fmt.Errorf("sign payload: %w", err)
	}
	return signature.String(), nil
}

// Subscribe registers an event listener and returns its disposer
func (p *SimulatedProvider) Subscribe(listener func(models.WalletEvent)) func() {
	p.mutex.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = listener
	p.mutex.Unlock()

	return func() {
		p.mutex.Lock()
		delete(p.listeners, id)
		p.mutex.Unlock()
	}
}

// emit delivers an event to all current listeners
func (p *SimulatedProvider) emit(event models.WalletEvent) {
	p.mutex.Lock()
	listeners := make([]func(models.WalletEvent), 0, len(p.listeners))
	for _, l := range p.listeners {
		listeners = append(listeners, l)
	}
	p.mutex.Unlock()

	for _, l := range listeners {
		l(event)
	}
}

// SessionManager tracks at most one connected wallet at a time. Switching
// providers tears the previous one down completely before the new prompt,
// and provider-initiated events are folded back into the session passively.
type SessionManager struct {
	providers map[models.WalletProviderChoice]WalletProvider
	logger    *logger.Logger

	mutex   sync.Mutex
	active  WalletProvider
	session models.WalletSession
	dispose func()
}

// NewSessionManager creates a session manager over the given providers
func NewSessionManager(providers ...WalletProvider) *SessionManager {
	registry := make(map[models.WalletProviderChoice]WalletProvider, len(providers))
	for _, p := range providers {
		registry[p.Name()] = p
	}
	return &SessionManager{
		providers: registry,
		logger:    logger.GetLogger(),
	}
}

// Probe reports the current session without triggering any wallet prompt.
// An already-connected provider is adopted silently.
func (m *SessionManager) Probe() models.WalletSession {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.active != nil {
		return m.session
	}

	for _, p := range m.providers {
		if p.IsConnected() {
			m.adoptLocked(p, p.PublicKey())
			break
		}
	}
	return m.session
}

// Connect establishes a session with the chosen provider. A different
// already-active provider is disconnected first so at most one session
// exists. An absent provider yields a wallet-unavailable error carrying the
// install page URL.
func (m *SessionManager) Connect(ctx context.Context, choice models.WalletProviderChoice) (models.WalletSession, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	provider, ok := m.providers[choice]
	if !ok {
		return m.session, models.NewWalletUnavailableError(string(choice), choice.InstallURL())
	}

	if m.active != nil && m.active.Name() != choice {
		m.teardownLocked(ctx)
	}

	address, err := provider.Connect(ctx)
	if err != nil {
		switch {
		case errors.Is(err, ErrProviderUnavailable):
			return m.session, models.NewWalletUnavailableError(string(choice), choice.InstallURL())
		case errors.Is(err, ErrUserRejected):
			return m.session, models.NewAppErrorWithCause(
				models.ErrorCodeWalletRejected, "Wallet connection rejected", err)
		default:
			return m.session, models.NewAppErrorWithCause(
				models.ErrorCodeInternalError, "Wallet connection failed", err)
		}
	}

	m.adoptLocked(provider, address)

	m.logger.Info("Wallet connected",
		zap.String("provider", string(choice)),
		zap.String("address", address),
	)
	return m.session, nil
}

// Disconnect ends the current session. A no-op when nothing is connected.
func (m *SessionManager) Disconnect(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.active == nil {
		return nil
	}

	name := m.active.Name()
	m.teardownLocked(ctx)

	m.logger.Info("Wallet disconnected", zap.String("provider", string(name)))
	return nil
}

// Signer returns the active provider when a session is connected
func (m *SessionManager) Signer() (WalletProvider, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.active == nil || !m.session.Connected {
		return nil, false
	}
	return m.active, true
}

// adoptLocked records a connected provider and subscribes for its events.
// Caller holds m.mutex.
func (m *SessionManager) adoptLocked(provider WalletProvider, address string) {
	m.active = provider
	m.session = models.WalletSession{
		Connected: true,
		Address:   address,
		Provider:  provider.Name(),
	}
	m.dispose = provider.Subscribe(m.reconcile)
}

// teardownLocked disconnects the active provider and removes its event
// subscription. Caller holds m.mutex.
func (m *SessionManager) teardownLocked(ctx context.Context) {
	if m.dispose != nil {
		m.dispose()
		m.dispose = nil
	}
	if m.active != nil {
		if err := m.active.Disconnect(ctx); err != nil {
			m.logger.Warn("Provider disconnect failed",
				zap.String("provider", string(m.active.Name())),
				zap.Error(err),
			)
		}
	}
	m.active = nil
	m.session = models.WalletSession{}
}

// reconcile folds a provider-initiated event into the session. Events from
// a provider that is no longer active are ignored.
func (m *SessionManager) reconcile(event models.WalletEvent) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.active == nil || m.active.Name() != event.Provider {
		return
	}

	if event.Connected {
		m.session = models.WalletSession{
			Connected: true,
			Address:   event.Address,
			Provider:  event.Provider,
		}
		return
	}

	if m.dispose != nil {
		m.dispose()
		m.dispose = nil
	}
	m.active = nil
	m.session = models.WalletSession{}

	m.logger.Info("Wallet disconnected by provider event",
		zap.String("provider", string(event.Provider)),
	)
}
