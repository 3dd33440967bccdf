package models

import "time"

// WalletProviderChoice identifies a browser wallet extension
type WalletProviderChoice string

const (
	ProviderPhantom  WalletProviderChoice = "phantom"
	ProviderSolflare WalletProviderChoice = "solflare"
)

// InstallURL returns the extension install page users are directed to when
// the chosen provider is not present.
func (p WalletProviderChoice) InstallURL() string {
	switch p {
	case ProviderSolflare:
		return "https://solflare.com/"
	default:
		return "https://phantom.app/"
	}
}

// WalletSession is the connect state of the active wallet provider.
// Address is set iff Connected.
type WalletSession struct {
	Connected bool                 `json:"connected"`
	Address   string               `json:"address,omitempty"`
	Provider  WalletProviderChoice `json:"provider,omitempty"`
}

// WalletEvent is an asynchronous connect/disconnect notification emitted by
// a provider outside this service's own request cycle.
type WalletEvent struct {
	Provider  WalletProviderChoice `json:"provider"`
	Connected bool                 `json:"connected"`
	Address   string               `json:"address,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// ConnectRequest selects and connects a wallet provider
type ConnectRequest struct {
	Provider string `json:"provider" binding:"required"`
}
