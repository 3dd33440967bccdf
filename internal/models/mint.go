package models

import "time"

// MintState is the per-card mint simulation state
type MintState string

const (
	MintIdle    MintState = "idle"
	MintMinting MintState = "minting"
)

// MintRequest asks the simulator to mint a card from the current feed
type MintRequest struct {
	CardID string `json:"card_id" binding:"required"`
}

// MintStatusResponse reports the simulator state for one card
type MintStatusResponse struct {
	CardID string    `json:"card_id"`
	State  MintState `json:"state"`
}

// SettlementResult is the terminal outcome of a mint settlement
type SettlementResult struct {
	Signature      string    `json:"signature"`
	TransactionURL string    `json:"transaction_url"`
	NFTURL         string    `json:"nft_url,omitempty"`
	SettledAt      time.Time `json:"settled_at"`
}

// Notification is a terminal user-visible message emitted when a mint settles
// or fails
type Notification struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	CardID    string    `json:"card_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NFTAttribute is a single trait on a created NFT
type NFTAttribute struct {
	TraitType string `json:"trait_type" validate:"required"`
	Value     string `json:"value" validate:"required"`
}

// CreateNFTRequest is the create-NFT form payload. Validated with
// go-playground/validator before any wallet interaction happens.
type CreateNFTRequest struct {
	Name        string         `json:"name" validate:"required,min=1,max=64"`
	Description string         `json:"description" validate:"required,max=1000"`
	Collection  string         `json:"collection" validate:"omitempty,max=64"`
	Royalty     int            `json:"royalty" validate:"gte=0,lte=50"`
	ImageURL    string         `json:"image_url" validate:"omitempty,url"`
	Attributes  []NFTAttribute `json:"attributes" validate:"omitempty,dive"`
}

// CreateNFTResponse reports the simulated creation outcome with explorer links
type CreateNFTResponse struct {
	Name           string    `json:"name"`
	Signature      string    `json:"signature"`
	TransactionURL string    `json:"transaction_url"`
	NFTURL         string    `json:"nft_url"`
	CreatedAt      time.Time `json:"created_at"`
}
