package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is one (address, symbol) balance row of the internal bank ledger.
// Escrow custody lives on a reserved internal address.
type Account struct {
	Address   string    `json:"address"`
	Symbol    string    `json:"symbol"`
	Balance   string    `json:"balance"` // numeric as string
	UpdatedAt time.Time `json:"updated_at"`
}

// Allowance lets a spender pull up to Amount of the owner's tokens.
// payDeal consumes exactly the required amount from the sender's allowance
// for the escrow account.
type Allowance struct {
	OwnerAddress   string    `json:"owner_address"`
	SpenderAddress string    `json:"spender_address"`
	Symbol         string    `json:"symbol"`
	Amount         string    `json:"amount"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ProofPayload is a single-use nonce issued for wallet-proof auth.
type ProofPayload struct {
	ID        uuid.UUID `json:"id"`
	Payload   string    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
}
