package dto

import (
	"time"

	"github.com/escrow-marketplace/backend/internal/ton"
)

type ProofVerifyRequest struct {
	Address   string    `json:"address"` // raw form "0:<hash>"
	Network   string    `json:"network"`
	PublicKey string    `json:"public_key"`
	Proof     ton.Proof `json:"proof"`
}

type AddTokenRequest struct {
	Symbol       string `json:"symbol"`
	AssetHandle  string `json:"asset_handle"` // "native" or a jetton master address
	PriceFeedRef string `json:"price_feed_ref"`
	Decimals     int    `json:"decimals"`
}

type GrantRoleRequest struct {
	Address string `json:"address"`
	Role    string `json:"role"`
}

type CreateDealRequest struct {
	SenderAddress   string    `json:"sender_address"`
	ReceiverAddress string    `json:"receiver_address"`
	PriceUSD        string    `json:"price_usd"`
	TokenSymbol     string    `json:"token_symbol"`
	Deadline        time.Time `json:"deadline"`
}

type PayDealRequest struct {
	// AttachedAmount is the asset amount the sender attaches when the deal
	// token is native. Ignored for fungible tokens, where the escrow pulls
	// from the sender's allowance instead.
	AttachedAmount string `json:"attached_amount,omitempty"`
}

type CreditRequest struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Amount  string `json:"amount"`
}

type ApproveRequest struct {
	Symbol string `json:"symbol"`
	Amount string `json:"amount"`
}
