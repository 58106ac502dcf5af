package models

import "time"

// AssetHandleNative is the reserved asset handle marking the chain's native
// coin. Any other handle is treated as a fungible token (jetton master
// address) settled by allowance pull.
const AssetHandleNative = "native"

// TokenEntry is a supported settlement asset. Entries are created by admins
// and never removed: deals reference tokens by symbol for their whole
// (permanent) lifetime.
type TokenEntry struct {
	Symbol       string    `json:"symbol"`
	AssetHandle  string    `json:"asset_handle"`
	PriceFeedRef string    `json:"price_feed_ref"`
	Decimals     int       `json:"decimals"`
	CreatedAt    time.Time `json:"created_at"`
}

func (t *TokenEntry) IsNative() bool {
	return t.AssetHandle == AssetHandleNative
}
