// Package oracle defines the price-feed contract consumed by the escrow core.
// The core only ever asks for the latest USD quote of a settlement asset; how
// the quote is produced (HTTP feed, cache, fixture) is an implementation
// detail behind the Source interface.
package oracle

import (
	"context"
	"math/big"
	"time"
)

// Quote is one price observation: Value scaled by 10^Scale USD per whole
// asset unit, e.g. Value=200000, Scale=2 -> 2000 USD.
type Quote struct {
	Value  *big.Int  `json:"value"`
	Scale  uint8     `json:"scale"`
	AsOf   time.Time `json:"as_of"`
	Source string    `json:"source"`
}

// Rate returns the quote as USD per whole unit.
func (q Quote) Rate() *big.Rat {
	if q.Value == nil {
		return new(big.Rat)
	}
	den := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(q.Scale)), nil)
	return new(big.Rat).SetFrac(new(big.Int).Set(q.Value), den)
}

// Fresh reports whether the quote is no older than maxAge at the given
// moment. A zero maxAge disables the check.
func (q Quote) Fresh(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return true
	}
	return now.Sub(q.AsOf) <= maxAge
}

// Source resolves the latest quote for a price feed reference. Every payDeal
// transition performs exactly one Latest call and uses that snapshot for the
// whole conversion.
type Source interface {
	Latest(ctx context.Context, ref string) (Quote, error)
}
