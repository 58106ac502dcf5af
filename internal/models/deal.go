package models

import "time"

// Deal statuses
const (
	DealStatusCreated   = "created"
	DealStatusPaid      = "paid"
	DealStatusFinalized = "finalized"
	DealStatusCancelled = "cancelled"
)

// Valid state transitions: from -> []to.
// A created deal whose deadline passes is NOT auto-cancelled — it stays
// created forever and simply becomes unpayable.
var ValidDealTransitions = map[string][]string{
	DealStatusCreated:   {DealStatusPaid, DealStatusCancelled},
	DealStatusPaid:      {DealStatusFinalized},
	DealStatusFinalized: {},
	DealStatusCancelled: {},
}

func IsValidTransition(from, to string) bool {
	allowed, ok := ValidDealTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Deal is one brokered escrow transaction: priced in USD, settled in the
// chosen token. All fields except paid_amount and status are immutable after
// creation; paid_amount is set exactly once, on payment.
type Deal struct {
	ID              int64     `json:"id"`
	SenderAddress   string    `json:"sender_address"`
	ReceiverAddress string    `json:"receiver_address"`
	PriceUSD        string    `json:"price_usd"` // numeric as string
	TokenSymbol     string    `json:"token_symbol"`
	Deadline        time.Time `json:"deadline"`
	PaidAmount      string    `json:"paid_amount"` // settlement-asset units, "0" until paid
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Payable reports whether the deal can still accept payment at the given
// moment. The deadline itself is inclusive.
func (d *Deal) Payable(now time.Time) bool {
	return d.Status == DealStatusCreated && !now.After(d.Deadline)
}
