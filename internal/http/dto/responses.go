package dto

type AuthResponse struct {
	Token   string `json:"token"`
	Address string `json:"address"`
}

type ProofPayloadResponse struct {
	Payload string `json:"payload"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type PaymentInfoResponse struct {
	DealID         int64  `json:"deal_id"`
	TokenSymbol    string `json:"token_symbol"`
	RequiredAmount string `json:"required_amount"`
	PriceUSD       string `json:"price_usd"`
	Status         string `json:"status"`
}

type BalanceResponse struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Balance string `json:"balance"`
}

type AllowanceResponse struct {
	OwnerAddress string `json:"owner_address"`
	Symbol       string `json:"symbol"`
	Amount       string `json:"amount"`
}
