package models

import "errors"

// Failure taxonomy surfaced at the API boundary. Services wrap these with
// context; handlers map them to HTTP codes with errors.Is.
var (
	ErrUnauthorized      = errors.New("caller lacks the required role")
	ErrUnknownToken      = errors.New("token symbol is not registered")
	ErrDuplicateToken    = errors.New("token symbol is already registered")
	ErrDealNotFound      = errors.New("deal not found")
	ErrInvalidState      = errors.New("operation not valid in current deal status")
	ErrDeadlineExceeded  = errors.New("payment deadline has passed")
	ErrInsufficientFunds = errors.New("attached amount does not cover the required amount")
	ErrTransferFailed    = errors.New("asset transfer failed")
	ErrPriceUnavailable  = errors.New("no fresh price quote available")
)
