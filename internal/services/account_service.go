package services

import (
	"context"
	"fmt"

	"github.com/escrow-marketplace/backend/internal/amount"
	"github.com/escrow-marketplace/backend/internal/config"
	"github.com/escrow-marketplace/backend/internal/models"
	"github.com/escrow-marketplace/backend/internal/rbac"
	"go.uber.org/zap"
)

// Bank is the internal ledger surface used outside of deal transitions.
type Bank interface {
	Deposit(ctx context.Context, address, symbol, amount string) error
	Approve(ctx context.Context, owner, spender, symbol, amount string) error
	Balance(ctx context.Context, address, symbol string) (string, error)
	Allowance(ctx context.Context, owner, spender, symbol string) (string, error)
	ListByAddress(ctx context.Context, address string) ([]models.Account, error)
}

// AccountService covers balances and allowances around the escrow core:
// admin credits (the ops on-ramp for fungible assets), the sender-side
// approval that precedes a fungible payDeal, and read accessors.
type AccountService struct {
	bank      Bank
	tokens    TokenStore
	roles     RoleStore
	auditRepo AuditLogger
	cfg       *config.Config
	log       *zap.Logger
}

func NewAccountService(bank Bank, tokens TokenStore, roles RoleStore, auditRepo AuditLogger, cfg *config.Config, log *zap.Logger) *AccountService {
	return &AccountService{bank: bank, tokens: tokens, roles: roles, auditRepo: auditRepo, cfg: cfg, log: log}
}

// Credit adds funds to an address. Admin-only.
func (s *AccountService) Credit(ctx context.Context, caller, address, symbol, value string) error {
	ok, err := s.roles.HasRole(ctx, caller, rbac.RoleAdmin)
	if err != nil {
		return fmt.Errorf("role lookup: %w", err)
	}
	if !ok {
		return fmt.Errorf("address %s is not an admin: %w", caller, models.ErrUnauthorized)
	}

	value, err = amount.Canonical(value)
	if err != nil || !amount.IsPositive(value) {
		return fmt.Errorf("credit amount must be a positive decimal")
	}
	if _, err := s.tokens.Get(ctx, symbol); err != nil {
		return err
	}

	if err := s.bank.Deposit(ctx, address, symbol, value); err != nil {
		return err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorAddress: &caller,
		ActorType:    "admin",
		Action:       "account_credited",
		EntityType:   "account",
		EntityID:     &address,
		Meta:         map[string]any{"symbol": symbol, "amount": value},
	})
	return nil
}

// Approve sets the caller's allowance towards the escrow custody account.
// payDeal later pulls the required amount from it.
func (s *AccountService) Approve(ctx context.Context, caller, symbol, value string) error {
	value, err := amount.Canonical(value)
	if err != nil {
		return fmt.Errorf("allowance amount must be a decimal")
	}
	if _, err := s.tokens.Get(ctx, symbol); err != nil {
		return err
	}
	return s.bank.Approve(ctx, caller, s.cfg.EscrowAccountAddress, symbol, value)
}

func (s *AccountService) Balance(ctx context.Context, address, symbol string) (string, error) {
	return s.bank.Balance(ctx, address, symbol)
}

func (s *AccountService) Allowance(ctx context.Context, owner, symbol string) (string, error) {
	return s.bank.Allowance(ctx, owner, s.cfg.EscrowAccountAddress, symbol)
}

func (s *AccountService) Balances(ctx context.Context, address string) ([]models.Account, error) {
	return s.bank.ListByAddress(ctx, address)
}
