package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/escrow-marketplace/backend/internal/models"
	"github.com/escrow-marketplace/backend/internal/rbac"
	"go.uber.org/zap"
)

// TokenRegistry is the mutable side of the token store.
type TokenRegistry interface {
	TokenStore
	Add(ctx context.Context, t *models.TokenEntry) error
	List(ctx context.Context) ([]models.TokenEntry, error)
}

// RoleRegistry is the mutable side of the role store.
type RoleRegistry interface {
	RoleStore
	Grant(ctx context.Context, address, role, grantedBy string) error
	ListByAddress(ctx context.Context, address string) ([]string, error)
}

// RegistryService manages the two admin-gated registries: settlement tokens
// and role grants.
type RegistryService struct {
	tokens    TokenRegistry
	roles     RoleRegistry
	auditRepo AuditLogger
	log       *zap.Logger
}

func NewRegistryService(tokens TokenRegistry, roles RoleRegistry, auditRepo AuditLogger, log *zap.Logger) *RegistryService {
	return &RegistryService{tokens: tokens, roles: roles, auditRepo: auditRepo, log: log}
}

func (s *RegistryService) requireAdmin(ctx context.Context, caller string) error {
	ok, err := s.roles.HasRole(ctx, caller, rbac.RoleAdmin)
	if err != nil {
		return fmt.Errorf("role lookup: %w", err)
	}
	if !ok {
		return fmt.Errorf("address %s is not an admin: %w", caller, models.ErrUnauthorized)
	}
	return nil
}

// AddToken registers a settlement asset. Admin-only; duplicate symbols are
// rejected, and entries are permanent once referenced by a deal (there is no
// removal path at all).
func (s *RegistryService) AddToken(ctx context.Context, caller, symbol, assetHandle, priceFeedRef string, decimals int) (*models.TokenEntry, error) {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return nil, err
	}

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("token symbol is required")
	}
	if assetHandle == "" || priceFeedRef == "" {
		return nil, fmt.Errorf("asset_handle and price_feed_ref are required")
	}
	if decimals < 0 || decimals > 18 {
		return nil, fmt.Errorf("decimals out of range: %d", decimals)
	}

	token := &models.TokenEntry{
		Symbol:       symbol,
		AssetHandle:  assetHandle,
		PriceFeedRef: priceFeedRef,
		Decimals:     decimals,
	}
	if err := s.tokens.Add(ctx, token); err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorAddress: &caller,
		ActorType:    "admin",
		Action:       "token_registered",
		EntityType:   "token",
		EntityID:     &token.Symbol,
		Meta:         map[string]any{"asset_handle": assetHandle, "price_feed_ref": priceFeedRef},
	})

	s.log.Info("token registered",
		zap.String("symbol", symbol),
		zap.String("asset_handle", assetHandle),
	)
	return token, nil
}

func (s *RegistryService) ResolveToken(ctx context.Context, symbol string) (*models.TokenEntry, error) {
	return s.tokens.Get(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
}

func (s *RegistryService) ListTokens(ctx context.Context) ([]models.TokenEntry, error) {
	return s.tokens.List(ctx)
}

// GrantRole adds a role to an address. Admin-only; grants are additive and
// idempotent.
func (s *RegistryService) GrantRole(ctx context.Context, caller, address, role string) error {
	if err := s.requireAdmin(ctx, caller); err != nil {
		return err
	}
	if address == "" {
		return fmt.Errorf("address is required")
	}
	if !rbac.Valid(role) {
		return fmt.Errorf("unknown role %q", role)
	}

	if err := s.roles.Grant(ctx, address, role, caller); err != nil {
		return err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorAddress: &caller,
		ActorType:    "admin",
		Action:       "role_granted",
		EntityType:   "role",
		EntityID:     &address,
		Meta:         map[string]any{"role": role},
	})
	return nil
}

func (s *RegistryService) RolesOf(ctx context.Context, address string) ([]string, error) {
	return s.roles.ListByAddress(ctx, address)
}

// Bootstrap seeds the role registry and the native token entry from config.
// Idempotent; runs at startup of every process that mutates state.
func (s *RegistryService) Bootstrap(ctx context.Context, admins, lawyers []string, nativeSymbol, nativeFeedRef string, nativeDecimals int) error {
	for _, a := range admins {
		if err := s.roles.Grant(ctx, a, rbac.RoleAdmin, "bootstrap"); err != nil {
			return fmt.Errorf("grant admin to %s: %w", a, err)
		}
	}
	for _, a := range lawyers {
		if err := s.roles.Grant(ctx, a, rbac.RoleLawyer, "bootstrap"); err != nil {
			return fmt.Errorf("grant lawyer to %s: %w", a, err)
		}
	}

	nativeSymbol = strings.ToUpper(strings.TrimSpace(nativeSymbol))
	if nativeSymbol == "" {
		return nil
	}
	if _, err := s.tokens.Get(ctx, nativeSymbol); err == nil {
		return nil
	}
	err := s.tokens.Add(ctx, &models.TokenEntry{
		Symbol:       nativeSymbol,
		AssetHandle:  models.AssetHandleNative,
		PriceFeedRef: nativeFeedRef,
		Decimals:     nativeDecimals,
	})
	if err != nil && !errors.Is(err, models.ErrDuplicateToken) {
		return fmt.Errorf("seed native token %s: %w", nativeSymbol, err)
	}
	s.log.Info("native token seeded", zap.String("symbol", nativeSymbol))
	return nil
}
