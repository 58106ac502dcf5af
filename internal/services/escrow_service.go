package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/escrow-marketplace/backend/internal/amount"
	"github.com/escrow-marketplace/backend/internal/config"
	"github.com/escrow-marketplace/backend/internal/events"
	"github.com/escrow-marketplace/backend/internal/models"
	"github.com/escrow-marketplace/backend/internal/oracle"
	"github.com/escrow-marketplace/backend/internal/rbac"
	"github.com/escrow-marketplace/backend/internal/repositories"
	"go.uber.org/zap"
)

// DealStore is the deal ledger the state machine operates on. The Pay*,
// Finalize and Cancel operations are atomic: the status transition and any
// fund movement commit together or not at all, with the source-status guard
// enforced inside the store so concurrent mutators serialize safely.
type DealStore interface {
	Create(ctx context.Context, d *models.Deal) error
	GetByID(ctx context.Context, id int64) (*models.Deal, error)
	List(ctx context.Context, f repositories.DealFilter) ([]models.Deal, error)
	PayNative(ctx context.Context, dealID int64, sender, escrowAddr, symbol, amount string) error
	PayFungible(ctx context.Context, dealID int64, sender, escrowAddr, symbol, amount string) error
	Finalize(ctx context.Context, dealID int64, escrowAddr, receiver, symbol, amount string) error
	Cancel(ctx context.Context, dealID int64) error
}

// TokenStore resolves settlement assets.
type TokenStore interface {
	Get(ctx context.Context, symbol string) (*models.TokenEntry, error)
}

// RoleStore answers role-gating checks.
type RoleStore interface {
	HasRole(ctx context.Context, address, role string) (bool, error)
}

// AuditLogger records lifecycle actions. Audit failures never fail the
// operation itself.
type AuditLogger interface {
	Log(ctx context.Context, entry models.AuditLog) error
}

// EscrowService is the deal escrow state machine:
//
//	created --pay(sender, before deadline, full amount)--> paid
//	paid    --finalize(lawyer)-->                          finalized
//	created --cancel(lawyer)-->                            cancelled
//
// Every other transition is rejected with ErrInvalidState. The caller address
// is always explicit; there is no ambient identity.
type EscrowService struct {
	deals     DealStore
	tokens    TokenStore
	roles     RoleStore
	prices    oracle.Source
	auditRepo AuditLogger
	publisher events.Publisher
	cfg       *config.Config
	log       *zap.Logger
	now       func() time.Time
}

func NewEscrowService(
	deals DealStore,
	tokens TokenStore,
	roles RoleStore,
	prices oracle.Source,
	auditRepo AuditLogger,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *EscrowService {
	return &EscrowService{
		deals:     deals,
		tokens:    tokens,
		roles:     roles,
		prices:    prices,
		auditRepo: auditRepo,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// SetNowFunc overrides the service clock. Intended for tests.
func (s *EscrowService) SetNowFunc(now func() time.Time) {
	if now == nil {
		s.now = time.Now
		return
	}
	s.now = now
}

func (s *EscrowService) requireRole(ctx context.Context, caller, role string) error {
	ok, err := s.roles.HasRole(ctx, caller, role)
	if err != nil {
		return fmt.Errorf("role lookup: %w", err)
	}
	if !ok {
		return fmt.Errorf("address %s is not a %s: %w", caller, role, models.ErrUnauthorized)
	}
	return nil
}

// CreateDeal opens a new deal in created status. Lawyer-only. The deadline
// must be in the future and the settlement token must already be registered.
func (s *EscrowService) CreateDeal(ctx context.Context, caller, sender, receiver, priceUSD, tokenSymbol string, deadline time.Time) (*models.Deal, error) {
	if err := s.requireRole(ctx, caller, rbac.RoleLawyer); err != nil {
		return nil, err
	}

	price, err := amount.Canonical(priceUSD)
	if err != nil || !amount.IsPositive(price) {
		return nil, fmt.Errorf("price_usd must be a positive decimal, got %q", priceUSD)
	}
	if sender == "" || receiver == "" {
		return nil, fmt.Errorf("sender and receiver addresses are required")
	}
	if _, err := s.tokens.Get(ctx, tokenSymbol); err != nil {
		return nil, err
	}
	if !deadline.After(s.now()) {
		return nil, fmt.Errorf("deadline %s is not in the future", deadline.Format(time.RFC3339))
	}

	deal := &models.Deal{
		SenderAddress:   sender,
		ReceiverAddress: receiver,
		PriceUSD:        price,
		TokenSymbol:     tokenSymbol,
		Deadline:        deadline,
		Status:          models.DealStatusCreated,
	}
	if err := s.deals.Create(ctx, deal); err != nil {
		return nil, err
	}

	s.audit(ctx, &caller, "deal_created", deal.ID, map[string]any{
		"sender": sender, "receiver": receiver,
		"price_usd": price, "token_symbol": tokenSymbol,
	})
	_ = s.publisher.Publish(ctx, events.StreamDeals, events.Event{
		Type:    events.EventNewDeal,
		Payload: map[string]any{"deal_id": deal.ID},
	})

	s.log.Info("deal created",
		zap.Int64("deal_id", deal.ID),
		zap.String("token_symbol", tokenSymbol),
		zap.String("price_usd", price),
	)
	return deal, nil
}

// PayDeal settles a created deal before its deadline. Only the designated
// sender may pay. The USD price is converted at one oracle snapshot; the
// required asset amount is the quotient rounded up at the token's precision.
//
// Native settlement expects attachedAmount to match the required amount
// exactly; fungible settlement ignores attachedAmount and pulls the required
// amount from the sender's allowance for the escrow account.
func (s *EscrowService) PayDeal(ctx context.Context, caller string, dealID int64, attachedAmount string) error {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return err
	}
	if deal.SenderAddress != caller {
		return fmt.Errorf("only the designated sender may pay deal %d: %w", dealID, models.ErrUnauthorized)
	}
	if deal.Status != models.DealStatusCreated {
		return fmt.Errorf("deal %d is %s: %w", dealID, deal.Status, models.ErrInvalidState)
	}
	if s.now().After(deal.Deadline) {
		return fmt.Errorf("deal %d deadline was %s: %w", dealID, deal.Deadline.Format(time.RFC3339), models.ErrDeadlineExceeded)
	}

	token, err := s.tokens.Get(ctx, deal.TokenSymbol)
	if err != nil {
		return err
	}

	required, err := s.convert(ctx, deal.PriceUSD, token)
	if err != nil {
		return err
	}

	if token.IsNative() {
		// Exact match: no partial payments and no overpayment refunds.
		cmp, err := amount.Cmp(attachedAmount, required)
		if err != nil || cmp != 0 {
			return fmt.Errorf("attached %q, required %s %s: %w", attachedAmount, required, token.Symbol, models.ErrInsufficientFunds)
		}
		err = s.deals.PayNative(ctx, dealID, deal.SenderAddress, s.cfg.EscrowAccountAddress, token.Symbol, required)
		if err != nil {
			return err
		}
	} else {
		err = s.deals.PayFungible(ctx, dealID, deal.SenderAddress, s.cfg.EscrowAccountAddress, token.Symbol, required)
		if err != nil {
			return err
		}
	}

	s.audit(ctx, &caller, "deal_paid", dealID, map[string]any{
		"paid_amount": required, "token_symbol": token.Symbol,
	})
	s.publishStatus(ctx, dealID, models.DealStatusCreated, models.DealStatusPaid)
	_ = s.publisher.Publish(ctx, events.StreamDeals, events.Event{
		Type: events.EventPaymentReceived,
		Payload: map[string]any{
			"deal_id": dealID, "amount": required, "symbol": token.Symbol,
		},
	})

	s.log.Info("deal paid",
		zap.Int64("deal_id", dealID),
		zap.String("paid_amount", required),
		zap.String("token_symbol", token.Symbol),
	)
	return nil
}

// FinalizeDeal releases escrowed funds to the receiver. Lawyer-only, valid
// only from paid status; a second call finds the deal finalized and fails
// without a double transfer.
func (s *EscrowService) FinalizeDeal(ctx context.Context, caller string, dealID int64) error {
	if err := s.requireRole(ctx, caller, rbac.RoleLawyer); err != nil {
		return err
	}

	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return err
	}
	if deal.Status != models.DealStatusPaid {
		return fmt.Errorf("deal %d is %s: %w", dealID, deal.Status, models.ErrInvalidState)
	}

	err = s.deals.Finalize(ctx, dealID, s.cfg.EscrowAccountAddress, deal.ReceiverAddress, deal.TokenSymbol, deal.PaidAmount)
	if err != nil {
		return err
	}

	s.audit(ctx, &caller, "deal_finalized", dealID, map[string]any{
		"receiver": deal.ReceiverAddress, "amount": deal.PaidAmount,
	})
	s.publishStatus(ctx, dealID, models.DealStatusPaid, models.DealStatusFinalized)

	s.log.Info("deal finalized",
		zap.Int64("deal_id", dealID),
		zap.String("receiver", deal.ReceiverAddress),
		zap.String("amount", deal.PaidAmount),
	)
	return nil
}

// CancelDeal voids a deal that has not been paid. Lawyer-only. Nothing is
// escrowed in created status, so no funds move. Cancellation after payment
// is not supported.
func (s *EscrowService) CancelDeal(ctx context.Context, caller string, dealID int64) error {
	if err := s.requireRole(ctx, caller, rbac.RoleLawyer); err != nil {
		return err
	}

	if _, err := s.deals.GetByID(ctx, dealID); err != nil {
		return err
	}
	if err := s.deals.Cancel(ctx, dealID); err != nil {
		return err
	}

	s.audit(ctx, &caller, "deal_cancelled", dealID, nil)
	s.publishStatus(ctx, dealID, models.DealStatusCreated, models.DealStatusCancelled)
	return nil
}

func (s *EscrowService) GetDeal(ctx context.Context, dealID int64) (*models.Deal, error) {
	return s.deals.GetByID(ctx, dealID)
}

func (s *EscrowService) ListDeals(ctx context.Context, f repositories.DealFilter) ([]models.Deal, error) {
	return s.deals.List(ctx, f)
}

// QuotePayment returns the asset amount currently required to pay a deal.
// For a deal already paid it returns the recorded paid amount. The quote is
// informational: payment itself re-converts at its own snapshot.
func (s *EscrowService) QuotePayment(ctx context.Context, dealID int64) (*models.Deal, string, error) {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		return nil, "", err
	}
	if deal.Status != models.DealStatusCreated {
		return deal, deal.PaidAmount, nil
	}

	token, err := s.tokens.Get(ctx, deal.TokenSymbol)
	if err != nil {
		return nil, "", err
	}
	required, err := s.convert(ctx, deal.PriceUSD, token)
	if err != nil {
		return nil, "", err
	}
	return deal, required, nil
}

// convert turns the deal's USD price into settlement-asset units using one
// fresh oracle snapshot. The same quote backs the entire computation.
func (s *EscrowService) convert(ctx context.Context, priceUSD string, token *models.TokenEntry) (string, error) {
	quote, err := s.prices.Latest(ctx, token.PriceFeedRef)
	if err != nil {
		return "", fmt.Errorf("feed %s: %v: %w", token.PriceFeedRef, err, models.ErrPriceUnavailable)
	}
	if !quote.Fresh(s.now(), s.cfg.PriceMaxAge) {
		return "", fmt.Errorf("feed %s quote from %s is stale: %w", token.PriceFeedRef, quote.AsOf.Format(time.RFC3339), models.ErrPriceUnavailable)
	}

	price, err := amount.Parse(priceUSD)
	if err != nil {
		return "", err
	}
	required, err := amount.RequiredAsset(price, quote.Rate(), token.Decimals)
	if err != nil {
		return "", fmt.Errorf("convert %s USD via %s: %w", priceUSD, token.PriceFeedRef, err)
	}
	return required, nil
}

func (s *EscrowService) audit(ctx context.Context, actor *string, action string, dealID int64, meta map[string]any) {
	id := strconv.FormatInt(dealID, 10)
	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorAddress: actor,
		ActorType:    "user",
		Action:       action,
		EntityType:   "deal",
		EntityID:     &id,
		Meta:         meta,
	})
}

func (s *EscrowService) publishStatus(ctx context.Context, dealID int64, oldStatus, newStatus string) {
	_ = s.publisher.Publish(ctx, events.StreamDeals, events.Event{
		Type: events.EventDealStatusChanged,
		Payload: map[string]any{
			"deal_id":    dealID,
			"old_status": oldStatus,
			"new_status": newStatus,
		},
	})
}
