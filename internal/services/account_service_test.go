package services

import (
	"context"
	"errors"
	"testing"

	"github.com/escrow-marketplace/backend/internal/config"
	"github.com/escrow-marketplace/backend/internal/models"
	"github.com/escrow-marketplace/backend/internal/rbac"
	"go.uber.org/zap"
)

// fakeBank adapts fakeLedger to the Bank interface.
type fakeBank struct {
	ledger *fakeLedger
}

func (b *fakeBank) Deposit(_ context.Context, address, symbol, value string) error {
	b.ledger.addBalance(address, symbol, value)
	return nil
}

func (b *fakeBank) Approve(_ context.Context, owner, spender, symbol, value string) error {
	b.ledger.setAllowance(owner, spender, symbol, value)
	return nil
}

func (b *fakeBank) Balance(_ context.Context, address, symbol string) (string, error) {
	return b.ledger.balance(address, symbol), nil
}

func (b *fakeBank) Allowance(_ context.Context, owner, spender, symbol string) (string, error) {
	return b.ledger.allowance(owner, spender, symbol), nil
}

func (b *fakeBank) ListByAddress(_ context.Context, address string) ([]models.Account, error) {
	return nil, nil
}

func newAccountFixture(t *testing.T) (*AccountService, *fakeLedger) {
	t.Helper()
	ctx := context.Background()

	ledger := newFakeLedger()
	tokens := newFakeTokenStore()
	roles := newFakeRoleStore()
	_ = roles.Grant(ctx, testAdmin, rbac.RoleAdmin, "bootstrap")
	_ = tokens.Add(ctx, &models.TokenEntry{Symbol: "USDT", AssetHandle: "EQx", PriceFeedRef: "usdt-usd", Decimals: 6})

	cfg := &config.Config{EscrowAccountAddress: testEscrow}
	svc := NewAccountService(&fakeBank{ledger: ledger}, tokens, roles, &fakeAudit{}, cfg, zap.NewNop())
	return svc, ledger
}

func TestCredit(t *testing.T) {
	svc, ledger := newAccountFixture(t)
	ctx := context.Background()

	if err := svc.Credit(ctx, testAdmin, testSender, "USDT", "150.50"); err != nil {
		t.Fatalf("Credit error: %v", err)
	}
	if b := ledger.balance(testSender, "USDT"); b != "150.5" {
		t.Errorf("balance = %s, want 150.5", b)
	}

	if err := svc.Credit(ctx, testSender, testSender, "USDT", "1"); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("non-admin credit: err = %v, want ErrUnauthorized", err)
	}
	if err := svc.Credit(ctx, testAdmin, testSender, "DOGE", "1"); !errors.Is(err, models.ErrUnknownToken) {
		t.Errorf("unknown token: err = %v, want ErrUnknownToken", err)
	}
	if err := svc.Credit(ctx, testAdmin, testSender, "USDT", "0"); err == nil {
		t.Error("zero credit accepted")
	}
	if err := svc.Credit(ctx, testAdmin, testSender, "USDT", "-5"); err == nil {
		t.Error("negative credit accepted")
	}
}

func TestApproveAndAllowance(t *testing.T) {
	svc, ledger := newAccountFixture(t)
	ctx := context.Background()

	if err := svc.Approve(ctx, testSender, "USDT", "1000"); err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	if a := ledger.allowance(testSender, testEscrow, "USDT"); a != "1000" {
		t.Errorf("allowance = %s, want 1000", a)
	}

	got, err := svc.Allowance(ctx, testSender, "USDT")
	if err != nil {
		t.Fatal(err)
	}
	if got != "1000" {
		t.Errorf("Allowance() = %s, want 1000", got)
	}

	// Approvals overwrite; setting to zero revokes.
	if err := svc.Approve(ctx, testSender, "USDT", "0"); err != nil {
		t.Fatalf("revoke error: %v", err)
	}
	if a := ledger.allowance(testSender, testEscrow, "USDT"); a != "0" {
		t.Errorf("allowance after revoke = %s, want 0", a)
	}

	if err := svc.Approve(ctx, testSender, "DOGE", "5"); !errors.Is(err, models.ErrUnknownToken) {
		t.Errorf("unknown token approve: err = %v, want ErrUnknownToken", err)
	}
}
