package services

import (
	"context"
	"errors"
	"testing"

	"github.com/escrow-marketplace/backend/internal/models"
	"github.com/escrow-marketplace/backend/internal/rbac"
	"go.uber.org/zap"
)

func newRegistryFixture(t *testing.T) (*RegistryService, *fakeTokenStore, *fakeRoleStore) {
	t.Helper()
	tokens := newFakeTokenStore()
	roles := newFakeRoleStore()
	_ = roles.Grant(context.Background(), testAdmin, rbac.RoleAdmin, "bootstrap")
	svc := NewRegistryService(tokens, roles, &fakeAudit{}, zap.NewNop())
	return svc, tokens, roles
}

func TestAddToken(t *testing.T) {
	svc, _, _ := newRegistryFixture(t)
	ctx := context.Background()

	token, err := svc.AddToken(ctx, testAdmin, "usdt", "EQjetton-master", "usdt-usd", 6)
	if err != nil {
		t.Fatalf("AddToken error: %v", err)
	}
	if token.Symbol != "USDT" {
		t.Errorf("symbol = %q, want uppercased USDT", token.Symbol)
	}

	// Same symbol again, any case: rejected, existing entry untouched.
	if _, err := svc.AddToken(ctx, testAdmin, "USDT", "EQother", "other-feed", 9); !errors.Is(err, models.ErrDuplicateToken) {
		t.Fatalf("duplicate: err = %v, want ErrDuplicateToken", err)
	}
	got, err := svc.ResolveToken(ctx, "usdt")
	if err != nil {
		t.Fatal(err)
	}
	if got.AssetHandle != "EQjetton-master" || got.Decimals != 6 {
		t.Errorf("existing entry mutated: %+v", got)
	}
}

func TestAddTokenRejectsNonAdmin(t *testing.T) {
	svc, _, _ := newRegistryFixture(t)

	_, err := svc.AddToken(context.Background(), testLawyer, "USDT", "EQjetton", "usdt-usd", 6)
	if !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestAddTokenValidation(t *testing.T) {
	svc, _, _ := newRegistryFixture(t)
	ctx := context.Background()

	if _, err := svc.AddToken(ctx, testAdmin, "", "EQx", "feed", 6); err == nil {
		t.Error("empty symbol accepted")
	}
	if _, err := svc.AddToken(ctx, testAdmin, "X", "", "feed", 6); err == nil {
		t.Error("empty asset handle accepted")
	}
	if _, err := svc.AddToken(ctx, testAdmin, "X", "EQx", "", 6); err == nil {
		t.Error("empty feed ref accepted")
	}
	if _, err := svc.AddToken(ctx, testAdmin, "X", "EQx", "feed", 19); err == nil {
		t.Error("decimals above 18 accepted")
	}
	if _, err := svc.AddToken(ctx, testAdmin, "X", "EQx", "feed", -1); err == nil {
		t.Error("negative decimals accepted")
	}
}

func TestGrantRole(t *testing.T) {
	svc, _, roles := newRegistryFixture(t)
	ctx := context.Background()

	if err := svc.GrantRole(ctx, testAdmin, testLawyer, rbac.RoleLawyer); err != nil {
		t.Fatalf("GrantRole error: %v", err)
	}
	ok, _ := roles.HasRole(ctx, testLawyer, rbac.RoleLawyer)
	if !ok {
		t.Error("role not granted")
	}

	if err := svc.GrantRole(ctx, testLawyer, testSender, rbac.RoleLawyer); !errors.Is(err, models.ErrUnauthorized) {
		t.Errorf("non-admin grant: err = %v, want ErrUnauthorized", err)
	}
	if err := svc.GrantRole(ctx, testAdmin, testSender, "janitor"); err == nil {
		t.Error("unknown role accepted")
	}

	// Idempotent re-grant.
	if err := svc.GrantRole(ctx, testAdmin, testLawyer, rbac.RoleLawyer); err != nil {
		t.Errorf("re-grant error: %v", err)
	}
}

func TestBootstrap(t *testing.T) {
	svc, tokens, roles := newRegistryFixture(t)
	ctx := context.Background()

	admins := []string{"0:a1"}
	lawyers := []string{"0:l1", "0:l2"}

	if err := svc.Bootstrap(ctx, admins, lawyers, "ton", "ton-usd", 9); err != nil {
		t.Fatalf("Bootstrap error: %v", err)
	}

	if ok, _ := roles.HasRole(ctx, "0:a1", rbac.RoleAdmin); !ok {
		t.Error("admin not seeded")
	}
	if ok, _ := roles.HasRole(ctx, "0:l2", rbac.RoleLawyer); !ok {
		t.Error("lawyer not seeded")
	}

	native, err := tokens.Get(ctx, "TON")
	if err != nil {
		t.Fatalf("native token not seeded: %v", err)
	}
	if !native.IsNative() || native.Decimals != 9 {
		t.Errorf("native entry = %+v", native)
	}

	// Second run is a no-op, not a failure.
	if err := svc.Bootstrap(ctx, admins, lawyers, "TON", "ton-usd", 9); err != nil {
		t.Fatalf("second Bootstrap error: %v", err)
	}
}
