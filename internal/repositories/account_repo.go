package repositories

import (
	"context"
	"errors"

	"github.com/escrow-marketplace/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepo is the internal bank ledger: balances per (address, symbol) and
// pull allowances. Deal-coupled transfers live in DealRepo so they share a
// transaction with the status transition; this repo covers the standalone
// operations (deposits, approvals, reads).
type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

// Deposit credits an address. Used by the deposit indexer when an on-chain
// transfer arrives and by the admin credit endpoint.
func (r *AccountRepo) Deposit(ctx context.Context, address, symbol, amount string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (address, symbol, balance) VALUES ($1, $2, $3::numeric)
		ON CONFLICT (address, symbol) DO UPDATE SET
			balance = accounts.balance + EXCLUDED.balance,
			updated_at = now()
	`, address, symbol, amount)
	return err
}

// Approve sets (not adds) the spender's allowance over the owner's tokens.
func (r *AccountRepo) Approve(ctx context.Context, owner, spender, symbol, amount string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO allowances (owner_address, spender_address, symbol, amount)
		VALUES ($1, $2, $3, $4::numeric)
		ON CONFLICT (owner_address, spender_address, symbol) DO UPDATE SET
			amount = EXCLUDED.amount,
			updated_at = now()
	`, owner, spender, symbol, amount)
	return err
}

func (r *AccountRepo) Balance(ctx context.Context, address, symbol string) (string, error) {
	var balance string
	err := r.pool.QueryRow(ctx, `
		SELECT balance::text FROM accounts WHERE address = $1 AND symbol = $2
	`, address, symbol).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return "0", nil
	}
	if err != nil {
		return "", err
	}
	return balance, nil
}

func (r *AccountRepo) Allowance(ctx context.Context, owner, spender, symbol string) (string, error) {
	var amount string
	err := r.pool.QueryRow(ctx, `
		SELECT amount::text FROM allowances
		WHERE owner_address = $1 AND spender_address = $2 AND symbol = $3
	`, owner, spender, symbol).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return "0", nil
	}
	if err != nil {
		return "", err
	}
	return amount, nil
}

func (r *AccountRepo) ListByAddress(ctx context.Context, address string) ([]models.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT address, symbol, balance::text, updated_at
		FROM accounts WHERE address = $1 ORDER BY symbol
	`, address)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.Address, &a.Symbol, &a.Balance, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}
