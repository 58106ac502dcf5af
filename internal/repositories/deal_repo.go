package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/escrow-marketplace/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dealColumns = `id, sender_address, receiver_address, price_usd::text, token_symbol,
	       deadline, paid_amount::text, status, created_at, updated_at`

// DealRepo is the append-only deal ledger. IDs come from a BIGSERIAL sequence
// so they are strictly increasing from 1 and never reused; rows are never
// deleted. All mutations are single guarded UPDATE statements (or
// transactions built from them), so a transition either fully commits or
// leaves nothing behind.
type DealRepo struct {
	pool *pgxpool.Pool
}

func NewDealRepo(pool *pgxpool.Pool) *DealRepo {
	return &DealRepo{pool: pool}
}

func (r *DealRepo) Create(ctx context.Context, d *models.Deal) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO deals (sender_address, receiver_address, price_usd, token_symbol, deadline, paid_amount, status)
		VALUES ($1, $2, $3::numeric, $4, $5, '0', $6)
		RETURNING id, paid_amount::text, created_at, updated_at
	`, d.SenderAddress, d.ReceiverAddress, d.PriceUSD, d.TokenSymbol, d.Deadline, models.DealStatusCreated,
	).Scan(&d.ID, &d.PaidAmount, &d.CreatedAt, &d.UpdatedAt)
}

func (r *DealRepo) GetByID(ctx context.Context, id int64) (*models.Deal, error) {
	var d models.Deal
	err := r.pool.QueryRow(ctx, `
		SELECT `+dealColumns+`
		FROM deals WHERE id = $1
	`, id).Scan(&d.ID, &d.SenderAddress, &d.ReceiverAddress, &d.PriceUSD, &d.TokenSymbol,
		&d.Deadline, &d.PaidAmount, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrDealNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

type DealFilter struct {
	SenderAddress   *string
	ReceiverAddress *string
	Status          *string
	Limit           int
	Offset          int
}

func (r *DealRepo) List(ctx context.Context, f DealFilter) ([]models.Deal, error) {
	query := `SELECT ` + dealColumns + ` FROM deals`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.SenderAddress != nil {
		where = append(where, fmt.Sprintf("sender_address = $%d", argIdx))
		args = append(args, *f.SenderAddress)
		argIdx++
	}
	if f.ReceiverAddress != nil {
		where = append(where, fmt.Sprintf("receiver_address = $%d", argIdx))
		args = append(args, *f.ReceiverAddress)
		argIdx++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *f.Status)
		argIdx++
	}

	if len(where) > 0 {
		query += " WHERE "
		for i, w := range where {
			if i > 0 {
				query += " AND "
			}
			query += w
		}
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deals []models.Deal
	for rows.Next() {
		var d models.Deal
		if err := rows.Scan(&d.ID, &d.SenderAddress, &d.ReceiverAddress, &d.PriceUSD, &d.TokenSymbol,
			&d.Deadline, &d.PaidAmount, &d.Status, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	return deals, nil
}

func (r *DealRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM deals`).Scan(&n)
	return n, err
}

// markStatus flips a deal from one status to another inside tx. Zero rows
// matched means the deal is not in the expected source state.
func markStatus(ctx context.Context, tx pgx.Tx, dealID int64, from, to string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE deals SET status = $1, updated_at = now() WHERE id = $2 AND status = $3
	`, to, dealID, from)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrInvalidState
	}
	return nil
}

// PayNative executes the native-coin payment transition: debit the sender's
// native balance, credit escrow custody, set paid_amount and flip the deal to
// paid — one transaction, all or nothing.
func (r *DealRepo) PayNative(ctx context.Context, dealID int64, sender, escrowAddr, symbol, amount string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := markPaid(ctx, tx, dealID, amount); err != nil {
		return err
	}
	if err := debit(ctx, tx, sender, symbol, amount); err != nil {
		return err
	}
	if err := credit(ctx, tx, escrowAddr, symbol, amount); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// PayFungible executes the fungible-token payment transition: consume the
// sender's allowance for the escrow account, then move the balance exactly
// like PayNative.
func (r *DealRepo) PayFungible(ctx context.Context, dealID int64, sender, escrowAddr, symbol, amount string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := markPaid(ctx, tx, dealID, amount); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE allowances SET amount = amount - $1::numeric, updated_at = now()
		WHERE owner_address = $2 AND spender_address = $3 AND symbol = $4 AND amount >= $1::numeric
	`, amount, sender, escrowAddr, symbol)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("allowance %s/%s below %s %s: %w", sender, escrowAddr, amount, symbol, models.ErrTransferFailed)
	}

	if err := debit(ctx, tx, sender, symbol, amount); err != nil {
		return err
	}
	if err := credit(ctx, tx, escrowAddr, symbol, amount); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Finalize releases custody to the receiver and flips the deal to finalized.
// A failed transfer rolls the status change back with it.
func (r *DealRepo) Finalize(ctx context.Context, dealID int64, escrowAddr, receiver, symbol, amount string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := markStatus(ctx, tx, dealID, models.DealStatusPaid, models.DealStatusFinalized); err != nil {
		return err
	}
	if err := debit(ctx, tx, escrowAddr, symbol, amount); err != nil {
		return err
	}
	if err := credit(ctx, tx, receiver, symbol, amount); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Cancel flips a created deal to cancelled. No funds move: nothing has been
// escrowed yet in the created status.
func (r *DealRepo) Cancel(ctx context.Context, dealID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE deals SET status = $1, updated_at = now() WHERE id = $2 AND status = $3
	`, models.DealStatusCancelled, dealID, models.DealStatusCreated)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrInvalidState
	}
	return nil
}

func markPaid(ctx context.Context, tx pgx.Tx, dealID int64, amount string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE deals SET status = $1, paid_amount = $2::numeric, updated_at = now()
		WHERE id = $3 AND status = $4
	`, models.DealStatusPaid, amount, dealID, models.DealStatusCreated)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrInvalidState
	}
	return nil
}

func debit(ctx context.Context, tx pgx.Tx, address, symbol, amount string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE accounts SET balance = balance - $1::numeric, updated_at = now()
		WHERE address = $2 AND symbol = $3 AND balance >= $1::numeric
	`, amount, address, symbol)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("balance of %s below %s %s: %w", address, amount, symbol, models.ErrTransferFailed)
	}
	return nil
}

func credit(ctx context.Context, tx pgx.Tx, address, symbol, amount string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO accounts (address, symbol, balance) VALUES ($1, $2, $3::numeric)
		ON CONFLICT (address, symbol) DO UPDATE SET
			balance = accounts.balance + EXCLUDED.balance,
			updated_at = now()
	`, address, symbol, amount)
	return err
}
