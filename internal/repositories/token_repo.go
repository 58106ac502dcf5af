package repositories

import (
	"context"
	"errors"

	"github.com/escrow-marketplace/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TokenRepo struct {
	pool *pgxpool.Pool
}

func NewTokenRepo(pool *pgxpool.Pool) *TokenRepo {
	return &TokenRepo{pool: pool}
}

// Add stores a new token entry. Re-registration of an existing symbol is
// rejected with ErrDuplicateToken (unique constraint on symbol).
func (r *TokenRepo) Add(ctx context.Context, t *models.TokenEntry) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tokens (symbol, asset_handle, price_feed_ref, decimals)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, t.Symbol, t.AssetHandle, t.PriceFeedRef, t.Decimals).Scan(&t.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return models.ErrDuplicateToken
	}
	return err
}

func (r *TokenRepo) Get(ctx context.Context, symbol string) (*models.TokenEntry, error) {
	var t models.TokenEntry
	err := r.pool.QueryRow(ctx, `
		SELECT symbol, asset_handle, price_feed_ref, decimals, created_at
		FROM tokens WHERE symbol = $1
	`, symbol).Scan(&t.Symbol, &t.AssetHandle, &t.PriceFeedRef, &t.Decimals, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrUnknownToken
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TokenRepo) List(ctx context.Context) ([]models.TokenEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT symbol, asset_handle, price_feed_ref, decimals, created_at
		FROM tokens ORDER BY symbol
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []models.TokenEntry
	for rows.Next() {
		var t models.TokenEntry
		if err := rows.Scan(&t.Symbol, &t.AssetHandle, &t.PriceFeedRef, &t.Decimals, &t.CreatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, nil
}
