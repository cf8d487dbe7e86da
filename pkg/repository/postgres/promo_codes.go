package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/medreza/honcho-rewards-ledger/pkg/models"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository"
)

const promoCodeColumns = `code, description, discount_type, discount_value, max_uses, used_count,
	min_order_amount, expires_at, active, created_at, updated_at`

func scanPromoCode(row pgx.Row) (*models.PromoCode, error) {
	var (
		p            models.PromoCode
		discountType string
	)
	err := row.Scan(&p.Code, &p.Description, &discountType, &p.DiscountValue, &p.MaxUses, &p.UsedCount,
		&p.MinOrderAmount, &p.ExpiresAt, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.DiscountType = models.PromoDiscountType(discountType)
	return &p, nil
}

func (s *Store) CreatePromoCode(ctx context.Context, p *models.PromoCode) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO promo_codes (`+promoCodeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		p.Code, p.Description, string(p.DiscountType), p.DiscountValue, p.MaxUses, p.UsedCount,
		p.MinOrderAmount, p.ExpiresAt, p.Active, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return repository.ErrDuplicateCode
		}
		return fmt.Errorf("failed to create promo code: %w", err)
	}
	return nil
}

func (s *Store) GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error) {
	p, err := scanPromoCode(s.pool.QueryRow(ctx,
		`SELECT `+promoCodeColumns+` FROM promo_codes WHERE code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}
	return p, nil
}

func (s *Store) ListPromoCodes(ctx context.Context) ([]models.PromoCode, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+promoCodeColumns+` FROM promo_codes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list promo codes: %w", err)
	}
	defer rows.Close()

	promos := make([]models.PromoCode, 0)
	for rows.Next() {
		p, err := scanPromoCode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan promo code: %w", err)
		}
		promos = append(promos, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating promo codes: %w", err)
	}
	return promos, nil
}

func (s *Store) UpdatePromoCode(ctx context.Context, p *models.PromoCode) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE promo_codes
		SET description = $2, discount_value = $3, max_uses = $4, min_order_amount = $5,
			expires_at = $6, active = $7, updated_at = $8
		WHERE code = $1 AND ($4::int IS NULL OR used_count <= $4)`,
		p.Code, p.Description, p.DiscountValue, p.MaxUses, p.MinOrderAmount,
		p.ExpiresAt, p.Active, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update promo code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFoundOr(ctx, s.pool, repository.ErrConditionFailed,
			`SELECT 1 FROM promo_codes WHERE code = $1`, p.Code)
	}
	return nil
}

func (s *Store) DeletePromoCode(ctx context.Context, code string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM promo_codes WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("failed to delete promo code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) IncrementPromoUsage(ctx context.Context, code string, now time.Time) (*models.PromoCode, error) {
	p, err := scanPromoCode(s.pool.QueryRow(ctx,
		`UPDATE promo_codes SET used_count = used_count + 1, updated_at = $2
		WHERE code = $1 AND (max_uses IS NULL OR used_count < max_uses)
		RETURNING `+promoCodeColumns,
		code, now,
	))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to increment promo usage: %w", err)
	}
	return nil, notFoundOr(ctx, s.pool, repository.ErrConditionFailed,
		`SELECT 1 FROM promo_codes WHERE code = $1`, code)
}
