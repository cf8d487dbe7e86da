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

const discountCodeColumns = `code, discount_percent, kind, owner_user_id, prize_type, issued_day,
	expires_at, used, used_at, linked_items, created_at`

func scanDiscountCode(row pgx.Row) (*models.DiscountCode, error) {
	var (
		dc        models.DiscountCode
		kind      string
		prizeType string
	)
	err := row.Scan(&dc.Code, &dc.DiscountPercent, &kind, &dc.OwnerUserID, &prizeType, &dc.IssuedDay,
		&dc.ExpiresAt, &dc.Used, &dc.UsedAt, &dc.LinkedItems, &dc.CreatedAt)
	if err != nil {
		return nil, err
	}
	dc.Kind = models.DiscountKind(kind)
	dc.PrizeType = models.PrizeType(prizeType)
	return &dc, nil
}

func (s *Store) CreateDiscountCode(ctx context.Context, dc *models.DiscountCode) error {
	items := dc.LinkedItems
	if items == nil {
		items = []string{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO discount_codes (`+discountCodeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		dc.Code, dc.DiscountPercent, string(dc.Kind), dc.OwnerUserID, string(dc.PrizeType), dc.IssuedDay,
		dc.ExpiresAt, dc.Used, dc.UsedAt, items, dc.CreatedAt,
	)
	if err != nil {
		if pgErr, ok := uniqueViolation(err); ok {
			if pgErr.ConstraintName == wheelDailyIndex {
				return repository.ErrDuplicateDaily
			}
			return repository.ErrDuplicateCode
		}
		return fmt.Errorf("failed to create discount code: %w", err)
	}
	return nil
}

func (s *Store) GetDiscountCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	dc, err := scanDiscountCode(s.pool.QueryRow(ctx,
		`SELECT `+discountCodeColumns+` FROM discount_codes WHERE code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get discount code: %w", err)
	}
	return dc, nil
}

func (s *Store) ListUnexpiredDiscountCodes(ctx context.Context, userID string, now time.Time) ([]models.DiscountCode, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+discountCodeColumns+` FROM discount_codes
		WHERE owner_user_id = $1 AND expires_at > $2
		ORDER BY created_at DESC`,
		userID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list discount codes: %w", err)
	}
	defer rows.Close()

	codes := make([]models.DiscountCode, 0)
	for rows.Next() {
		dc, err := scanDiscountCode(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan discount code: %w", err)
		}
		codes = append(codes, *dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating discount codes: %w", err)
	}
	return codes, nil
}

func (s *Store) MarkDiscountCodeUsed(ctx context.Context, code string, now time.Time) (*models.DiscountCode, error) {
	dc, err := scanDiscountCode(s.pool.QueryRow(ctx,
		`UPDATE discount_codes SET used = TRUE, used_at = $2
		WHERE code = $1 AND NOT used AND expires_at > $2
		RETURNING `+discountCodeColumns,
		code, now,
	))
	if err == nil {
		return dc, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to mark discount code used: %w", err)
	}
	return nil, notFoundOr(ctx, s.pool, repository.ErrConditionFailed,
		`SELECT 1 FROM discount_codes WHERE code = $1`, code)
}
