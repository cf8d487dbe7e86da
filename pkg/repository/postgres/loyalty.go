package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/medreza/honcho-rewards-ledger/pkg/models"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository"
)

func (s *Store) GetOrCreateLoyaltyAccount(ctx context.Context, userID string, now time.Time) (*models.LoyaltyAccount, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO loyalty_accounts (user_id, total_points, tier, redeemed_points, version, created_at, updated_at)
		VALUES ($1, 0, $2, 0, 0, $3, $3)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, string(models.TierBronze), now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create loyalty account: %w", err)
	}

	var (
		acct models.LoyaltyAccount
		tier string
	)
	err = s.pool.QueryRow(ctx,
		`SELECT user_id, total_points, tier, redeemed_points, version, created_at, updated_at
		FROM loyalty_accounts WHERE user_id = $1`,
		userID,
	).Scan(&acct.UserID, &acct.TotalPoints, &tier, &acct.RedeemedPoints, &acct.Version, &acct.CreatedAt, &acct.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get loyalty account: %w", err)
	}
	acct.Tier = models.Tier(tier)

	rows, err := s.pool.Query(ctx,
		`SELECT id, order_ref, points_delta, kind, created_at FROM loyalty_transactions
		WHERE user_id = $1 ORDER BY created_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get loyalty transactions: %w", err)
	}
	defer rows.Close()

	acct.Transactions = make([]models.LoyaltyTransaction, 0)
	for rows.Next() {
		var txn models.LoyaltyTransaction
		if err := rows.Scan(&txn.ID, &txn.OrderRef, &txn.PointsDelta, &txn.Kind, &txn.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan loyalty transaction: %w", err)
		}
		acct.Transactions = append(acct.Transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating loyalty transactions: %w", err)
	}
	return &acct, nil
}

func (s *Store) SaveLoyaltyAccount(ctx context.Context, acct *models.LoyaltyAccount, expectedVersion int64, txn models.LoyaltyTransaction) error {
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE loyalty_accounts
			SET total_points = $2, tier = $3, redeemed_points = $4, version = version + 1, updated_at = $5
			WHERE user_id = $1 AND version = $6`,
			acct.UserID, acct.TotalPoints, string(acct.Tier), acct.RedeemedPoints, acct.UpdatedAt, expectedVersion,
		)
		if err != nil {
			return fmt.Errorf("failed to update loyalty account: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return notFoundOr(ctx, tx, repository.ErrVersionConflict,
				`SELECT 1 FROM loyalty_accounts WHERE user_id = $1`, acct.UserID)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO loyalty_transactions (id, user_id, order_ref, points_delta, kind, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			txn.ID, acct.UserID, txn.OrderRef, txn.PointsDelta, txn.Kind, txn.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to record loyalty transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	acct.Version = expectedVersion + 1
	return nil
}
