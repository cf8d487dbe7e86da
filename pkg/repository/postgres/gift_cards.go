package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/medreza/honcho-rewards-ledger/pkg/models"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository"
)

const giftCardColumns = `code, initial_amount, balance, recipient_email, recipient_name, sender_name,
	message, expiry_date, active, purchased_by, used_by, created_at`

func scanGiftCard(row pgx.Row) (*models.GiftCard, error) {
	var gc models.GiftCard
	err := row.Scan(&gc.Code, &gc.InitialAmount, &gc.Balance, &gc.RecipientEmail, &gc.RecipientName,
		&gc.SenderName, &gc.Message, &gc.ExpiryDate, &gc.Active, &gc.PurchasedBy, &gc.UsedBy, &gc.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &gc, nil
}

func loadGiftCardTransactions(ctx context.Context, q querier, gc *models.GiftCard) error {
	rows, err := q.Query(ctx,
		`SELECT id, order_ref, amount_delta, created_at FROM gift_card_transactions
		WHERE code = $1 ORDER BY created_at, id`,
		gc.Code,
	)
	if err != nil {
		return fmt.Errorf("failed to get gift card transactions: %w", err)
	}
	defer rows.Close()

	gc.Transactions = make([]models.GiftCardTransaction, 0)
	for rows.Next() {
		var txn models.GiftCardTransaction
		if err := rows.Scan(&txn.ID, &txn.OrderRef, &txn.AmountDelta, &txn.Timestamp); err != nil {
			return fmt.Errorf("failed to scan gift card transaction: %w", err)
		}
		gc.Transactions = append(gc.Transactions, txn)
	}
	return rows.Err()
}

func (s *Store) CreateGiftCard(ctx context.Context, gc *models.GiftCard) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO gift_cards (`+giftCardColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		gc.Code, gc.InitialAmount, gc.Balance, gc.RecipientEmail, gc.RecipientName, gc.SenderName,
		gc.Message, gc.ExpiryDate, gc.Active, gc.PurchasedBy, gc.UsedBy, gc.CreatedAt,
	)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return repository.ErrDuplicateCode
		}
		return fmt.Errorf("failed to create gift card: %w", err)
	}
	if gc.Transactions == nil {
		gc.Transactions = make([]models.GiftCardTransaction, 0)
	}
	return nil
}

func (s *Store) GetGiftCard(ctx context.Context, code string) (*models.GiftCard, error) {
	gc, err := scanGiftCard(s.pool.QueryRow(ctx,
		`SELECT `+giftCardColumns+` FROM gift_cards WHERE code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get gift card: %w", err)
	}
	if err := loadGiftCardTransactions(ctx, s.pool, gc); err != nil {
		return nil, err
	}
	return gc, nil
}

func (s *Store) BindGiftCardUser(ctx context.Context, code, userID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE gift_cards SET used_by = $2 WHERE code = $1`, code, userID)
	if err != nil {
		return fmt.Errorf("failed to bind gift card user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) SetGiftCardActive(ctx context.Context, code string, active bool) (*models.GiftCard, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE gift_cards SET active = $2 WHERE code = $1`, code, active)
	if err != nil {
		return nil, fmt.Errorf("failed to update gift card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, repository.ErrNotFound
	}
	return s.GetGiftCard(ctx, code)
}

func (s *Store) ChargeGiftCard(ctx context.Context, code string, txn models.GiftCardTransaction) (*models.GiftCard, error) {
	amount := txn.AmountDelta.Neg()

	var charged *models.GiftCard
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		// The balance guard in the WHERE clause is the compare-and-swap: two
		// concurrent charges serialize on the row lock and the second sees the
		// already-decremented balance.
		gc, err := scanGiftCard(tx.QueryRow(ctx,
			`UPDATE gift_cards SET balance = balance - $2
			WHERE code = $1 AND balance >= $2
			RETURNING `+giftCardColumns,
			code, amount,
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return notFoundOr(ctx, tx, repository.ErrConditionFailed,
					`SELECT 1 FROM gift_cards WHERE code = $1`, code)
			}
			return fmt.Errorf("failed to charge gift card: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO gift_card_transactions (id, code, order_ref, amount_delta, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			txn.ID, code, txn.OrderRef, txn.AmountDelta, txn.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to record gift card transaction: %w", err)
		}

		if err := loadGiftCardTransactions(ctx, tx, gc); err != nil {
			return err
		}
		charged = gc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return charged, nil
}
