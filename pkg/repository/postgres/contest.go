package postgres

import (
	"context"
	"fmt"

	"github.com/medreza/honcho-rewards-ledger/pkg/models"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository"
)

func (s *Store) HasContestEntry(ctx context.Context, userID, day string) (bool, error) {
	found, err := exists(ctx, s.pool,
		`SELECT 1 FROM contest_entries WHERE user_id = $1 AND day = $2`, userID, day)
	if err != nil {
		return false, fmt.Errorf("failed to check contest entry: %w", err)
	}
	return found, nil
}

func (s *Store) CountContestEntries(ctx context.Context, day string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM contest_entries WHERE day = $1`, day).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count contest entries: %w", err)
	}
	return count, nil
}

func (s *Store) CreateContestEntry(ctx context.Context, entry *models.ContestEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO contest_entries (id, user_id, day, method, is_winner, prize_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.UserID, entry.Day, string(entry.Method), entry.IsWinner, entry.PrizeCode, entry.CreatedAt,
	)
	if err != nil {
		if pgErr, ok := uniqueViolation(err); ok && pgErr.ConstraintName == contestEntryDailyIndex {
			return repository.ErrDuplicateDaily
		}
		return fmt.Errorf("failed to create contest entry: %w", err)
	}
	return nil
}
