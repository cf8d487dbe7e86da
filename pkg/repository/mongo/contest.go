package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medreza/honcho-rewards-ledger/pkg/models"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository"
)

func (s *Store) HasContestEntry(ctx context.Context, userID, day string) (bool, error) {
	n, err := s.contestEntries.CountDocuments(ctx,
		bson.M{"user_id": userID, "day": day}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check contest entry: %w", err)
	}
	return n > 0, nil
}

func (s *Store) CountContestEntries(ctx context.Context, day string) (int, error) {
	n, err := s.contestEntries.CountDocuments(ctx, bson.M{"day": day})
	if err != nil {
		return 0, fmt.Errorf("failed to count contest entries: %w", err)
	}
	return int(n), nil
}

func (s *Store) CreateContestEntry(ctx context.Context, entry *models.ContestEntry) error {
	if _, err := s.contestEntries.InsertOne(ctx, entry); err != nil {
		if dup, daily := duplicateIndex(err, contestEntryDailyIndex); dup && daily {
			return repository.ErrDuplicateDaily
		}
		return fmt.Errorf("failed to create contest entry: %w", err)
	}
	return nil
}
