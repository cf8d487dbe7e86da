package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/medreza/honcho-rewards-ledger/pkg/models"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository"
)

func (s *Store) GetOrCreateLoyaltyAccount(ctx context.Context, userID string, now time.Time) (*models.LoyaltyAccount, error) {
	var acct models.LoyaltyAccount
	err := s.loyaltyAccounts.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{"$setOnInsert": bson.M{
			"user_id":         userID,
			"total_points":    int64(0),
			"tier":            models.TierBronze,
			"redeemed_points": int64(0),
			"transactions":    bson.A{},
			"version":         int64(0),
			"created_at":      now,
			"updated_at":      now,
		}},
		after().SetUpsert(true),
	).Decode(&acct)
	if err != nil {
		// Two concurrent upserts for a new user can race on the unique index;
		// the loser reads the winner's document.
		if dup, _ := duplicateIndex(err, ""); dup {
			if err := s.loyaltyAccounts.FindOne(ctx, bson.M{"user_id": userID}).Decode(&acct); err == nil {
				return &acct, nil
			}
		}
		return nil, fmt.Errorf("failed to get or create loyalty account: %w", err)
	}
	if acct.Transactions == nil {
		acct.Transactions = make([]models.LoyaltyTransaction, 0)
	}
	return &acct, nil
}

func (s *Store) SaveLoyaltyAccount(ctx context.Context, acct *models.LoyaltyAccount, expectedVersion int64, txn models.LoyaltyTransaction) error {
	res, err := s.loyaltyAccounts.UpdateOne(ctx,
		bson.M{"user_id": acct.UserID, "version": expectedVersion},
		bson.M{
			"$set": bson.M{
				"total_points":    acct.TotalPoints,
				"tier":            acct.Tier,
				"redeemed_points": acct.RedeemedPoints,
				"updated_at":      acct.UpdatedAt,
			},
			"$inc":  bson.M{"version": int64(1)},
			"$push": bson.M{"transactions": txn},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to update loyalty account: %w", err)
	}
	if res.MatchedCount == 0 {
		return notFoundOr(ctx, s.loyaltyAccounts, repository.ErrVersionConflict, bson.M{"user_id": acct.UserID})
	}
	acct.Version = expectedVersion + 1
	return nil
}
