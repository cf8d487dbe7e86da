package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medreza/honcho-rewards-ledger/pkg/models"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository"
)

func (s *Store) CreateDiscountCode(ctx context.Context, dc *models.DiscountCode) error {
	if _, err := s.discountCodes.InsertOne(ctx, dc); err != nil {
		if dup, daily := duplicateIndex(err, wheelDailyIndex); dup {
			if daily {
				return repository.ErrDuplicateDaily
			}
			return repository.ErrDuplicateCode
		}
		return fmt.Errorf("failed to create discount code: %w", err)
	}
	return nil
}

func (s *Store) GetDiscountCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var dc models.DiscountCode
	if err := s.discountCodes.FindOne(ctx, bson.M{"code": code}).Decode(&dc); err != nil {
		if isNoDocuments(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get discount code: %w", err)
	}
	return &dc, nil
}

func (s *Store) ListUnexpiredDiscountCodes(ctx context.Context, userID string, now time.Time) ([]models.DiscountCode, error) {
	cur, err := s.discountCodes.Find(ctx,
		bson.M{"owner_user_id": userID, "expires_at": bson.M{"$gt": now}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list discount codes: %w", err)
	}

	codes := make([]models.DiscountCode, 0)
	if err := cur.All(ctx, &codes); err != nil {
		return nil, fmt.Errorf("failed to decode discount codes: %w", err)
	}
	return codes, nil
}

func (s *Store) MarkDiscountCodeUsed(ctx context.Context, code string, now time.Time) (*models.DiscountCode, error) {
	var dc models.DiscountCode
	err := s.discountCodes.FindOneAndUpdate(ctx,
		bson.M{"code": code, "used": false, "expires_at": bson.M{"$gt": now}},
		bson.M{"$set": bson.M{"used": true, "used_at": now}},
		after(),
	).Decode(&dc)
	if err == nil {
		return &dc, nil
	}
	if !isNoDocuments(err) {
		return nil, fmt.Errorf("failed to mark discount code used: %w", err)
	}
	return nil, notFoundOr(ctx, s.discountCodes, repository.ErrConditionFailed, bson.M{"code": code})
}
