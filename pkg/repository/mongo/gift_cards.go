package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/medreza/honcho-rewards-ledger/pkg/models"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository"
)

func (s *Store) CreateGiftCard(ctx context.Context, gc *models.GiftCard) error {
	if gc.Transactions == nil {
		gc.Transactions = make([]models.GiftCardTransaction, 0)
	}
	if _, err := s.giftCards.InsertOne(ctx, gc); err != nil {
		if dup, _ := duplicateIndex(err, ""); dup {
			return repository.ErrDuplicateCode
		}
		return fmt.Errorf("failed to create gift card: %w", err)
	}
	return nil
}

func (s *Store) GetGiftCard(ctx context.Context, code string) (*models.GiftCard, error) {
	var gc models.GiftCard
	if err := s.giftCards.FindOne(ctx, bson.M{"code": code}).Decode(&gc); err != nil {
		if isNoDocuments(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get gift card: %w", err)
	}
	return &gc, nil
}

func (s *Store) BindGiftCardUser(ctx context.Context, code, userID string) error {
	res, err := s.giftCards.UpdateOne(ctx, bson.M{"code": code}, bson.M{"$set": bson.M{"used_by": userID}})
	if err != nil {
		return fmt.Errorf("failed to bind gift card user: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) SetGiftCardActive(ctx context.Context, code string, active bool) (*models.GiftCard, error) {
	var gc models.GiftCard
	err := s.giftCards.FindOneAndUpdate(ctx,
		bson.M{"code": code},
		bson.M{"$set": bson.M{"active": active}},
		after(),
	).Decode(&gc)
	if err != nil {
		if isNoDocuments(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update gift card: %w", err)
	}
	return &gc, nil
}

func (s *Store) ChargeGiftCard(ctx context.Context, code string, txn models.GiftCardTransaction) (*models.GiftCard, error) {
	amount := txn.AmountDelta.Neg()

	// Single-document update: the balance guard and the $inc are applied
	// atomically, so concurrent charges cannot both pass the guard.
	var gc models.GiftCard
	err := s.giftCards.FindOneAndUpdate(ctx,
		bson.M{"code": code, "balance": bson.M{"$gte": amount}},
		bson.M{
			"$inc":  bson.M{"balance": txn.AmountDelta},
			"$push": bson.M{"transactions": txn},
		},
		after(),
	).Decode(&gc)
	if err == nil {
		return &gc, nil
	}
	if !isNoDocuments(err) {
		return nil, fmt.Errorf("failed to charge gift card: %w", err)
	}
	return nil, notFoundOr(ctx, s.giftCards, repository.ErrConditionFailed, bson.M{"code": code})
}
