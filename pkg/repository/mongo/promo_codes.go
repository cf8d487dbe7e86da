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

func (s *Store) CreatePromoCode(ctx context.Context, p *models.PromoCode) error {
	if _, err := s.promoCodes.InsertOne(ctx, p); err != nil {
		if dup, _ := duplicateIndex(err, ""); dup {
			return repository.ErrDuplicateCode
		}
		return fmt.Errorf("failed to create promo code: %w", err)
	}
	return nil
}

func (s *Store) GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error) {
	var p models.PromoCode
	if err := s.promoCodes.FindOne(ctx, bson.M{"code": code}).Decode(&p); err != nil {
		if isNoDocuments(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get promo code: %w", err)
	}
	return &p, nil
}

func (s *Store) ListPromoCodes(ctx context.Context) ([]models.PromoCode, error) {
	cur, err := s.promoCodes.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list promo codes: %w", err)
	}

	promos := make([]models.PromoCode, 0)
	if err := cur.All(ctx, &promos); err != nil {
		return nil, fmt.Errorf("failed to decode promo codes: %w", err)
	}
	return promos, nil
}

func (s *Store) UpdatePromoCode(ctx context.Context, p *models.PromoCode) error {
	set := bson.M{
		"description":      p.Description,
		"discount_value":   p.DiscountValue,
		"min_order_amount": p.MinOrderAmount,
		"active":           p.Active,
		"updated_at":       p.UpdatedAt,
	}
	unset := bson.M{}
	if p.MaxUses != nil {
		set["max_uses"] = *p.MaxUses
	} else {
		unset["max_uses"] = ""
	}
	if p.ExpiresAt != nil {
		set["expires_at"] = *p.ExpiresAt
	} else {
		unset["expires_at"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	filter := bson.M{"code": p.Code}
	if p.MaxUses != nil {
		filter["used_count"] = bson.M{"$lte": *p.MaxUses}
	}
	res, err := s.promoCodes.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update promo code: %w", err)
	}
	if res.MatchedCount == 0 {
		return notFoundOr(ctx, s.promoCodes, repository.ErrConditionFailed, bson.M{"code": p.Code})
	}
	return nil
}

func (s *Store) DeletePromoCode(ctx context.Context, code string) error {
	res, err := s.promoCodes.DeleteOne(ctx, bson.M{"code": code})
	if err != nil {
		return fmt.Errorf("failed to delete promo code: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) IncrementPromoUsage(ctx context.Context, code string, now time.Time) (*models.PromoCode, error) {
	filter := bson.M{
		"code": code,
		"$or": bson.A{
			bson.M{"max_uses": bson.M{"$exists": false}},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$used_count", "$max_uses"}}},
		},
	}

	var p models.PromoCode
	err := s.promoCodes.FindOneAndUpdate(ctx, filter,
		bson.M{"$inc": bson.M{"used_count": 1}, "$set": bson.M{"updated_at": now}},
		after(),
	).Decode(&p)
	if err == nil {
		return &p, nil
	}
	if !isNoDocuments(err) {
		return nil, fmt.Errorf("failed to increment promo usage: %w", err)
	}
	return nil, notFoundOr(ctx, s.promoCodes, repository.ErrConditionFailed, bson.M{"code": code})
}
