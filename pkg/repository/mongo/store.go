// Package mongo implements repository.Store on MongoDB. The client must be
// created with database.NewRegistry so decimal amounts are stored as
// Decimal128.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/medreza/honcho-rewards-ledger/pkg/repository"
)

const (
	discountCodesCollection   = "discount_codes"
	promoCodesCollection      = "promo_codes"
	giftCardsCollection       = "gift_cards"
	loyaltyAccountsCollection = "loyalty_accounts"
	contestEntriesCollection  = "contest_entries"
)

const (
	wheelDailyIndex        = "uq_discount_codes_wheel_daily"
	contestEntryDailyIndex = "uq_contest_entries_user_day"
)

type Store struct {
	db              *mongo.Database
	discountCodes   *mongo.Collection
	promoCodes      *mongo.Collection
	giftCards       *mongo.Collection
	loyaltyAccounts *mongo.Collection
	contestEntries  *mongo.Collection
}

var _ repository.Store = (*Store)(nil)

func New(db *mongo.Database) *Store {
	return &Store{
		db:              db,
		discountCodes:   db.Collection(discountCodesCollection),
		promoCodes:      db.Collection(promoCodesCollection),
		giftCards:       db.Collection(giftCardsCollection),
		loyaltyAccounts: db.Collection(loyaltyAccountsCollection),
		contestEntries:  db.Collection(contestEntriesCollection),
	}
}

// EnsureIndexes creates the unique and lookup indexes the store relies on.
// It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	unique := func(name string) *options.IndexOptions {
		return options.Index().SetUnique(true).SetName(name)
	}

	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.discountCodes: {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: unique("uq_discount_codes_code")},
			{
				Keys: bson.D{{Key: "owner_user_id", Value: 1}, {Key: "issued_day", Value: 1}},
				Options: unique(wheelDailyIndex).
					SetPartialFilterExpression(bson.M{"kind": "wheel"}),
			},
			{Keys: bson.D{{Key: "owner_user_id", Value: 1}, {Key: "expires_at", Value: -1}}},
		},
		s.promoCodes: {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: unique("uq_promo_codes_code")},
		},
		s.giftCards: {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: unique("uq_gift_cards_code")},
		},
		s.loyaltyAccounts: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique("uq_loyalty_accounts_user")},
		},
		s.contestEntries: {
			{Keys: bson.D{{Key: "entry_id", Value: 1}}, Options: unique("uq_contest_entries_id")},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "day", Value: 1}}, Options: unique(contestEntryDailyIndex)},
			{Keys: bson.D{{Key: "day", Value: 1}}},
		},
	}

	for coll, models := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

// duplicateIndex reports whether err is a duplicate-key error and, if so,
// whether it was raised by the named index.
func duplicateIndex(err error, index string) (dup bool, onIndex bool) {
	if !mongo.IsDuplicateKeyError(err) {
		return false, false
	}
	return true, strings.Contains(err.Error(), index)
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// notFoundOr returns ErrNotFound when no document matches filter and
// fallback otherwise.
func notFoundOr(ctx context.Context, coll *mongo.Collection, fallback error, filter bson.M) error {
	n, err := coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return fallback
}

func after() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}
