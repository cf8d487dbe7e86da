// Package repository defines the persistence contract of the rewards ledger.
// Implementations live in the postgres and mongo subpackages; both enforce
// code uniqueness and per-day admission as storage constraints and apply
// balance and counter changes as conditional updates.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/medreza/honcho-rewards-ledger/pkg/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateCode is returned when an insert collides with an existing code.
	ErrDuplicateCode = errors.New("code already exists")
	// ErrDuplicateDaily is returned when a per-user-per-day record already exists.
	ErrDuplicateDaily = errors.New("record already exists for this user and day")
	// ErrConditionFailed is returned when a conditional update matched no record.
	ErrConditionFailed = errors.New("conditional update did not apply")
	ErrVersionConflict = errors.New("record was modified concurrently")
)

type DiscountCodeRepository interface {
	CreateDiscountCode(ctx context.Context, code *models.DiscountCode) error
	GetDiscountCode(ctx context.Context, code string) (*models.DiscountCode, error)
	// ListUnexpiredDiscountCodes returns the user's codes with ExpiresAt after now,
	// newest first.
	ListUnexpiredDiscountCodes(ctx context.Context, userID string, now time.Time) ([]models.DiscountCode, error)
	// MarkDiscountCodeUsed flips Used when the code is unused and unexpired at now.
	MarkDiscountCodeUsed(ctx context.Context, code string, now time.Time) (*models.DiscountCode, error)
}

type PromoCodeRepository interface {
	CreatePromoCode(ctx context.Context, promo *models.PromoCode) error
	GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error)
	ListPromoCodes(ctx context.Context) ([]models.PromoCode, error)
	// UpdatePromoCode fails with ErrConditionFailed when the new MaxUses is
	// below the stored UsedCount.
	UpdatePromoCode(ctx context.Context, promo *models.PromoCode) error
	DeletePromoCode(ctx context.Context, code string) error
	// IncrementPromoUsage bumps UsedCount unless MaxUses is set and reached.
	IncrementPromoUsage(ctx context.Context, code string, now time.Time) (*models.PromoCode, error)
}

type GiftCardRepository interface {
	CreateGiftCard(ctx context.Context, card *models.GiftCard) error
	GetGiftCard(ctx context.Context, code string) (*models.GiftCard, error)
	BindGiftCardUser(ctx context.Context, code, userID string) error
	SetGiftCardActive(ctx context.Context, code string, active bool) (*models.GiftCard, error)
	// ChargeGiftCard applies txn (a negative delta) only if the balance still
	// covers it, appending txn to the card's log in the same atomic step.
	ChargeGiftCard(ctx context.Context, code string, txn models.GiftCardTransaction) (*models.GiftCard, error)
}

type LoyaltyRepository interface {
	GetOrCreateLoyaltyAccount(ctx context.Context, userID string, now time.Time) (*models.LoyaltyAccount, error)
	// SaveLoyaltyAccount writes the account's mutable fields and appends txn,
	// provided the stored version still equals expectedVersion.
	SaveLoyaltyAccount(ctx context.Context, account *models.LoyaltyAccount, expectedVersion int64, txn models.LoyaltyTransaction) error
}

type ContestRepository interface {
	HasContestEntry(ctx context.Context, userID, day string) (bool, error)
	CountContestEntries(ctx context.Context, day string) (int, error)
	CreateContestEntry(ctx context.Context, entry *models.ContestEntry) error
}

// Store is the full persistence surface used by the server.
type Store interface {
	DiscountCodeRepository
	PromoCodeRepository
	GiftCardRepository
	LoyaltyRepository
	ContestRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
