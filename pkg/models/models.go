package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountKind string

const (
	KindWishlist DiscountKind = "wishlist"
	KindWheel    DiscountKind = "wheel"
	KindContest  DiscountKind = "contest"
	KindPopup    DiscountKind = "popup"
)

type PrizeType string

const (
	PrizeDiscount     PrizeType = "discount"
	PrizeFreeShipping PrizeType = "free_shipping"
	PrizeGift         PrizeType = "gift"
)

// DiscountCode is a single-use code issued to one user by the reward allocator.
// IssuedDay is the calendar day (in the ledger's reference zone) the code was
// issued on; wheel codes are unique per owner and day.
type DiscountCode struct {
	Code            string       `json:"code" bson:"code"`
	DiscountPercent int          `json:"discount" bson:"discount_percent"`
	Kind            DiscountKind `json:"type" bson:"kind"`
	OwnerUserID     string       `json:"user_id" bson:"owner_user_id"`
	PrizeType       PrizeType    `json:"prize_type,omitempty" bson:"prize_type,omitempty"`
	IssuedDay       string       `json:"issued_day" bson:"issued_day"`
	ExpiresAt       time.Time    `json:"expires_at" bson:"expires_at"`
	Used            bool         `json:"used" bson:"used"`
	UsedAt          *time.Time   `json:"used_at,omitempty" bson:"used_at,omitempty"`
	LinkedItems     []string     `json:"items,omitempty" bson:"linked_items,omitempty"`
	CreatedAt       time.Time    `json:"created_at" bson:"created_at"`
}

type PromoDiscountType string

const (
	DiscountPercentage PromoDiscountType = "percentage"
	DiscountFixed      PromoDiscountType = "fixed"
)

type PromoCode struct {
	Code           string            `json:"code" bson:"code"`
	Description    string            `json:"description,omitempty" bson:"description,omitempty"`
	DiscountType   PromoDiscountType `json:"discount_type" bson:"discount_type"`
	DiscountValue  decimal.Decimal   `json:"discount_value" bson:"discount_value"`
	MaxUses        *int              `json:"max_uses,omitempty" bson:"max_uses,omitempty"`
	UsedCount      int               `json:"used_count" bson:"used_count"`
	MinOrderAmount decimal.Decimal   `json:"min_order_amount" bson:"min_order_amount"`
	ExpiresAt      *time.Time        `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	Active         bool              `json:"is_active" bson:"active"`
	CreatedAt      time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at" bson:"updated_at"`
}

type GiftCardTransaction struct {
	ID          string          `json:"id" bson:"id"`
	OrderRef    string          `json:"order_ref" bson:"order_ref"`
	AmountDelta decimal.Decimal `json:"amount" bson:"amount_delta"`
	Timestamp   time.Time       `json:"date" bson:"timestamp"`
}

type GiftCard struct {
	Code           string                `json:"code" bson:"code"`
	InitialAmount  decimal.Decimal       `json:"amount" bson:"initial_amount"`
	Balance        decimal.Decimal       `json:"balance" bson:"balance"`
	RecipientEmail string                `json:"recipient_email,omitempty" bson:"recipient_email,omitempty"`
	RecipientName  string                `json:"recipient_name,omitempty" bson:"recipient_name,omitempty"`
	SenderName     string                `json:"sender_name,omitempty" bson:"sender_name,omitempty"`
	Message        string                `json:"message,omitempty" bson:"message,omitempty"`
	ExpiryDate     *time.Time            `json:"expiry_date,omitempty" bson:"expiry_date,omitempty"`
	Active         bool                  `json:"is_active" bson:"active"`
	PurchasedBy    string                `json:"purchased_by,omitempty" bson:"purchased_by,omitempty"`
	UsedBy         string                `json:"used_by,omitempty" bson:"used_by,omitempty"`
	Transactions   []GiftCardTransaction `json:"transactions" bson:"transactions"`
	CreatedAt      time.Time             `json:"created_at" bson:"created_at"`
}

type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

type LoyaltyTransaction struct {
	ID          string    `json:"id" bson:"id"`
	OrderRef    string    `json:"order_ref,omitempty" bson:"order_ref,omitempty"`
	PointsDelta int64     `json:"points" bson:"points_delta"`
	Kind        string    `json:"type" bson:"kind"`
	Timestamp   time.Time `json:"date" bson:"timestamp"`
}

// LoyaltyAccount is keyed by UserID. Version is bumped on every write and
// used as the optimistic-concurrency token.
type LoyaltyAccount struct {
	UserID         string               `json:"user_id" bson:"user_id"`
	TotalPoints    int64                `json:"total_points" bson:"total_points"`
	Tier           Tier                 `json:"tier" bson:"tier"`
	RedeemedPoints int64                `json:"redeemed" bson:"redeemed_points"`
	Transactions   []LoyaltyTransaction `json:"transactions" bson:"transactions"`
	Version        int64                `json:"-" bson:"version"`
	CreatedAt      time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at" bson:"updated_at"`
}

type ContestMethod string

const (
	MethodSpin     ContestMethod = "spin"
	MethodOrnament ContestMethod = "ornament"
	MethodQuiz     ContestMethod = "quiz"
)

type ContestEntry struct {
	ID        string        `json:"id" bson:"entry_id"`
	UserID    string        `json:"user_id" bson:"user_id"`
	Day       string        `json:"day" bson:"day"`
	Method    ContestMethod `json:"method" bson:"method"`
	IsWinner  bool          `json:"is_winner" bson:"is_winner"`
	PrizeCode string        `json:"prize_code,omitempty" bson:"prize_code,omitempty"`
	CreatedAt time.Time     `json:"date" bson:"created_at"`
}
