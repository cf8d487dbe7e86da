package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type EnterContestRequest struct {
	Method string `json:"method"`
}

type SubmitWishlistRequest struct {
	Items []string `json:"items"`
}

type IssueGiftCardRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	RecipientEmail string          `json:"recipient_email" binding:"omitempty,email"`
	RecipientName  string          `json:"recipient_name"`
	SenderName     string          `json:"sender_name"`
	Message        string          `json:"message"`
	ExpiryDate     *time.Time      `json:"expiry_date"`
}

type ChargeGiftCardRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	OrderRef string          `json:"order_ref" binding:"required"`
}

type SetActiveRequest struct {
	Active *bool `json:"is_active" binding:"required"`
}

type AccruePointsRequest struct {
	Points   int64  `json:"points"`
	OrderRef string `json:"order_ref"`
	Type     string `json:"type"`
}

type RedeemPointsRequest struct {
	Points int64 `json:"points" binding:"required"`
}

type ValidatePromoRequest struct {
	Code        string          `json:"code" binding:"required"`
	OrderAmount decimal.Decimal `json:"order_amount"`
}

type CreatePromoCodeRequest struct {
	Code           string            `json:"code"`
	Prefix         string            `json:"prefix"`
	Description    string            `json:"description"`
	DiscountType   PromoDiscountType `json:"discount_type" binding:"required,oneof=percentage fixed"`
	DiscountValue  decimal.Decimal   `json:"discount_value"`
	MaxUses        *int              `json:"max_uses" binding:"omitempty,min=1"`
	MinOrderAmount decimal.Decimal   `json:"min_order_amount"`
	ExpiresAt      *time.Time        `json:"expires_at"`
}

// UpdatePromoCodeRequest is a partial update; nil fields are left untouched.
type UpdatePromoCodeRequest struct {
	Description    *string          `json:"description"`
	DiscountValue  *decimal.Decimal `json:"discount_value"`
	MaxUses        *int             `json:"max_uses" binding:"omitempty,min=1"`
	MinOrderAmount *decimal.Decimal `json:"min_order_amount"`
	ExpiresAt      *time.Time       `json:"expires_at"`
	Active         *bool            `json:"is_active"`
}

type SpinResponse struct {
	Code     string    `json:"code"`
	Prize    string    `json:"prize"`
	Discount int       `json:"discount"`
	Type     PrizeType `json:"type"`
}

type ContestResponse struct {
	IsWinner       bool   `json:"is_winner"`
	Code           string `json:"code,omitempty"`
	Discount       int    `json:"discount,omitempty"`
	SpotsRemaining *int   `json:"spots_remaining,omitempty"`
	Message        string `json:"message"`
}

type ContestSpotsResponse struct {
	SpotsRemaining int `json:"spots_remaining"`
	SpotsTotal     int `json:"spots_total"`
}

type WishlistResponse struct {
	Code     string `json:"code"`
	Discount int    `json:"discount"`
	Message  string `json:"message"`
}

// DiscountCodeResponse carries the status computed at read time.
type DiscountCodeResponse struct {
	DiscountCode
	Status string `json:"status"`
}

type GiftCardResponse struct {
	GiftCard
	Status string `json:"status"`
}

type PromoCodeResponse struct {
	PromoCode
	Status string `json:"status"`
}

type RedeemGiftCardResponse struct {
	Balance decimal.Decimal `json:"balance"`
	Code    string          `json:"code"`
}

type GiftCardBalanceResponse struct {
	Balance  decimal.Decimal `json:"balance"`
	IsActive bool            `json:"is_active"`
}

type RedeemPointsResponse struct {
	Remaining int64 `json:"remaining"`
}

type ValidatePromoResponse struct {
	Valid        bool              `json:"valid"`
	Discount     decimal.Decimal   `json:"discount"`
	DiscountType PromoDiscountType `json:"discount_type"`
	Code         string            `json:"code"`
}
