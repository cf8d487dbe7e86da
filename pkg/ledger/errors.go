package ledger

import (
	"errors"
	"fmt"
)

// Base kinds. Every failure returned by this package wraps exactly one of them.
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrExpired             = errors.New("expired")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientPoints  = errors.New("insufficient points")
	ErrInactive            = errors.New("inactive")
)

// Error is a domain failure. Code is the stable machine-readable identifier
// surfaced to clients; two Errors match under errors.Is when their codes do.
type Error struct {
	Kind    error
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrAlreadySpunToday    = &Error{Kind: ErrConflict, Code: "already_spun_today", Message: "You already spun the wheel today! Come back tomorrow."}
	ErrAlreadyEnteredToday = &Error{Kind: ErrConflict, Code: "already_entered_today", Message: "You already entered today! Try again tomorrow."}
	ErrCapacityReached     = &Error{Kind: ErrConflict, Code: "capacity_reached", Message: "All spots filled for today! Try again tomorrow."}
	ErrDuplicateCode       = &Error{Kind: ErrConflict, Code: "duplicate_code", Message: "Code already exists"}
	ErrConcurrentUpdate    = &Error{Kind: ErrConflict, Code: "concurrent_update", Message: "Record was modified concurrently, retry the request"}
	ErrAlreadyRedeemed     = &Error{Kind: ErrConflict, Code: "already_redeemed", Message: "Code has already been redeemed"}

	ErrCodeNotFound     = &Error{Kind: ErrNotFound, Code: "code_not_found", Message: "Discount code not found"}
	ErrGiftCardNotFound = &Error{Kind: ErrNotFound, Code: "gift_card_not_found", Message: "Gift card not found"}
	ErrPromoNotFound    = &Error{Kind: ErrNotFound, Code: "promo_code_not_found", Message: "Promo code not found"}

	ErrCodeExpired     = &Error{Kind: ErrExpired, Code: "code_expired", Message: "Discount code has expired"}
	ErrGiftCardExpired = &Error{Kind: ErrExpired, Code: "gift_card_expired", Message: "Gift card has expired"}
	ErrPromoExpired    = &Error{Kind: ErrExpired, Code: "promo_code_expired", Message: "Promo code has expired"}

	ErrGiftCardInactive = &Error{Kind: ErrInactive, Code: "gift_card_inactive", Message: "Gift card is inactive"}

	ErrEmptyBalance         = &Error{Kind: ErrInsufficientBalance, Code: "empty_balance", Message: "Gift card has no balance"}
	ErrChargeExceedsBalance = &Error{Kind: ErrInsufficientBalance, Code: "insufficient_balance", Message: "Insufficient gift card balance"}
	ErrNotEnoughPoints      = &Error{Kind: ErrInsufficientPoints, Code: "insufficient_points", Message: "Insufficient points"}

	ErrUsageLimitReached = &Error{Kind: ErrConflict, Code: "usage_limit_reached", Message: "Promo code usage limit reached"}
	ErrMinimumNotMet     = &Error{Kind: ErrValidation, Code: "minimum_not_met", Message: "Minimum order amount not met"}
)

func invalidf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Code: "validation_error", Message: fmt.Sprintf(format, args...)}
}

func minimumNotMet(amount string) error {
	return &Error{
		Kind:    ErrValidation,
		Code:    ErrMinimumNotMet.Code,
		Message: fmt.Sprintf("Minimum order amount of %s required", amount),
	}
}
