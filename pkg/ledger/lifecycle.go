package ledger

import (
	"time"

	"github.com/medreza/honcho-rewards-ledger/pkg/models"
)

// Status is the lifecycle state of a code or card. It is derived from the
// persisted flags and timestamps at read time and never stored.
type Status string

const (
	StatusActive   Status = "active"
	StatusRedeemed Status = "redeemed"
	StatusExpired  Status = "expired"
	StatusInactive Status = "inactive"
)

// Classify evaluates the shared state machine. A consumed record stays
// redeemed after it expires; an expired record reads as expired even when
// it was deactivated first.
func Classify(active, consumed bool, expiresAt *time.Time, now time.Time) Status {
	switch {
	case consumed:
		return StatusRedeemed
	case isExpired(expiresAt, now):
		return StatusExpired
	case !active:
		return StatusInactive
	default:
		return StatusActive
	}
}

func isExpired(expiresAt *time.Time, now time.Time) bool {
	return expiresAt != nil && !now.Before(*expiresAt)
}

func DiscountCodeStatus(dc *models.DiscountCode, now time.Time) Status {
	return Classify(true, dc.Used, &dc.ExpiresAt, now)
}

// PromoCodeStatus treats a promo whose usage cap is exhausted as redeemed.
func PromoCodeStatus(p *models.PromoCode, now time.Time) Status {
	exhausted := p.MaxUses != nil && p.UsedCount >= *p.MaxUses
	return Classify(p.Active, exhausted, p.ExpiresAt, now)
}

// GiftCardStatus treats a fully spent card as redeemed.
func GiftCardStatus(gc *models.GiftCard, now time.Time) Status {
	return Classify(gc.Active, !gc.Balance.IsPositive(), gc.ExpiryDate, now)
}
