package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/medreza/honcho-rewards-ledger/pkg/models"
)

func TestClassify(t *testing.T) {
	now := time.Date(2024, 12, 20, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name      string
		active    bool
		consumed  bool
		expiresAt *time.Time
		want      Status
	}{
		{"active without expiry", true, false, nil, StatusActive},
		{"active before expiry", true, false, &future, StatusActive},
		{"expires exactly now", true, false, &now, StatusExpired},
		{"past expiry", true, false, &past, StatusExpired},
		{"consumed wins over expiry", true, true, &past, StatusRedeemed},
		{"inactive", false, false, &future, StatusInactive},
		{"inactive and expired", false, false, &past, StatusExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.active, tt.consumed, tt.expiresAt, now); got != tt.want {
				t.Errorf("Classify = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRecordStatuses(t *testing.T) {
	now := time.Date(2024, 12, 20, 12, 0, 0, 0, time.UTC)

	dc := &models.DiscountCode{ExpiresAt: now.Add(time.Hour)}
	if got := DiscountCodeStatus(dc, now); got != StatusActive {
		t.Errorf("discount code status = %s, want active", got)
	}
	dc.Used = true
	if got := DiscountCodeStatus(dc, now); got != StatusRedeemed {
		t.Errorf("used discount code status = %s, want redeemed", got)
	}

	one := 1
	p := &models.PromoCode{Active: true, MaxUses: &one}
	if got := PromoCodeStatus(p, now); got != StatusActive {
		t.Errorf("promo status = %s, want active", got)
	}
	p.UsedCount = 1
	if got := PromoCodeStatus(p, now); got != StatusRedeemed {
		t.Errorf("exhausted promo status = %s, want redeemed", got)
	}

	gc := &models.GiftCard{Active: true, Balance: decimal.NewFromInt(5)}
	if got := GiftCardStatus(gc, now); got != StatusActive {
		t.Errorf("gift card status = %s, want active", got)
	}
	gc.Balance = decimal.Zero
	if got := GiftCardStatus(gc, now); got != StatusRedeemed {
		t.Errorf("spent gift card status = %s, want redeemed", got)
	}
}

func TestCalendarDay(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	cal := NewCalendar(tokyo)

	// 20:00 UTC on the 20th is already the 21st in Tokyo.
	instant := time.Date(2024, 12, 20, 20, 0, 0, 0, time.UTC)
	if got := cal.Day(instant); got != "2024-12-21" {
		t.Errorf("Day = %s, want 2024-12-21", got)
	}
	if got := NewCalendar(nil).Day(instant); got != "2024-12-20" {
		t.Errorf("UTC Day = %s, want 2024-12-20", got)
	}

	start := cal.StartOfDay(instant)
	if want := time.Date(2024, 12, 21, 0, 0, 0, 0, tokyo); !start.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", start, want)
	}
}
