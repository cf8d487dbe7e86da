package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/medreza/honcho-rewards-ledger/pkg/codegen"
	"github.com/medreza/honcho-rewards-ledger/pkg/models"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository/repotest"
)

func newTestPromos(t *testing.T) (*PromoService, *repotest.Store) {
	t.Helper()
	store := repotest.New()
	s := NewPromoService(store, codegen.New(0))
	s.now = fixedClock(testNow)
	return s, store
}

func intPtr(n int) *int { return &n }

func TestValidatePromo(t *testing.T) {
	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)

	tests := []struct {
		name    string
		promo   *models.PromoCode
		order   string
		want    string
		wantErr error
	}{
		{
			name:  "percentage",
			promo: &models.PromoCode{Active: true, DiscountType: models.DiscountPercentage, DiscountValue: dec("10"), MinOrderAmount: dec("50")},
			order: "100",
			want:  "10",
		},
		{
			name:    "below minimum",
			promo:   &models.PromoCode{Active: true, DiscountType: models.DiscountPercentage, DiscountValue: dec("10"), MinOrderAmount: dec("50")},
			order:   "40",
			wantErr: ErrMinimumNotMet,
		},
		{
			name:  "fixed capped at order amount",
			promo: &models.PromoCode{Active: true, DiscountType: models.DiscountFixed, DiscountValue: dec("30")},
			order: "20",
			want:  "20",
		},
		{
			name:  "percentage rounds to cents",
			promo: &models.PromoCode{Active: true, DiscountType: models.DiscountPercentage, DiscountValue: dec("15")},
			order: "19.99",
			want:  "3",
		},
		{
			name:    "inactive reads as not found",
			promo:   &models.PromoCode{Active: false, DiscountType: models.DiscountFixed, DiscountValue: dec("5")},
			order:   "100",
			wantErr: ErrPromoNotFound,
		},
		{
			name:    "expired",
			promo:   &models.PromoCode{Active: true, DiscountType: models.DiscountFixed, DiscountValue: dec("5"), ExpiresAt: &past},
			order:   "100",
			wantErr: ErrPromoExpired,
		},
		{
			name:  "not yet expired",
			promo: &models.PromoCode{Active: true, DiscountType: models.DiscountFixed, DiscountValue: dec("5"), ExpiresAt: &future},
			order: "100",
			want:  "5",
		},
		{
			name:    "usage limit",
			promo:   &models.PromoCode{Active: true, DiscountType: models.DiscountFixed, DiscountValue: dec("5"), MaxUses: intPtr(2), UsedCount: 2},
			order:   "100",
			wantErr: ErrUsageLimitReached,
		},
		{
			name:    "negative order",
			promo:   &models.PromoCode{Active: true, DiscountType: models.DiscountFixed, DiscountValue: dec("5")},
			order:   "-1",
			wantErr: ErrValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidatePromo(tt.promo, dec(tt.order), testNow)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(dec(tt.want)) {
				t.Errorf("discount = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMinimumNotMetMessage(t *testing.T) {
	p := &models.PromoCode{Active: true, DiscountType: models.DiscountFixed, DiscountValue: dec("5"), MinOrderAmount: dec("50")}
	_, err := ValidatePromo(p, dec("10"), testNow)
	if err == nil || !strings.Contains(err.Error(), "50.00") {
		t.Errorf("err = %v, want message naming the minimum", err)
	}
}

func TestSave10Scenario(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestPromos(t)

	if _, err := s.Create(ctx, CreatePromoParams{
		Code:           "save10",
		DiscountType:   models.DiscountPercentage,
		DiscountValue:  dec("10"),
		MinOrderAmount: dec("50"),
	}); err != nil {
		t.Fatal(err)
	}

	if _, _, err := s.ValidateCode(ctx, "SAVE10", dec("40")); !errors.Is(err, ErrMinimumNotMet) {
		t.Errorf("order 40 err = %v, want minimum not met", err)
	}
	p, discount, err := s.ValidateCode(ctx, "SAVE10", dec("100"))
	if err != nil {
		t.Fatal(err)
	}
	if !discount.Equal(dec("10")) || p.DiscountType != models.DiscountPercentage {
		t.Errorf("discount = %s %s, want 10 percentage", discount, p.DiscountType)
	}
	if p.UsedCount != 0 {
		t.Errorf("validation consumed a use: used_count = %d", p.UsedCount)
	}
}

func TestCommitUsageLimit(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestPromos(t)

	if _, err := s.Create(ctx, CreatePromoParams{
		Code:          "ONCE",
		DiscountType:  models.DiscountFixed,
		DiscountValue: dec("5"),
		MaxUses:       intPtr(1),
	}); err != nil {
		t.Fatal(err)
	}

	if _, _, err := s.ValidateCode(ctx, "ONCE", dec("20")); err != nil {
		t.Fatalf("first validate: %v", err)
	}
	committed, err := s.CommitUsage(ctx, "once")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if committed.UsedCount != 1 {
		t.Errorf("used_count = %d, want 1", committed.UsedCount)
	}

	if _, _, err := s.ValidateCode(ctx, "ONCE", dec("20")); !errors.Is(err, ErrUsageLimitReached) {
		t.Errorf("second validate err = %v, want usage limit reached", err)
	}
	if _, err := s.CommitUsage(ctx, "ONCE"); !errors.Is(err, ErrUsageLimitReached) {
		t.Errorf("second commit err = %v, want usage limit reached", err)
	}
}

func TestCreatePromo(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestPromos(t)

	generated, err := s.Create(ctx, CreatePromoParams{Prefix: "xmas", DiscountType: models.DiscountFixed, DiscountValue: dec("5")})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(generated.Code, "XMAS") || len(generated.Code) != 4+codegen.DefaultSuffixLength {
		t.Errorf("generated code = %q", generated.Code)
	}
	if !generated.Active || !generated.MinOrderAmount.IsZero() {
		t.Errorf("generated promo = %+v, want active with zero minimum", generated)
	}

	if _, err := s.Create(ctx, CreatePromoParams{Code: "DUP", DiscountType: models.DiscountFixed}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, CreatePromoParams{Code: " dup ", DiscountType: models.DiscountFixed}); !errors.Is(err, ErrDuplicateCode) {
		t.Errorf("duplicate err = %v, want duplicate code", err)
	}

	past := testNow.Add(-time.Minute)
	invalid := []CreatePromoParams{
		{Code: "A1", DiscountType: "bogus"},
		{Code: "A2", DiscountType: models.DiscountPercentage, DiscountValue: dec("101")},
		{Code: "A3", DiscountType: models.DiscountFixed, DiscountValue: dec("-1")},
		{Code: "A4", DiscountType: models.DiscountFixed, MinOrderAmount: dec("-1")},
		{Code: "A5", DiscountType: models.DiscountFixed, MaxUses: intPtr(0)},
		{Code: "A6", DiscountType: models.DiscountFixed, ExpiresAt: &past},
		{Code: "BAD CODE", DiscountType: models.DiscountFixed},
		{Prefix: "BAD PREFIX", DiscountType: models.DiscountFixed},
		{DiscountType: models.DiscountFixed},
	}
	for i, p := range invalid {
		if _, err := s.Create(ctx, p); !errors.Is(err, ErrValidation) {
			t.Errorf("case %d: err = %v, want validation", i, err)
		}
	}
}

func TestUpdateAndDeletePromo(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestPromos(t)

	if _, err := s.Create(ctx, CreatePromoParams{Code: "VIP", DiscountType: models.DiscountPercentage, DiscountValue: dec("20"), MaxUses: intPtr(5)}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.CommitUsage(ctx, "VIP"); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := s.Update(ctx, "VIP", models.UpdatePromoCodeRequest{MaxUses: intPtr(2)}); !errors.Is(err, ErrValidation) {
		t.Errorf("lowering max uses below used err = %v, want validation", err)
	}

	inactive := false
	value := decimal.NewFromInt(25)
	updated, err := s.Update(ctx, "vip", models.UpdatePromoCodeRequest{Active: &inactive, DiscountValue: &value})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Active || !updated.DiscountValue.Equal(value) || updated.UsedCount != 3 {
		t.Errorf("updated = %+v", updated)
	}
	if got := PromoCodeStatus(updated, testNow); got != StatusInactive {
		t.Errorf("status = %s, want inactive", got)
	}
	if _, _, err := s.ValidateCode(ctx, "VIP", dec("100")); !errors.Is(err, ErrPromoNotFound) {
		t.Errorf("validate inactive err = %v, want not found", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("list = %d promos, want 1", len(list))
	}

	if err := s.Delete(ctx, "VIP"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "VIP"); !errors.Is(err, ErrPromoNotFound) {
		t.Errorf("second delete err = %v, want not found", err)
	}
	if _, err := s.Update(ctx, "VIP", models.UpdatePromoCodeRequest{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing err = %v, want not found", err)
	}
}

// usageAfterRead commits one use of a promo right after each read, as a
// checkout would between an admin's read and write.
type usageAfterRead struct {
	*repotest.Store
}

func (s usageAfterRead) GetPromoCode(ctx context.Context, code string) (*models.PromoCode, error) {
	p, err := s.Store.GetPromoCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if _, err := s.Store.IncrementPromoUsage(ctx, code, testNow); err != nil {
		return nil, err
	}
	return p, nil
}

func TestUpdatePromoRacingCommit(t *testing.T) {
	ctx := context.Background()
	s, store := newTestPromos(t)

	if _, err := s.Create(ctx, CreatePromoParams{Code: "RUSH", DiscountType: models.DiscountFixed, DiscountValue: dec("5"), MaxUses: intPtr(5)}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if _, err := s.CommitUsage(ctx, "RUSH"); err != nil {
			t.Fatal(err)
		}
	}

	racing := NewPromoService(usageAfterRead{store}, codegen.New(0))
	racing.now = fixedClock(testNow)
	if _, err := racing.Update(ctx, "RUSH", models.UpdatePromoCodeRequest{MaxUses: intPtr(2)}); !errors.Is(err, ErrValidation) {
		t.Fatalf("update err = %v, want validation", err)
	}

	got, err := store.GetPromoCode(ctx, "RUSH")
	if err != nil {
		t.Fatal(err)
	}
	if got.UsedCount != 3 || got.MaxUses == nil || *got.MaxUses != 5 {
		t.Errorf("promo = used %d of %v, want used 3 of 5", got.UsedCount, got.MaxUses)
	}
}
