package repotest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/medreza/honcho-rewards-ledger/pkg/models"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository"
)

// RunContract exercises the behaviour every repository.Store must share:
// uniqueness, per-day admission and conditional updates. Records are keyed
// with a random suffix so the suite can run against a persistent database.
func RunContract(t *testing.T, store repository.Store) {
	t.Helper()
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("DiscountCodes", func(t *testing.T) { discountCodeContract(t, store, suffix, now) })
	t.Run("PromoCodes", func(t *testing.T) { promoCodeContract(t, store, suffix, now) })
	t.Run("GiftCards", func(t *testing.T) { giftCardContract(t, store, suffix, now) })
	t.Run("Loyalty", func(t *testing.T) { loyaltyContract(t, store, suffix, now) })
	t.Run("Contest", func(t *testing.T) { contestContract(t, store, suffix, now) })
}

func discountCodeContract(t *testing.T, store repository.Store, suffix string, now time.Time) {
	ctx := context.Background()
	owner := "owner-" + suffix
	day := now.Format("2006-01-02")

	wheel := &models.DiscountCode{
		Code:            "WHEEL" + suffix,
		DiscountPercent: 10,
		Kind:            models.KindWheel,
		OwnerUserID:     owner,
		PrizeType:       models.PrizeDiscount,
		IssuedDay:       day,
		ExpiresAt:       now.Add(72 * time.Hour),
		CreatedAt:       now,
	}
	if err := store.CreateDiscountCode(ctx, wheel); err != nil {
		t.Fatalf("create wheel code: %v", err)
	}

	dup := *wheel
	dup.OwnerUserID = "someone-else-" + suffix
	if err := store.CreateDiscountCode(ctx, &dup); !errors.Is(err, repository.ErrDuplicateCode) {
		t.Errorf("duplicate code err = %v, want ErrDuplicateCode", err)
	}

	second := *wheel
	second.Code = "WHEEL2" + suffix
	if err := store.CreateDiscountCode(ctx, &second); !errors.Is(err, repository.ErrDuplicateDaily) {
		t.Errorf("second wheel code same day err = %v, want ErrDuplicateDaily", err)
	}

	wish := &models.DiscountCode{
		Code:            "WISH" + suffix,
		DiscountPercent: 20,
		Kind:            models.KindWishlist,
		OwnerUserID:     owner,
		IssuedDay:       day,
		ExpiresAt:       now.Add(7 * 24 * time.Hour),
		LinkedItems:     []string{"sku-1", "sku-2"},
		CreatedAt:       now.Add(time.Second),
	}
	expired := &models.DiscountCode{
		Code:            "OLD" + suffix,
		DiscountPercent: 15,
		Kind:            models.KindContest,
		OwnerUserID:     owner,
		IssuedDay:       "2020-01-01",
		ExpiresAt:       now.Add(-time.Hour),
		CreatedAt:       now.Add(-14 * 24 * time.Hour),
	}
	for _, dc := range []*models.DiscountCode{wish, expired} {
		if err := store.CreateDiscountCode(ctx, dc); err != nil {
			t.Fatalf("create %s: %v", dc.Code, err)
		}
	}

	got, err := store.GetDiscountCode(ctx, wish.Code)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Kind != models.KindWishlist || len(got.LinkedItems) != 2 || !got.ExpiresAt.Equal(wish.ExpiresAt) {
		t.Errorf("got = %+v", got)
	}
	if _, err := store.GetDiscountCode(ctx, "MISSING"+suffix); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("missing code err = %v, want ErrNotFound", err)
	}

	codes, err := store.ListUnexpiredDiscountCodes(ctx, owner, now)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(codes) != 2 || codes[0].Code != wish.Code || codes[1].Code != wheel.Code {
		t.Errorf("unexpired codes = %v, want [%s %s] newest first", codeList(codes), wish.Code, wheel.Code)
	}

	used, err := store.MarkDiscountCodeUsed(ctx, wheel.Code, now)
	if err != nil {
		t.Fatalf("mark used: %v", err)
	}
	if !used.Used || used.UsedAt == nil {
		t.Errorf("marked code = %+v", used)
	}
	if _, err := store.MarkDiscountCodeUsed(ctx, wheel.Code, now); !errors.Is(err, repository.ErrConditionFailed) {
		t.Errorf("second mark err = %v, want ErrConditionFailed", err)
	}
	if _, err := store.MarkDiscountCodeUsed(ctx, expired.Code, now); !errors.Is(err, repository.ErrConditionFailed) {
		t.Errorf("expired mark err = %v, want ErrConditionFailed", err)
	}
	if _, err := store.MarkDiscountCodeUsed(ctx, "MISSING"+suffix, now); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("missing mark err = %v, want ErrNotFound", err)
	}
}

func promoCodeContract(t *testing.T, store repository.Store, suffix string, now time.Time) {
	ctx := context.Background()
	maxUses := 2
	p := &models.PromoCode{
		Code:           "PROMO" + suffix,
		Description:    "Ten off",
		DiscountType:   models.DiscountFixed,
		DiscountValue:  decimal.RequireFromString("10.00"),
		MaxUses:        &maxUses,
		MinOrderAmount: decimal.RequireFromString("25.50"),
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := store.CreatePromoCode(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.CreatePromoCode(ctx, p); !errors.Is(err, repository.ErrDuplicateCode) {
		t.Errorf("duplicate err = %v, want ErrDuplicateCode", err)
	}

	got, err := store.GetPromoCode(ctx, p.Code)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.MinOrderAmount.Equal(p.MinOrderAmount) || !got.DiscountValue.Equal(p.DiscountValue) || got.MaxUses == nil || *got.MaxUses != 2 {
		t.Errorf("got = %+v", got)
	}

	all, err := store.ListPromoCodes(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	found := false
	for _, q := range all {
		found = found || q.Code == p.Code
	}
	if !found {
		t.Errorf("list does not contain %s", p.Code)
	}

	expires := now.Add(24 * time.Hour)
	got.Description = "Updated"
	got.ExpiresAt = &expires
	got.UpdatedAt = now.Add(time.Minute)
	if err := store.UpdatePromoCode(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got, _ = store.GetPromoCode(ctx, p.Code); got.Description != "Updated" || got.ExpiresAt == nil || !got.ExpiresAt.Equal(expires) {
		t.Errorf("after update = %+v", got)
	}

	for i := 1; i <= 2; i++ {
		bumped, err := store.IncrementPromoUsage(ctx, p.Code, now)
		if err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
		if bumped.UsedCount != i {
			t.Errorf("used count = %d, want %d", bumped.UsedCount, i)
		}
	}
	if _, err := store.IncrementPromoUsage(ctx, p.Code, now); !errors.Is(err, repository.ErrConditionFailed) {
		t.Errorf("increment past max err = %v, want ErrConditionFailed", err)
	}

	shrunk := 1
	got.MaxUses = &shrunk
	if err := store.UpdatePromoCode(ctx, got); !errors.Is(err, repository.ErrConditionFailed) {
		t.Errorf("update below used count err = %v, want ErrConditionFailed", err)
	}
	if got, _ = store.GetPromoCode(ctx, p.Code); got.MaxUses == nil || *got.MaxUses != 2 {
		t.Errorf("max uses after refused update = %v, want 2", got.MaxUses)
	}
	missing := *got
	missing.Code = "MISSING" + suffix
	if err := store.UpdatePromoCode(ctx, &missing); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("update missing err = %v, want ErrNotFound", err)
	}

	if err := store.DeletePromoCode(ctx, p.Code); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.DeletePromoCode(ctx, p.Code); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
	if _, err := store.IncrementPromoUsage(ctx, p.Code, now); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("increment deleted err = %v, want ErrNotFound", err)
	}
}

func giftCardContract(t *testing.T, store repository.Store, suffix string, now time.Time) {
	ctx := context.Background()
	gc := &models.GiftCard{
		Code:          "GC" + suffix,
		InitialAmount: decimal.NewFromInt(100),
		Balance:       decimal.NewFromInt(100),
		Active:        true,
		PurchasedBy:   "buyer-" + suffix,
		CreatedAt:     now,
	}
	if err := store.CreateGiftCard(ctx, gc); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.CreateGiftCard(ctx, gc); !errors.Is(err, repository.ErrDuplicateCode) {
		t.Errorf("duplicate err = %v, want ErrDuplicateCode", err)
	}

	// 30 concurrent charges of 15 against 100: exactly 6 fit.
	var g errgroup.Group
	results := make([]error, 30)
	for i := range results {
		i := i
		g.Go(func() error {
			_, results[i] = store.ChargeGiftCard(ctx, gc.Code, models.GiftCardTransaction{
				ID:          uuid.NewString(),
				OrderRef:    "order-" + suffix,
				AmountDelta: decimal.NewFromInt(-15),
				Timestamp:   now,
			})
			return nil
		})
	}
	_ = g.Wait()

	ok := 0
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case !errors.Is(err, repository.ErrConditionFailed):
			t.Errorf("charge err = %v, want nil or ErrConditionFailed", err)
		}
	}
	if ok != 6 {
		t.Errorf("successful charges = %d, want 6", ok)
	}

	got, err := store.GetGiftCard(ctx, gc.Code)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Balance.Equal(decimal.NewFromInt(10)) || len(got.Transactions) != 6 {
		t.Errorf("balance = %s with %d transactions, want 10 with 6", got.Balance, len(got.Transactions))
	}

	if err := store.BindGiftCardUser(ctx, gc.Code, "holder-"+suffix); err != nil {
		t.Fatalf("bind: %v", err)
	}
	off, err := store.SetGiftCardActive(ctx, gc.Code, false)
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if off.Active || off.UsedBy != "holder-"+suffix {
		t.Errorf("after deactivate = %+v", off)
	}

	if _, err := store.GetGiftCard(ctx, "GCMISSING"+suffix); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("missing get err = %v, want ErrNotFound", err)
	}
	if err := store.BindGiftCardUser(ctx, "GCMISSING"+suffix, "x"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("missing bind err = %v, want ErrNotFound", err)
	}
	if _, err := store.ChargeGiftCard(ctx, "GCMISSING"+suffix, models.GiftCardTransaction{
		ID:          uuid.NewString(),
		AmountDelta: decimal.NewFromInt(-1),
		Timestamp:   now,
	}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("missing charge err = %v, want ErrNotFound", err)
	}
}

func loyaltyContract(t *testing.T, store repository.Store, suffix string, now time.Time) {
	ctx := context.Background()
	userID := "loyal-" + suffix

	acct, err := store.GetOrCreateLoyaltyAccount(ctx, userID, now)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if acct.TotalPoints != 0 || acct.Tier != models.TierBronze {
		t.Errorf("new account = %+v", acct)
	}
	again, err := store.GetOrCreateLoyaltyAccount(ctx, userID, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("second get or create: %v", err)
	}
	if !again.CreatedAt.Equal(acct.CreatedAt) || again.Version != acct.Version {
		t.Errorf("second call created a new account: %+v", again)
	}

	stale := acct.Version
	acct.TotalPoints = 1200
	acct.Tier = models.TierSilver
	acct.UpdatedAt = now
	txn := models.LoyaltyTransaction{ID: uuid.NewString(), OrderRef: "o-" + suffix, PointsDelta: 1200, Kind: "purchase", Timestamp: now}
	if err := store.SaveLoyaltyAccount(ctx, acct, stale, txn); err != nil {
		t.Fatalf("save: %v", err)
	}
	if acct.Version == stale {
		t.Error("save did not advance the version")
	}

	txn.ID = uuid.NewString()
	if err := store.SaveLoyaltyAccount(ctx, acct, stale, txn); !errors.Is(err, repository.ErrVersionConflict) {
		t.Errorf("stale save err = %v, want ErrVersionConflict", err)
	}

	got, err := store.GetOrCreateLoyaltyAccount(ctx, userID, now)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.TotalPoints != 1200 || got.Tier != models.TierSilver || len(got.Transactions) != 1 {
		t.Errorf("reloaded = %+v", got)
	}
}

func contestContract(t *testing.T, store repository.Store, suffix string, now time.Time) {
	ctx := context.Background()
	// A ten-character day key unique to this run keeps counts independent of
	// other data.
	day := "R" + suffix[:9]
	userID := "entrant-" + suffix

	entry := &models.ContestEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Day:       day,
		Method:    models.MethodSpin,
		CreatedAt: now,
	}
	if err := store.CreateContestEntry(ctx, entry); err != nil {
		t.Fatalf("create: %v", err)
	}
	repeat := *entry
	repeat.ID = uuid.NewString()
	if err := store.CreateContestEntry(ctx, &repeat); !errors.Is(err, repository.ErrDuplicateDaily) {
		t.Errorf("repeat entry err = %v, want ErrDuplicateDaily", err)
	}

	has, err := store.HasContestEntry(ctx, userID, day)
	if err != nil || !has {
		t.Errorf("has entry = %v, %v", has, err)
	}
	if has, _ := store.HasContestEntry(ctx, "nobody-"+suffix, day); has {
		t.Error("unexpected entry for another user")
	}
	if n, err := store.CountContestEntries(ctx, day); err != nil || n != 1 {
		t.Errorf("count = %d, %v, want 1", n, err)
	}

	winner := &models.ContestEntry{
		ID:        uuid.NewString(),
		UserID:    "winner-" + suffix,
		Day:       day,
		Method:    models.MethodQuiz,
		IsWinner:  true,
		PrizeCode: "CONTEST" + suffix,
		CreatedAt: now,
	}
	if err := store.CreateContestEntry(ctx, winner); err != nil {
		t.Fatalf("create winner: %v", err)
	}
	if has, err := store.HasContestEntry(ctx, winner.UserID, day); err != nil || !has {
		t.Errorf("has winner entry = %v, %v", has, err)
	}
	if n, err := store.CountContestEntries(ctx, day); err != nil || n != 2 {
		t.Errorf("count = %d, %v, want 2", n, err)
	}
}

func codeList(codes []models.DiscountCode) []string {
	out := make([]string, len(codes))
	for i, dc := range codes {
		out[i] = dc.Code
	}
	return out
}
