package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/medreza/honcho-rewards-ledger/pkg/codegen"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository/repotest"
)

var testNow = time.Date(2024, 12, 20, 10, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestGiftCards(t *testing.T) (*GiftCardLedger, *repotest.Store) {
	t.Helper()
	store := repotest.New()
	l := NewGiftCardLedger(store, codegen.New(0))
	l.now = fixedClock(testNow)
	return l, store
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestGiftCardChargeScenario(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestGiftCards(t)

	gc, err := l.Issue(ctx, IssueGiftCardParams{Amount: dec("100")})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(gc.Code) < 3 || gc.Code[:2] != "GC" {
		t.Errorf("code %q should start with GC", gc.Code)
	}
	if !gc.Balance.Equal(dec("100")) || !gc.Active {
		t.Fatalf("unexpected new card: balance=%s active=%v", gc.Balance, gc.Active)
	}

	charged, err := l.ApplyCharge(ctx, gc.Code, dec("60"), "order1")
	if err != nil {
		t.Fatalf("charge 60: %v", err)
	}
	if !charged.Balance.Equal(dec("40")) {
		t.Errorf("balance after 60 = %s, want 40", charged.Balance)
	}

	if _, err := l.ApplyCharge(ctx, gc.Code, dec("50"), "order2"); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("charge 50 err = %v, want insufficient balance", err)
	}
	current, err := l.CheckBalance(ctx, gc.Code)
	if err != nil {
		t.Fatal(err)
	}
	if !current.Balance.Equal(dec("40")) {
		t.Errorf("balance after failed charge = %s, want 40", current.Balance)
	}

	charged, err = l.ApplyCharge(ctx, gc.Code, dec("40"), "order3")
	if err != nil {
		t.Fatalf("charge 40: %v", err)
	}
	if !charged.Balance.IsZero() {
		t.Errorf("balance = %s, want 0", charged.Balance)
	}
	if len(charged.Transactions) != 2 {
		t.Fatalf("transactions = %d, want 2", len(charged.Transactions))
	}
	sum := decimal.Zero
	for _, txn := range charged.Transactions {
		sum = sum.Add(txn.AmountDelta)
	}
	if !charged.InitialAmount.Add(sum).Equal(charged.Balance) {
		t.Errorf("initial %s + deltas %s != balance %s", charged.InitialAmount, sum, charged.Balance)
	}
}

func TestGiftCardConcurrentCharges(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestGiftCards(t)

	gc, err := l.Issue(ctx, IssueGiftCardParams{Amount: dec("100")})
	if err != nil {
		t.Fatal(err)
	}

	const requests = 30
	results := make([]error, requests)
	var g errgroup.Group
	for i := 0; i < requests; i++ {
		i := i
		g.Go(func() error {
			_, results[i] = l.ApplyCharge(ctx, gc.Code, dec("15"), fmt.Sprintf("order_%d", i))
			return nil
		})
	}
	g.Wait()

	succeeded := 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrChargeExceedsBalance):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 6 {
		t.Errorf("succeeded = %d, want 6", succeeded)
	}

	final, err := l.Get(ctx, gc.Code)
	if err != nil {
		t.Fatal(err)
	}
	if !final.Balance.Equal(dec("10")) {
		t.Errorf("final balance = %s, want 10", final.Balance)
	}
}

func TestGiftCardIssueValidation(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestGiftCards(t)

	for _, amount := range []string{"0", "-5", "0.001"} {
		if _, err := l.Issue(ctx, IssueGiftCardParams{Amount: dec(amount)}); !errors.Is(err, ErrValidation) {
			t.Errorf("Issue(%s) err = %v, want validation error", amount, err)
		}
	}

	past := testNow.Add(-time.Hour)
	if _, err := l.Issue(ctx, IssueGiftCardParams{Amount: dec("10"), ExpiryDate: &past}); !errors.Is(err, ErrValidation) {
		t.Errorf("past expiry err = %v, want validation error", err)
	}
}

func TestGiftCardRedeem(t *testing.T) {
	ctx := context.Background()
	l, store := newTestGiftCards(t)

	if _, err := l.Redeem(ctx, "GCUNKNOWN", "u1"); !errors.Is(err, ErrGiftCardNotFound) {
		t.Errorf("unknown card err = %v, want not found", err)
	}

	gc, err := l.Issue(ctx, IssueGiftCardParams{Amount: dec("25"), RecipientEmail: "kim@example.com", PurchasedBy: "buyer"})
	if err != nil {
		t.Fatal(err)
	}

	redeemed, err := l.Redeem(ctx, " "+gc.Code+" ", "u1")
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if !redeemed.Balance.Equal(dec("25")) {
		t.Errorf("redeem changed balance to %s", redeemed.Balance)
	}
	stored, _ := store.GetGiftCard(ctx, gc.Code)
	if stored.UsedBy != "u1" {
		t.Errorf("used_by = %q, want u1", stored.UsedBy)
	}

	if _, err := l.SetActive(ctx, gc.Code, false); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Redeem(ctx, gc.Code, "u1"); !errors.Is(err, ErrGiftCardInactive) {
		t.Errorf("inactive card err = %v, want inactive", err)
	}
	if _, err := l.ApplyCharge(ctx, gc.Code, dec("1"), "o"); !errors.Is(err, ErrInactive) {
		t.Errorf("charge on inactive card err = %v, want inactive", err)
	}
	if _, err := l.SetActive(ctx, gc.Code, true); err != nil {
		t.Fatal(err)
	}

	if _, err := l.ApplyCharge(ctx, gc.Code, dec("25"), "o1"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Redeem(ctx, gc.Code, "u1"); !errors.Is(err, ErrEmptyBalance) {
		t.Errorf("empty card err = %v, want empty balance", err)
	}
}

func TestGiftCardExpiry(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestGiftCards(t)

	expiry := testNow.Add(24 * time.Hour)
	gc, err := l.Issue(ctx, IssueGiftCardParams{Amount: dec("10"), ExpiryDate: &expiry})
	if err != nil {
		t.Fatal(err)
	}

	l.now = fixedClock(expiry.Add(time.Second))
	if _, err := l.Redeem(ctx, gc.Code, "u1"); !errors.Is(err, ErrGiftCardExpired) {
		t.Errorf("redeem err = %v, want expired", err)
	}
	if _, err := l.ApplyCharge(ctx, gc.Code, dec("1"), "o"); !errors.Is(err, ErrExpired) {
		t.Errorf("charge err = %v, want expired", err)
	}
	if got := GiftCardStatus(gc, l.now()); got != StatusExpired {
		t.Errorf("status = %s, want expired", got)
	}
}

func TestApplyChargeValidation(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestGiftCards(t)

	gc, err := l.Issue(ctx, IssueGiftCardParams{Amount: dec("10")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.ApplyCharge(ctx, gc.Code, dec("0"), "o"); !errors.Is(err, ErrValidation) {
		t.Errorf("zero charge err = %v, want validation", err)
	}
	if _, err := l.ApplyCharge(ctx, gc.Code, dec("1"), "  "); !errors.Is(err, ErrValidation) {
		t.Errorf("missing order ref err = %v, want validation", err)
	}
}

func TestGiftCardStoreFailure(t *testing.T) {
	ctx := context.Background()
	l, store := newTestGiftCards(t)
	store.FailWith = errors.New("connection reset")

	_, err := l.Get(ctx, "GCX")
	if err == nil {
		t.Fatal("expected error")
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		t.Errorf("store failure surfaced as domain error %v", domainErr)
	}
}
