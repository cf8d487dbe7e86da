package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/medreza/honcho-rewards-ledger/pkg/codegen"
	"github.com/medreza/honcho-rewards-ledger/pkg/models"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository"
)

// Money amounts are stored with two decimal places.
const moneyPlaces = 2

type IssueGiftCardParams struct {
	Amount         decimal.Decimal
	RecipientEmail string
	RecipientName  string
	SenderName     string
	Message        string
	ExpiryDate     *time.Time
	PurchasedBy    string
}

// GiftCardLedger issues gift cards and moves value out of them. Redeeming a
// card only checks eligibility and binds the user; value leaves the card
// through ApplyCharge, one order at a time.
type GiftCardLedger struct {
	repo repository.GiftCardRepository
	gen  *codegen.Generator
	now  func() time.Time
}

func NewGiftCardLedger(repo repository.GiftCardRepository, gen *codegen.Generator) *GiftCardLedger {
	return &GiftCardLedger{repo: repo, gen: gen, now: time.Now}
}

func (l *GiftCardLedger) Issue(ctx context.Context, p IssueGiftCardParams) (*models.GiftCard, error) {
	amount := p.Amount.Round(moneyPlaces)
	if !amount.IsPositive() {
		return nil, invalidf("Gift card amount must be greater than zero")
	}

	now := l.now()
	if p.ExpiryDate != nil && !p.ExpiryDate.After(now) {
		return nil, invalidf("Gift card expiry date must be in the future")
	}

	gc := &models.GiftCard{
		InitialAmount:  amount,
		Balance:        amount,
		RecipientEmail: strings.TrimSpace(p.RecipientEmail),
		RecipientName:  strings.TrimSpace(p.RecipientName),
		SenderName:     strings.TrimSpace(p.SenderName),
		Message:        p.Message,
		ExpiryDate:     p.ExpiryDate,
		Active:         true,
		PurchasedBy:    p.PurchasedBy,
		Transactions:   make([]models.GiftCardTransaction, 0),
		CreatedAt:      now,
	}

	_, err := issueUnique(
		func() (string, error) { return l.gen.Issue(codegen.KindGiftCard) },
		func(code string) error {
			gc.Code = code
			return l.repo.CreateGiftCard(ctx, gc)
		},
	)
	if err != nil {
		return nil, err
	}
	return gc, nil
}

// Redeem validates that the card can be spent and records userID as its
// holder. The balance is left untouched.
func (l *GiftCardLedger) Redeem(ctx context.Context, code, userID string) (*models.GiftCard, error) {
	gc, err := l.spendable(ctx, code)
	if err != nil {
		return nil, err
	}
	if !gc.Balance.IsPositive() {
		return nil, ErrEmptyBalance
	}

	if err := l.repo.BindGiftCardUser(ctx, gc.Code, userID); err != nil {
		return nil, giftCardError(err)
	}
	gc.UsedBy = userID
	return gc, nil
}

// ApplyCharge takes amount off the card for orderRef. The decrement is a
// conditional write on the current balance, so concurrent charges can never
// overdraw the card.
func (l *GiftCardLedger) ApplyCharge(ctx context.Context, code string, amount decimal.Decimal, orderRef string) (*models.GiftCard, error) {
	amount = amount.Round(moneyPlaces)
	if !amount.IsPositive() {
		return nil, invalidf("Charge amount must be greater than zero")
	}
	orderRef = strings.TrimSpace(orderRef)
	if orderRef == "" {
		return nil, invalidf("Order reference is required")
	}

	gc, err := l.spendable(ctx, code)
	if err != nil {
		return nil, err
	}

	txn := models.GiftCardTransaction{
		ID:          uuid.NewString(),
		OrderRef:    orderRef,
		AmountDelta: amount.Neg(),
		Timestamp:   l.now(),
	}
	charged, err := l.repo.ChargeGiftCard(ctx, gc.Code, txn)
	if err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			return nil, ErrChargeExceedsBalance
		}
		return nil, giftCardError(err)
	}
	return charged, nil
}

func (l *GiftCardLedger) CheckBalance(ctx context.Context, code string) (*models.GiftCard, error) {
	return l.Get(ctx, code)
}

func (l *GiftCardLedger) Get(ctx context.Context, code string) (*models.GiftCard, error) {
	code = codegen.NormalizeCode(code)
	if code == "" {
		return nil, invalidf("Gift card code is required")
	}

	gc, err := l.repo.GetGiftCard(ctx, code)
	if err != nil {
		return nil, giftCardError(err)
	}
	return gc, nil
}

func (l *GiftCardLedger) SetActive(ctx context.Context, code string, active bool) (*models.GiftCard, error) {
	code = codegen.NormalizeCode(code)
	if code == "" {
		return nil, invalidf("Gift card code is required")
	}

	gc, err := l.repo.SetGiftCardActive(ctx, code, active)
	if err != nil {
		return nil, giftCardError(err)
	}
	return gc, nil
}

// spendable loads the card and rejects it when inactive or expired.
func (l *GiftCardLedger) spendable(ctx context.Context, code string) (*models.GiftCard, error) {
	gc, err := l.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if !gc.Active {
		return nil, ErrGiftCardInactive
	}
	if isExpired(gc.ExpiryDate, l.now()) {
		return nil, ErrGiftCardExpired
	}
	return gc, nil
}

func giftCardError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrGiftCardNotFound
	}
	return fmt.Errorf("gift card store: %w", err)
}
