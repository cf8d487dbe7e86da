package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/medreza/honcho-rewards-ledger/pkg/codegen"
	"github.com/medreza/honcho-rewards-ledger/pkg/models"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository"
)

var hundred = decimal.NewFromInt(100)

// ValidatePromo evaluates a promo against an order without touching the
// store. An inactive promo reads as not found. The discount never exceeds
// the order amount.
func ValidatePromo(p *models.PromoCode, orderAmount decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if orderAmount.IsNegative() {
		return decimal.Zero, invalidf("Order amount must not be negative")
	}
	if p == nil || !p.Active {
		return decimal.Zero, ErrPromoNotFound
	}
	if isExpired(p.ExpiresAt, now) {
		return decimal.Zero, ErrPromoExpired
	}
	if p.MaxUses != nil && p.UsedCount >= *p.MaxUses {
		return decimal.Zero, ErrUsageLimitReached
	}
	if orderAmount.LessThan(p.MinOrderAmount) {
		return decimal.Zero, minimumNotMet(p.MinOrderAmount.StringFixed(moneyPlaces))
	}

	var discount decimal.Decimal
	switch p.DiscountType {
	case models.DiscountPercentage:
		discount = orderAmount.Mul(p.DiscountValue).Div(hundred)
	default:
		discount = p.DiscountValue
	}
	if discount.GreaterThan(orderAmount) {
		discount = orderAmount
	}
	return discount.Round(moneyPlaces), nil
}

type CreatePromoParams struct {
	Code           string
	Prefix         string
	Description    string
	DiscountType   models.PromoDiscountType
	DiscountValue  decimal.Decimal
	MaxUses        *int
	MinOrderAmount decimal.Decimal
	ExpiresAt      *time.Time
}

// PromoService validates promo codes for checkout and administers them.
// Validation never consumes a use; CommitUsage does, once the order is final.
type PromoService struct {
	repo repository.PromoCodeRepository
	gen  *codegen.Generator
	now  func() time.Time
}

func NewPromoService(repo repository.PromoCodeRepository, gen *codegen.Generator) *PromoService {
	return &PromoService{repo: repo, gen: gen, now: time.Now}
}

func (s *PromoService) ValidateCode(ctx context.Context, code string, orderAmount decimal.Decimal) (*models.PromoCode, decimal.Decimal, error) {
	p, err := s.Get(ctx, code)
	if err != nil {
		return nil, decimal.Zero, err
	}
	discount, err := ValidatePromo(p, orderAmount, s.now())
	if err != nil {
		return nil, decimal.Zero, err
	}
	return p, discount, nil
}

// CommitUsage records one use. The increment is conditional on the usage cap,
// so two checkouts racing for the last use cannot both succeed.
func (s *PromoService) CommitUsage(ctx context.Context, code string) (*models.PromoCode, error) {
	p, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !p.Active {
		return nil, ErrPromoNotFound
	}
	if isExpired(p.ExpiresAt, now) {
		return nil, ErrPromoExpired
	}

	updated, err := s.repo.IncrementPromoUsage(ctx, p.Code, now)
	if err != nil {
		if errors.Is(err, repository.ErrConditionFailed) {
			return nil, ErrUsageLimitReached
		}
		return nil, promoError(err)
	}
	return updated, nil
}

func (s *PromoService) Create(ctx context.Context, params CreatePromoParams) (*models.PromoCode, error) {
	now := s.now()
	p := &models.PromoCode{
		Description:    strings.TrimSpace(params.Description),
		DiscountType:   params.DiscountType,
		DiscountValue:  params.DiscountValue.Round(moneyPlaces),
		MaxUses:        params.MaxUses,
		MinOrderAmount: params.MinOrderAmount.Round(moneyPlaces),
		ExpiresAt:      params.ExpiresAt,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := checkPromo(p); err != nil {
		return nil, err
	}
	if p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
		return nil, invalidf("Expiry date must be in the future")
	}

	code := codegen.NormalizeCode(params.Code)
	if code != "" {
		if err := codegen.Validate(code); err != nil {
			return nil, invalidf("Invalid promo code: %v", err)
		}
		p.Code = code
		if err := s.repo.CreatePromoCode(ctx, p); err != nil {
			if errors.Is(err, repository.ErrDuplicateCode) {
				return nil, ErrDuplicateCode
			}
			return nil, promoError(err)
		}
		return p, nil
	}

	prefix := codegen.NormalizeCode(params.Prefix)
	if prefix == "" {
		return nil, invalidf("Either code or prefix is required")
	}
	_, err := issueUnique(
		func() (string, error) {
			c, err := s.gen.IssueWithPrefix(prefix)
			if err != nil {
				return "", invalidf("Invalid prefix: %v", err)
			}
			return c, nil
		},
		func(c string) error {
			p.Code = c
			return s.repo.CreatePromoCode(ctx, p)
		},
	)
	if err != nil {
		var domainErr *Error
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, promoError(err)
	}
	return p, nil
}

func (s *PromoService) Get(ctx context.Context, code string) (*models.PromoCode, error) {
	code = codegen.NormalizeCode(code)
	if code == "" {
		return nil, invalidf("Promo code is required")
	}

	p, err := s.repo.GetPromoCode(ctx, code)
	if err != nil {
		return nil, promoError(err)
	}
	return p, nil
}

func (s *PromoService) List(ctx context.Context) ([]models.PromoCode, error) {
	promos, err := s.repo.ListPromoCodes(ctx)
	if err != nil {
		return nil, promoError(err)
	}
	return promos, nil
}

// Update applies the non-nil fields of upd. The usage cap cannot be lowered
// below the uses already recorded.
func (s *PromoService) Update(ctx context.Context, code string, upd models.UpdatePromoCodeRequest) (*models.PromoCode, error) {
	p, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	if upd.Description != nil {
		p.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.DiscountValue != nil {
		p.DiscountValue = upd.DiscountValue.Round(moneyPlaces)
	}
	if upd.MaxUses != nil {
		n := *upd.MaxUses
		p.MaxUses = &n
	}
	if upd.MinOrderAmount != nil {
		p.MinOrderAmount = upd.MinOrderAmount.Round(moneyPlaces)
	}
	if upd.ExpiresAt != nil {
		t := *upd.ExpiresAt
		p.ExpiresAt = &t
	}
	if upd.Active != nil {
		p.Active = *upd.Active
	}
	if err := checkPromo(p); err != nil {
		return nil, err
	}
	if p.MaxUses != nil && *p.MaxUses < p.UsedCount {
		return nil, invalidf("Max uses cannot be lower than the %d uses already recorded", p.UsedCount)
	}
	p.UpdatedAt = s.now()

	if err := s.repo.UpdatePromoCode(ctx, p); err != nil {
		// Usage committed since the read can push used_count past the new limit.
		if errors.Is(err, repository.ErrConditionFailed) {
			return nil, invalidf("Max uses cannot be lower than the uses already recorded")
		}
		return nil, promoError(err)
	}
	return p, nil
}

func (s *PromoService) Delete(ctx context.Context, code string) error {
	code = codegen.NormalizeCode(code)
	if code == "" {
		return invalidf("Promo code is required")
	}
	if err := s.repo.DeletePromoCode(ctx, code); err != nil {
		return promoError(err)
	}
	return nil
}

func checkPromo(p *models.PromoCode) error {
	switch p.DiscountType {
	case models.DiscountPercentage, models.DiscountFixed:
	default:
		return invalidf("Discount type must be percentage or fixed")
	}
	if p.DiscountValue.IsNegative() {
		return invalidf("Discount value must not be negative")
	}
	if p.DiscountType == models.DiscountPercentage && p.DiscountValue.GreaterThan(hundred) {
		return invalidf("Percentage discount cannot exceed 100")
	}
	if p.MinOrderAmount.IsNegative() {
		return invalidf("Minimum order amount must not be negative")
	}
	if p.MaxUses != nil && *p.MaxUses < 1 {
		return invalidf("Max uses must be at least 1")
	}
	return nil
}

func promoError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPromoNotFound
	}
	return fmt.Errorf("promo code store: %w", err)
}
