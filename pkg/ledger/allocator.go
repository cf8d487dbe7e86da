package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medreza/honcho-rewards-ledger/pkg/codegen"
	"github.com/medreza/honcho-rewards-ledger/pkg/models"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository"
)

const (
	DefaultDailySpots     = 100
	DefaultWinProbability = 0.10
)

const (
	wheelCodeTTL    = 3 * 24 * time.Hour
	contestCodeTTL  = 14 * 24 * time.Hour
	wishlistCodeTTL = 7 * 24 * time.Hour
)

// Contest prizes are 15-25% and wishlist rewards 10-25%, both inclusive.
const (
	contestMinDiscount   = 15
	contestDiscountSpan  = 11
	wishlistMinDiscount  = 10
	wishlistDiscountSpan = 16
)

type Prize struct {
	Discount int
	Type     models.PrizeType
}

func (p Prize) Label() string {
	if p.Type == models.PrizeFreeShipping {
		return "Free Shipping"
	}
	return fmt.Sprintf("%d%% OFF", p.Discount)
}

// wheelPrizes is drawn uniformly. Free shipping appears twice, so it is twice
// as likely as any single discount.
var wheelPrizes = []Prize{
	{Discount: 5, Type: models.PrizeDiscount},
	{Discount: 10, Type: models.PrizeDiscount},
	{Discount: 15, Type: models.PrizeDiscount},
	{Discount: 20, Type: models.PrizeDiscount},
	{Discount: 25, Type: models.PrizeDiscount},
	{Discount: 100, Type: models.PrizeFreeShipping},
	{Discount: 100, Type: models.PrizeFreeShipping},
}

var contestMethods = map[models.ContestMethod]bool{
	models.MethodSpin:     true,
	models.MethodOrnament: true,
	models.MethodQuiz:     true,
}

type AllocatorConfig struct {
	DailySpots     int
	WinProbability float64
	Calendar       Calendar
}

type SpinResult struct {
	Code  string
	Prize Prize
}

type ContestResult struct {
	Entry          *models.ContestEntry
	IsWinner       bool
	Code           string
	Discount       int
	SpotsRemaining int
}

// Allocator hands out randomized rewards. The once-per-day gates are enforced
// by unique (user, day) keys in the store. The contest capacity ceiling is a
// count taken before the insert and can be overshot by requests racing on the
// last spots.
type Allocator struct {
	codes   repository.DiscountCodeRepository
	contest repository.ContestRepository
	gen     *codegen.Generator
	cfg     AllocatorConfig
	now     func() time.Time
	randInt func(max int) (int, error)
}

func NewAllocator(codes repository.DiscountCodeRepository, contest repository.ContestRepository, gen *codegen.Generator, cfg AllocatorConfig) *Allocator {
	if cfg.DailySpots <= 0 {
		cfg.DailySpots = DefaultDailySpots
	}
	return &Allocator{
		codes:   codes,
		contest: contest,
		gen:     gen,
		cfg:     cfg,
		now:     time.Now,
		randInt: secureRandomInt,
	}
}

func (a *Allocator) DailySpots() int { return a.cfg.DailySpots }

// Spin draws a wheel prize and issues its code. A second spin on the same
// calendar day fails with ErrAlreadySpunToday.
func (a *Allocator) Spin(ctx context.Context, userID string) (*SpinResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalidf("User ID is required")
	}

	idx, err := a.randInt(len(wheelPrizes))
	if err != nil {
		return nil, fmt.Errorf("failed to draw prize: %w", err)
	}
	prize := wheelPrizes[idx]

	now := a.now()
	dc := &models.DiscountCode{
		DiscountPercent: prize.Discount,
		Kind:            models.KindWheel,
		OwnerUserID:     userID,
		PrizeType:       prize.Type,
		IssuedDay:       a.cfg.Calendar.Day(now),
		ExpiresAt:       now.Add(wheelCodeTTL),
		CreatedAt:       now,
	}
	if err := a.issue(ctx, codegen.KindWheel, dc); err != nil {
		if errors.Is(err, repository.ErrDuplicateDaily) {
			return nil, ErrAlreadySpunToday
		}
		return nil, err
	}
	return &SpinResult{Code: dc.Code, Prize: prize}, nil
}

// EnterContest admits one entry per user and day, up to the daily spot limit,
// drawing independently whether each admitted entry wins.
func (a *Allocator) EnterContest(ctx context.Context, userID, method string) (*ContestResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalidf("User ID is required")
	}
	m := models.ContestMethod(strings.ToLower(strings.TrimSpace(method)))
	if m == "" {
		m = models.MethodSpin
	}
	if !contestMethods[m] {
		return nil, invalidf("Unknown contest method %q", method)
	}

	now := a.now()
	day := a.cfg.Calendar.Day(now)

	entered, err := a.contest.HasContestEntry(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("contest store: %w", err)
	}
	if entered {
		return nil, ErrAlreadyEnteredToday
	}

	count, err := a.contest.CountContestEntries(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("contest store: %w", err)
	}
	if count >= a.cfg.DailySpots {
		return nil, ErrCapacityReached
	}

	won, err := bernoulli(a.randInt, a.cfg.WinProbability)
	if err != nil {
		return nil, fmt.Errorf("failed to draw contest result: %w", err)
	}

	entry := &models.ContestEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Day:       day,
		Method:    m,
		CreatedAt: now,
	}

	// A winner's code is issued before the entry is stored, so a failed
	// issuance leaves the user free to enter again.
	var prize *models.DiscountCode
	if won {
		discount, err := a.drawDiscount(contestMinDiscount, contestDiscountSpan)
		if err != nil {
			return nil, err
		}
		prize = &models.DiscountCode{
			DiscountPercent: discount,
			Kind:            models.KindContest,
			OwnerUserID:     userID,
			PrizeType:       models.PrizeDiscount,
			IssuedDay:       day,
			ExpiresAt:       now.Add(contestCodeTTL),
			CreatedAt:       now,
		}
		if err := a.issue(ctx, codegen.KindContest, prize); err != nil {
			return nil, err
		}
		entry.IsWinner = true
		entry.PrizeCode = prize.Code
	}

	if err := a.contest.CreateContestEntry(ctx, entry); err != nil {
		if prize != nil {
			// The entry was refused, so the prize code must not stay spendable.
			if _, voidErr := a.codes.MarkDiscountCodeUsed(ctx, prize.Code, now); voidErr != nil {
				err = errors.Join(err, fmt.Errorf("failed to void prize code %s: %w", prize.Code, voidErr))
			}
		}
		if errors.Is(err, repository.ErrDuplicateDaily) {
			return nil, ErrAlreadyEnteredToday
		}
		return nil, fmt.Errorf("contest store: %w", err)
	}

	if prize == nil {
		return &ContestResult{
			Entry:          entry,
			SpotsRemaining: max(0, a.cfg.DailySpots-count-1),
		}, nil
	}
	return &ContestResult{Entry: entry, IsWinner: true, Code: prize.Code, Discount: prize.DiscountPercent}, nil
}

// ContestSpots reports how many entries are still open today.
func (a *Allocator) ContestSpots(ctx context.Context) (int, error) {
	count, err := a.contest.CountContestEntries(ctx, a.cfg.Calendar.Day(a.now()))
	if err != nil {
		return 0, fmt.Errorf("contest store: %w", err)
	}
	return max(0, a.cfg.DailySpots-count), nil
}

// SubmitWishlist always issues a wishlist code linked to the submitted items.
func (a *Allocator) SubmitWishlist(ctx context.Context, userID string, items []string) (*models.DiscountCode, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalidf("User ID is required")
	}

	linked := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			linked = append(linked, item)
		}
	}

	discount, err := a.drawDiscount(wishlistMinDiscount, wishlistDiscountSpan)
	if err != nil {
		return nil, err
	}

	now := a.now()
	dc := &models.DiscountCode{
		DiscountPercent: discount,
		Kind:            models.KindWishlist,
		OwnerUserID:     userID,
		PrizeType:       models.PrizeDiscount,
		IssuedDay:       a.cfg.Calendar.Day(now),
		ExpiresAt:       now.Add(wishlistCodeTTL),
		LinkedItems:     linked,
		CreatedAt:       now,
	}
	if err := a.issue(ctx, codegen.KindWishlist, dc); err != nil {
		return nil, err
	}
	return dc, nil
}

func (a *Allocator) drawDiscount(base, span int) (int, error) {
	n, err := a.randInt(span)
	if err != nil {
		return 0, fmt.Errorf("failed to draw discount: %w", err)
	}
	return base + n, nil
}

func (a *Allocator) issue(ctx context.Context, kind codegen.Kind, dc *models.DiscountCode) error {
	_, err := issueUnique(
		func() (string, error) { return a.gen.Issue(kind) },
		func(code string) error {
			dc.Code = code
			return a.codes.CreateDiscountCode(ctx, dc)
		},
	)
	if err == nil || errors.Is(err, ErrDuplicateCode) || errors.Is(err, repository.ErrDuplicateDaily) {
		return err
	}
	return fmt.Errorf("failed to issue %s code: %w", kind, err)
}
