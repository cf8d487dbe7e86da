package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medreza/honcho-rewards-ledger/pkg/models"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository"
)

const (
	SilverThreshold   int64 = 1000
	GoldThreshold     int64 = 2000
	PlatinumThreshold int64 = 5000
)

// Loyalty transaction kinds.
const (
	TxnPurchase   = "purchase"
	TxnBonus      = "bonus"
	TxnReferral   = "referral"
	TxnAdjustment = "adjustment"
	TxnRedeem     = "redeem"
)

var accrualKinds = map[string]bool{
	TxnPurchase:   true,
	TxnBonus:      true,
	TxnReferral:   true,
	TxnAdjustment: true,
}

// TierFor returns the highest tier whose threshold points meets.
func TierFor(points int64) models.Tier {
	switch {
	case points >= PlatinumThreshold:
		return models.TierPlatinum
	case points >= GoldThreshold:
		return models.TierGold
	case points >= SilverThreshold:
		return models.TierSilver
	default:
		return models.TierBronze
	}
}

func tierRank(t models.Tier) int {
	switch t {
	case models.TierPlatinum:
		return 3
	case models.TierGold:
		return 2
	case models.TierSilver:
		return 1
	default:
		return 0
	}
}

// LoyaltyManager accrues and spends points. Writes are guarded by the
// account's version, so a concurrent update surfaces as ErrConcurrentUpdate
// instead of a lost write.
type LoyaltyManager struct {
	repo repository.LoyaltyRepository
	now  func() time.Time
}

func NewLoyaltyManager(repo repository.LoyaltyRepository) *LoyaltyManager {
	return &LoyaltyManager{repo: repo, now: time.Now}
}

func (m *LoyaltyManager) GetOrCreate(ctx context.Context, userID string) (*models.LoyaltyAccount, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, invalidf("User ID is required")
	}

	acct, err := m.repo.GetOrCreateLoyaltyAccount(ctx, userID, m.now())
	if err != nil {
		return nil, fmt.Errorf("loyalty store: %w", err)
	}
	return acct, nil
}

// Accrue credits points to the account and raises the tier when the new
// total crosses a threshold. kind defaults to purchase.
func (m *LoyaltyManager) Accrue(ctx context.Context, userID string, points int64, orderRef, kind string) (*models.LoyaltyAccount, error) {
	if points < 0 {
		return nil, invalidf("Points must not be negative")
	}
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		kind = TxnPurchase
	}
	if !accrualKinds[kind] {
		return nil, invalidf("Unknown transaction type %q", kind)
	}

	acct, err := m.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if points > math.MaxInt64-acct.TotalPoints {
		return nil, invalidf("Accrual would exceed the maximum point balance")
	}

	now := m.now()
	expected := acct.Version
	acct.TotalPoints += points
	if computed := TierFor(acct.TotalPoints); tierRank(computed) > tierRank(acct.Tier) {
		acct.Tier = computed
	}
	acct.UpdatedAt = now

	txn := models.LoyaltyTransaction{
		ID:          uuid.NewString(),
		OrderRef:    strings.TrimSpace(orderRef),
		PointsDelta: points,
		Kind:        kind,
		Timestamp:   now,
	}
	if err := m.save(ctx, acct, expected, txn); err != nil {
		return nil, err
	}
	return acct, nil
}

// RedeemPoints spends points from the balance. The tier reflects lifetime
// earning and is not lowered.
func (m *LoyaltyManager) RedeemPoints(ctx context.Context, userID string, points int64) (int64, error) {
	if points <= 0 {
		return 0, invalidf("Points must be greater than zero")
	}

	acct, err := m.GetOrCreate(ctx, userID)
	if err != nil {
		return 0, err
	}
	if points > acct.TotalPoints {
		return 0, ErrNotEnoughPoints
	}

	now := m.now()
	expected := acct.Version
	acct.TotalPoints -= points
	acct.RedeemedPoints += points
	acct.UpdatedAt = now

	txn := models.LoyaltyTransaction{
		ID:          uuid.NewString(),
		PointsDelta: -points,
		Kind:        TxnRedeem,
		Timestamp:   now,
	}
	if err := m.save(ctx, acct, expected, txn); err != nil {
		return 0, err
	}
	return acct.TotalPoints, nil
}

func (m *LoyaltyManager) save(ctx context.Context, acct *models.LoyaltyAccount, expected int64, txn models.LoyaltyTransaction) error {
	err := m.repo.SaveLoyaltyAccount(ctx, acct, expected, txn)
	switch {
	case err == nil:
		acct.Transactions = append(acct.Transactions, txn)
		return nil
	case errors.Is(err, repository.ErrVersionConflict):
		return ErrConcurrentUpdate
	default:
		return fmt.Errorf("loyalty store: %w", err)
	}
}
