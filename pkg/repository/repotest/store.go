// Package repotest provides an in-memory repository.Store for tests. It keeps
// the storage-level guarantees of the real stores (unique codes, one record
// per user and day, conditional updates) behind a single mutex.
package repotest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/medreza/honcho-rewards-ledger/pkg/models"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository"
)

type Store struct {
	mu sync.Mutex

	discountCodes   map[string]models.DiscountCode
	wheelDaily      map[string]string
	promoCodes      map[string]models.PromoCode
	giftCards       map[string]models.GiftCard
	loyaltyAccounts map[string]models.LoyaltyAccount
	contestEntries  map[string]models.ContestEntry
	contestDaily    map[string]string

	// FailWith, when set, is returned by every call. Tests use it to exercise
	// internal-error paths.
	FailWith error
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		discountCodes:   make(map[string]models.DiscountCode),
		wheelDaily:      make(map[string]string),
		promoCodes:      make(map[string]models.PromoCode),
		giftCards:       make(map[string]models.GiftCard),
		loyaltyAccounts: make(map[string]models.LoyaltyAccount),
		contestEntries:  make(map[string]models.ContestEntry),
		contestDaily:    make(map[string]string),
	}
}

func dailyKey(userID, day string) string { return userID + "|" + day }

func (s *Store) lock() error {
	s.mu.Lock()
	if s.FailWith != nil {
		s.mu.Unlock()
		return s.FailWith
	}
	return nil
}

func (s *Store) Ping(context.Context) error {
	if err := s.lock(); err != nil {
		return err
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) Close(context.Context) error { return nil }

// --- discount codes ---

func (s *Store) CreateDiscountCode(_ context.Context, dc *models.DiscountCode) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if _, ok := s.discountCodes[dc.Code]; ok {
		return repository.ErrDuplicateCode
	}
	if dc.Kind == models.KindWheel {
		key := dailyKey(dc.OwnerUserID, dc.IssuedDay)
		if _, ok := s.wheelDaily[key]; ok {
			return repository.ErrDuplicateDaily
		}
		s.wheelDaily[key] = dc.Code
	}
	s.discountCodes[dc.Code] = cloneDiscountCode(*dc)
	return nil
}

func (s *Store) GetDiscountCode(_ context.Context, code string) (*models.DiscountCode, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	dc, ok := s.discountCodes[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneDiscountCode(dc)
	return &out, nil
}

func (s *Store) ListUnexpiredDiscountCodes(_ context.Context, userID string, now time.Time) ([]models.DiscountCode, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	codes := make([]models.DiscountCode, 0)
	for _, dc := range s.discountCodes {
		if dc.OwnerUserID == userID && dc.ExpiresAt.After(now) {
			codes = append(codes, cloneDiscountCode(dc))
		}
	}
	sort.Slice(codes, func(i, j int) bool {
		if codes[i].CreatedAt.Equal(codes[j].CreatedAt) {
			return codes[i].Code < codes[j].Code
		}
		return codes[i].CreatedAt.After(codes[j].CreatedAt)
	})
	return codes, nil
}

func (s *Store) MarkDiscountCodeUsed(_ context.Context, code string, now time.Time) (*models.DiscountCode, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	dc, ok := s.discountCodes[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if dc.Used || !dc.ExpiresAt.After(now) {
		return nil, repository.ErrConditionFailed
	}
	dc.Used = true
	usedAt := now
	dc.UsedAt = &usedAt
	s.discountCodes[code] = dc
	out := cloneDiscountCode(dc)
	return &out, nil
}

// --- promo codes ---

func (s *Store) CreatePromoCode(_ context.Context, p *models.PromoCode) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if _, ok := s.promoCodes[p.Code]; ok {
		return repository.ErrDuplicateCode
	}
	s.promoCodes[p.Code] = clonePromoCode(*p)
	return nil
}

func (s *Store) GetPromoCode(_ context.Context, code string) (*models.PromoCode, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	p, ok := s.promoCodes[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := clonePromoCode(p)
	return &out, nil
}

func (s *Store) ListPromoCodes(context.Context) ([]models.PromoCode, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	promos := make([]models.PromoCode, 0, len(s.promoCodes))
	for _, p := range s.promoCodes {
		promos = append(promos, clonePromoCode(p))
	}
	sort.Slice(promos, func(i, j int) bool { return promos[i].Code < promos[j].Code })
	return promos, nil
}

func (s *Store) UpdatePromoCode(_ context.Context, p *models.PromoCode) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	existing, ok := s.promoCodes[p.Code]
	if !ok {
		return repository.ErrNotFound
	}
	if p.MaxUses != nil && existing.UsedCount > *p.MaxUses {
		return repository.ErrConditionFailed
	}
	existing.Description = p.Description
	existing.DiscountValue = p.DiscountValue
	existing.MaxUses = p.MaxUses
	existing.MinOrderAmount = p.MinOrderAmount
	existing.ExpiresAt = p.ExpiresAt
	existing.Active = p.Active
	existing.UpdatedAt = p.UpdatedAt
	s.promoCodes[p.Code] = clonePromoCode(existing)
	return nil
}

func (s *Store) DeletePromoCode(_ context.Context, code string) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if _, ok := s.promoCodes[code]; !ok {
		return repository.ErrNotFound
	}
	delete(s.promoCodes, code)
	return nil
}

func (s *Store) IncrementPromoUsage(_ context.Context, code string, now time.Time) (*models.PromoCode, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	p, ok := s.promoCodes[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p.MaxUses != nil && p.UsedCount >= *p.MaxUses {
		return nil, repository.ErrConditionFailed
	}
	p.UsedCount++
	p.UpdatedAt = now
	s.promoCodes[code] = p
	out := clonePromoCode(p)
	return &out, nil
}

// --- gift cards ---

func (s *Store) CreateGiftCard(_ context.Context, gc *models.GiftCard) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if _, ok := s.giftCards[gc.Code]; ok {
		return repository.ErrDuplicateCode
	}
	if gc.Transactions == nil {
		gc.Transactions = make([]models.GiftCardTransaction, 0)
	}
	s.giftCards[gc.Code] = cloneGiftCard(*gc)
	return nil
}

func (s *Store) GetGiftCard(_ context.Context, code string) (*models.GiftCard, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	gc, ok := s.giftCards[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneGiftCard(gc)
	return &out, nil
}

func (s *Store) BindGiftCardUser(_ context.Context, code, userID string) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	gc, ok := s.giftCards[code]
	if !ok {
		return repository.ErrNotFound
	}
	gc.UsedBy = userID
	s.giftCards[code] = gc
	return nil
}

func (s *Store) SetGiftCardActive(_ context.Context, code string, active bool) (*models.GiftCard, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	gc, ok := s.giftCards[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	gc.Active = active
	s.giftCards[code] = gc
	out := cloneGiftCard(gc)
	return &out, nil
}

func (s *Store) ChargeGiftCard(_ context.Context, code string, txn models.GiftCardTransaction) (*models.GiftCard, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	gc, ok := s.giftCards[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if gc.Balance.LessThan(txn.AmountDelta.Neg()) {
		return nil, repository.ErrConditionFailed
	}
	gc.Balance = gc.Balance.Add(txn.AmountDelta)
	gc.Transactions = append(cloneGiftCard(gc).Transactions, txn)
	s.giftCards[code] = gc
	out := cloneGiftCard(gc)
	return &out, nil
}

// --- loyalty ---

func (s *Store) GetOrCreateLoyaltyAccount(_ context.Context, userID string, now time.Time) (*models.LoyaltyAccount, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	acct, ok := s.loyaltyAccounts[userID]
	if !ok {
		acct = models.LoyaltyAccount{
			UserID:       userID,
			Tier:         models.TierBronze,
			Transactions: make([]models.LoyaltyTransaction, 0),
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		s.loyaltyAccounts[userID] = acct
	}
	out := cloneLoyaltyAccount(acct)
	return &out, nil
}

func (s *Store) SaveLoyaltyAccount(_ context.Context, acct *models.LoyaltyAccount, expectedVersion int64, txn models.LoyaltyTransaction) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	stored, ok := s.loyaltyAccounts[acct.UserID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	stored.TotalPoints = acct.TotalPoints
	stored.Tier = acct.Tier
	stored.RedeemedPoints = acct.RedeemedPoints
	stored.UpdatedAt = acct.UpdatedAt
	stored.Version = expectedVersion + 1
	stored.Transactions = append(cloneLoyaltyAccount(stored).Transactions, txn)
	s.loyaltyAccounts[acct.UserID] = stored
	acct.Version = stored.Version
	return nil
}

// --- contest ---

func (s *Store) HasContestEntry(_ context.Context, userID, day string) (bool, error) {
	if err := s.lock(); err != nil {
		return false, err
	}
	defer s.mu.Unlock()

	_, ok := s.contestDaily[dailyKey(userID, day)]
	return ok, nil
}

func (s *Store) CountContestEntries(_ context.Context, day string) (int, error) {
	if err := s.lock(); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.contestEntries {
		if e.Day == day {
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateContestEntry(_ context.Context, entry *models.ContestEntry) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	key := dailyKey(entry.UserID, entry.Day)
	if _, ok := s.contestDaily[key]; ok {
		return repository.ErrDuplicateDaily
	}
	if _, ok := s.contestEntries[entry.ID]; ok {
		return errors.New("repotest: duplicate contest entry id")
	}
	s.contestDaily[key] = entry.ID
	s.contestEntries[entry.ID] = *entry
	return nil
}

// ContestEntries returns a snapshot of the entries recorded for day.
func (s *Store) ContestEntries(day string) []models.ContestEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]models.ContestEntry, 0)
	for _, e := range s.contestEntries {
		if e.Day == day {
			entries = append(entries, e)
		}
	}
	return entries
}

func cloneDiscountCode(dc models.DiscountCode) models.DiscountCode {
	if dc.LinkedItems != nil {
		dc.LinkedItems = append([]string(nil), dc.LinkedItems...)
	}
	if dc.UsedAt != nil {
		t := *dc.UsedAt
		dc.UsedAt = &t
	}
	return dc
}

func clonePromoCode(p models.PromoCode) models.PromoCode {
	if p.MaxUses != nil {
		n := *p.MaxUses
		p.MaxUses = &n
	}
	if p.ExpiresAt != nil {
		t := *p.ExpiresAt
		p.ExpiresAt = &t
	}
	return p
}

func cloneGiftCard(gc models.GiftCard) models.GiftCard {
	gc.Transactions = append(make([]models.GiftCardTransaction, 0, len(gc.Transactions)), gc.Transactions...)
	if gc.ExpiryDate != nil {
		t := *gc.ExpiryDate
		gc.ExpiryDate = &t
	}
	return gc
}

func cloneLoyaltyAccount(acct models.LoyaltyAccount) models.LoyaltyAccount {
	acct.Transactions = append(make([]models.LoyaltyTransaction, 0, len(acct.Transactions)), acct.Transactions...)
	return acct
}
