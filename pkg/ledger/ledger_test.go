package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/medreza/honcho-rewards-ledger/pkg/codegen"
	"github.com/medreza/honcho-rewards-ledger/pkg/models"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository/repotest"
)

// collidingStore reports the first collisions inserts of a code as already
// taken, as if another writer had claimed the generated code first.
type collidingStore struct {
	*repotest.Store

	mu         sync.Mutex
	collisions int
	attempts   int
	codes      []string
}

func (s *collidingStore) collide(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	s.codes = append(s.codes, code)
	if s.collisions != 0 {
		s.collisions--
		return true
	}
	return false
}

func (s *collidingStore) CreateDiscountCode(ctx context.Context, dc *models.DiscountCode) error {
	if s.collide(dc.Code) {
		return repository.ErrDuplicateCode
	}
	return s.Store.CreateDiscountCode(ctx, dc)
}

func (s *collidingStore) CreateGiftCard(ctx context.Context, gc *models.GiftCard) error {
	if s.collide(gc.Code) {
		return repository.ErrDuplicateCode
	}
	return s.Store.CreateGiftCard(ctx, gc)
}

func TestIssueRetriesAfterCollision(t *testing.T) {
	ctx := context.Background()
	store := &collidingStore{Store: repotest.New(), collisions: 1}
	a := NewAllocator(store, store, codegen.New(0), AllocatorConfig{})
	a.now = fixedClock(testNow)

	dc, err := a.SubmitWishlist(ctx, "u1", nil)
	if err != nil {
		t.Fatalf("SubmitWishlist: %v", err)
	}
	if store.attempts != 2 {
		t.Errorf("attempts = %d, want 2", store.attempts)
	}
	if store.codes[0] == store.codes[1] || dc.Code != store.codes[1] {
		t.Errorf("retry did not use a fresh code: tried %v, issued %s", store.codes, dc.Code)
	}
	if _, err := store.GetDiscountCode(ctx, dc.Code); err != nil {
		t.Errorf("issued code not stored: %v", err)
	}
}

func TestIssueGivesUpAfterRepeatedCollisions(t *testing.T) {
	ctx := context.Background()
	store := &collidingStore{Store: repotest.New(), collisions: -1}
	cards := NewGiftCardLedger(store, codegen.New(0))
	cards.now = fixedClock(testNow)

	if _, err := cards.Issue(ctx, IssueGiftCardParams{Amount: dec("25")}); !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("Issue err = %v, want ErrDuplicateCode", err)
	}
	if store.attempts != maxIssueAttempts {
		t.Errorf("attempts = %d, want %d", store.attempts, maxIssueAttempts)
	}
}

func TestIssueUniqueStopsOnOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := issueUnique(
		func() (string, error) { return "CODE", nil },
		func(string) error { calls++; return boom },
	)
	if !errors.Is(err, boom) || calls != 1 {
		t.Errorf("err = %v after %d calls, want boom after 1", err, calls)
	}
}
