package repotest

import (
	"context"
	"errors"
	"testing"

	"github.com/medreza/honcho-rewards-ledger/pkg/models"
)

func TestStoreContract(t *testing.T) {
	RunContract(t, New())
}

func TestFailWith(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	s.FailWith = boom

	if err := s.Ping(context.Background()); !errors.Is(err, boom) {
		t.Errorf("ping err = %v, want boom", err)
	}
	if err := s.CreateGiftCard(context.Background(), &models.GiftCard{Code: "GCX"}); !errors.Is(err, boom) {
		t.Errorf("create err = %v, want boom", err)
	}
}
