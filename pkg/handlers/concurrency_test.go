package handlers

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/medreza/honcho-rewards-ledger/pkg/ledger"
)

func TestConcurrency(t *testing.T) {
	t.Run("GiftCardDrain", func(t *testing.T) {
		s := newTestServer(t, ledger.AllocatorConfig{})
		holder := token(t, "holder", "")
		requests := 50

		var card struct {
			Code string `json:"code"`
		}
		if code := s.do(t, http.MethodPost, "/api/gift-cards", holder, map[string]any{"amount": 100}, &card); code != http.StatusCreated {
			t.Fatalf("Failed to issue gift card: status %d", code)
		}

		var ok, rejected atomic.Int32
		var wg sync.WaitGroup
		wg.Add(requests)
		for i := 0; i < requests; i++ {
			go func(n int) {
				defer wg.Done()
				code := s.do(t, http.MethodPost, "/api/gift-cards/"+card.Code+"/charge", holder,
					map[string]any{"amount": 10, "order_ref": fmt.Sprintf("order_%d", n)}, nil)
				switch code {
				case http.StatusOK:
					ok.Add(1)
				case http.StatusBadRequest:
					rejected.Add(1)
				}
			}(i)
		}
		wg.Wait()

		var balance struct {
			Balance string `json:"balance"`
		}
		s.do(t, http.MethodGet, "/api/gift-cards/balance/"+card.Code, "", nil, &balance)

		if ok.Load() != 10 {
			t.Errorf("Expected 10 successful charges, got %d", ok.Load())
		}
		if rejected.Load() != int32(requests-10) {
			t.Errorf("Expected %d rejected charges, got %d", requests-10, rejected.Load())
		}
		if balance.Balance != "0" {
			t.Errorf("Expected 0 balance, got %s", balance.Balance)
		}
	})

	t.Run("DoubleSpin", func(t *testing.T) {
		s := newTestServer(t, ledger.AllocatorConfig{})
		attacker := token(t, "attacker_user", "")
		requests := 15

		var ok atomic.Int32
		var wg sync.WaitGroup
		wg.Add(requests)
		for i := 0; i < requests; i++ {
			go func() {
				defer wg.Done()
				if s.do(t, http.MethodPost, "/api/rewards/spin", attacker, nil, nil) == http.StatusOK {
					ok.Add(1)
				}
			}()
		}
		wg.Wait()

		var codes []struct {
			Type string `json:"type"`
		}
		s.do(t, http.MethodGet, "/api/rewards/codes", attacker, nil, &codes)

		if ok.Load() != 1 {
			t.Errorf("Expected 1 successful spin, got %d", ok.Load())
		}
		if len(codes) != 1 || codes[0].Type != "wheel" {
			t.Errorf("Expected 1 wheel code, got %+v", codes)
		}
	})
}
