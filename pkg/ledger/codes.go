package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/medreza/honcho-rewards-ledger/pkg/codegen"
	"github.com/medreza/honcho-rewards-ledger/pkg/models"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository"
)

// ActiveCodes lists the user's codes that have not expired yet, newest first.
// Redeemed codes are included; callers tell them apart by status.
func (a *Allocator) ActiveCodes(ctx context.Context, userID string) ([]models.DiscountCode, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalidf("User ID is required")
	}

	codes, err := a.codes.ListUnexpiredDiscountCodes(ctx, userID, a.now())
	if err != nil {
		return nil, fmt.Errorf("discount code store: %w", err)
	}
	return codes, nil
}

// RedeemDiscountCode consumes a code at checkout. The transition is a
// conditional write, so a code can be redeemed at most once. Codes owned by
// another user read as not found.
func (a *Allocator) RedeemDiscountCode(ctx context.Context, code, userID string) (*models.DiscountCode, error) {
	code = codegen.NormalizeCode(code)
	if code == "" {
		return nil, invalidf("Discount code is required")
	}

	dc, err := a.codes.GetDiscountCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("discount code store: %w", err)
	}
	if dc.OwnerUserID != userID {
		return nil, ErrCodeNotFound
	}

	now := a.now()
	switch DiscountCodeStatus(dc, now) {
	case StatusRedeemed:
		return nil, ErrAlreadyRedeemed
	case StatusExpired:
		return nil, ErrCodeExpired
	}

	used, err := a.codes.MarkDiscountCodeUsed(ctx, code, now)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrConditionFailed):
			return nil, ErrAlreadyRedeemed
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("discount code store: %w", err)
	}
	return used, nil
}
