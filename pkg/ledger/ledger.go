// Package ledger holds the promotion and reward rules: gift-card balances,
// loyalty points, the spin-wheel and contest allocator, promo validation and
// the shared redemption/expiry state machine.
//
// Services hold no in-process state. Every guarantee that must survive
// concurrent requests (unique codes, one spin per day, non-negative balances)
// is delegated to a conditional write in the repository layer.
package ledger

import (
	"errors"

	"github.com/medreza/honcho-rewards-ledger/pkg/repository"
)

// maxIssueAttempts bounds how often a freshly generated code is retried after
// the store reports a collision.
const maxIssueAttempts = 3

// issueUnique generates a code and hands it to create until create succeeds or
// stops reporting a duplicate code. Any other error is returned as is.
func issueUnique(generate func() (string, error), create func(code string) error) (string, error) {
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		code, err := generate()
		if err != nil {
			return "", err
		}
		err = create(code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, repository.ErrDuplicateCode) {
			return "", err
		}
	}
	return "", ErrDuplicateCode
}
