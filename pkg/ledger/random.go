package ledger

import (
	crand "crypto/rand"
	"errors"
	"math/big"
)

var errInvalidRandomRange = errors.New("invalid random range")

// probabilityScale is the resolution of Bernoulli draws.
const probabilityScale = 1_000_000

func secureRandomInt(max int) (int, error) {
	if max <= 0 {
		return 0, errInvalidRandomRange
	}

	n, err := crand.Int(crand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}

// bernoulli reports true with probability p using randInt as the source.
func bernoulli(randInt func(int) (int, error), p float64) (bool, error) {
	if p <= 0 {
		return false, nil
	}
	if p >= 1 {
		return true, nil
	}
	n, err := randInt(probabilityScale)
	if err != nil {
		return false, err
	}
	return n < int(p*probabilityScale), nil
}
