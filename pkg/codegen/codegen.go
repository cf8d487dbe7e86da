// Package codegen produces human-readable promotional codes: a kind-derived
// prefix followed by a random uppercase suffix.
//
// Generated codes are not checked against existing records. Callers persist
// them behind a unique constraint and retry with a fresh code when the store
// reports a duplicate.
package codegen

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

type Kind string

const (
	KindWheel    Kind = "wheel"
	KindContest  Kind = "contest"
	KindWishlist Kind = "wishlist"
	KindPopup    Kind = "popup"
	KindGiftCard Kind = "giftcard"
)

// Alphabet omits 0/O and 1/I so codes survive being read aloud or retyped.
const Alphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const (
	DefaultSuffixLength = 12
	MaxPrefixLength     = 16
	MaxCodeLength       = 32
)

// Prefix returns the fixed prefix for a kind.
func Prefix(kind Kind) string {
	switch kind {
	case KindWheel:
		return "SPIN"
	case KindContest:
		return "CONTEST"
	case KindGiftCard:
		return "GC"
	default:
		return "SANTA"
	}
}

type Generator struct {
	suffixLength int
	random       func(alphabet string, size int) (string, error)
}

func New(suffixLength int) *Generator {
	if suffixLength <= 0 {
		suffixLength = DefaultSuffixLength
	}
	return &Generator{suffixLength: suffixLength, random: gonanoid.Generate}
}

// Issue returns a new code for kind.
func (g *Generator) Issue(kind Kind) (string, error) {
	return g.IssueWithPrefix(Prefix(kind))
}

// IssueWithPrefix returns a new code with a caller-supplied prefix, as used
// for admin-created promo codes.
func (g *Generator) IssueWithPrefix(prefix string) (string, error) {
	prefix = NormalizeCode(prefix)
	if len(prefix) > MaxPrefixLength {
		return "", fmt.Errorf("prefix %q longer than %d characters", prefix, MaxPrefixLength)
	}
	if err := checkRunes(prefix); err != nil {
		return "", err
	}

	suffix, err := g.random(Alphabet, g.suffixLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate code suffix: %w", err)
	}
	return prefix + strings.ToUpper(suffix), nil
}

// NormalizeCode trims and uppercases a code the way every lookup expects it.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks a caller-chosen code, already normalized, before it is
// stored.
func Validate(code string) error {
	if code == "" {
		return fmt.Errorf("code is empty")
	}
	if len(code) > MaxCodeLength {
		return fmt.Errorf("code %q longer than %d characters", code, MaxCodeLength)
	}
	return checkRunes(code)
}

func checkRunes(s string) error {
	for _, r := range s {
		if !isCodeRune(r) {
			return fmt.Errorf("%q contains invalid character %q", s, r)
		}
	}
	return nil
}

func isCodeRune(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
}
