package codegen

import (
	"errors"
	"strings"
	"testing"
)

func TestIssuePrefixes(t *testing.T) {
	g := New(0)
	cases := map[Kind]string{
		KindWheel:    "SPIN",
		KindContest:  "CONTEST",
		KindWishlist: "SANTA",
		KindPopup:    "SANTA",
		KindGiftCard: "GC",
	}
	for kind, prefix := range cases {
		code, err := g.Issue(kind)
		if err != nil {
			t.Fatalf("Issue(%s) error: %v", kind, err)
		}
		if !strings.HasPrefix(code, prefix) {
			t.Errorf("Issue(%s) = %q, want prefix %q", kind, code, prefix)
		}
		if got := len(code) - len(prefix); got != DefaultSuffixLength {
			t.Errorf("Issue(%s) suffix length = %d, want %d", kind, got, DefaultSuffixLength)
		}
		if code != strings.ToUpper(code) {
			t.Errorf("Issue(%s) = %q is not uppercase", kind, code)
		}
	}
}

func TestIssueSuffixAlphabet(t *testing.T) {
	g := New(32)
	code, err := g.Issue(KindGiftCard)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range strings.TrimPrefix(code, "GC") {
		if !strings.ContainsRune(Alphabet, r) {
			t.Fatalf("suffix rune %q not in alphabet (code %q)", r, code)
		}
	}
}

func TestIssueDistinct(t *testing.T) {
	g := New(0)
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := g.Issue(KindWheel)
		if err != nil {
			t.Fatal(err)
		}
		if seen[code] {
			t.Fatalf("duplicate code %q after %d issues", code, i)
		}
		seen[code] = true
	}
}

func TestIssueWithPrefix(t *testing.T) {
	g := New(6)
	code, err := g.IssueWithPrefix(" save ")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(code, "SAVE") || len(code) != 10 {
		t.Errorf("IssueWithPrefix = %q, want SAVE + 6 chars", code)
	}

	if _, err := g.IssueWithPrefix("BAD PREFIX"); err == nil {
		t.Error("expected error for prefix with a space")
	}
	if _, err := g.IssueWithPrefix(strings.Repeat("A", MaxPrefixLength+1)); err == nil {
		t.Error("expected error for overlong prefix")
	}
}

func TestIssueRandomFailure(t *testing.T) {
	g := New(0)
	g.random = func(string, int) (string, error) {
		return "", errors.New("entropy exhausted")
	}
	if _, err := g.Issue(KindContest); err == nil {
		t.Fatal("expected error when random source fails")
	}
}

func TestNormalizeCode(t *testing.T) {
	if got := NormalizeCode("  gc4abc \n"); got != "GC4ABC" {
		t.Errorf("NormalizeCode = %q", got)
	}
}

func TestValidate(t *testing.T) {
	for _, code := range []string{"SAVE10", "HOLIDAY-2024", "VIP_A"} {
		if err := Validate(code); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", code, err)
		}
	}
	for _, code := range []string{"", "SAVE 10", "save10", strings.Repeat("A", MaxCodeLength+1)} {
		if err := Validate(code); err == nil {
			t.Errorf("Validate(%q) = nil, want error", code)
		}
	}
}
