package service

import (
	"fmt"
	"strconv"
	"strings"
)

// Ledger amounts are two-decimal major-unit strings ("200.00") while
// room prices live in integer cents. All arithmetic happens on cents;
// strings only exist at the storage boundary.

// FormatCents renders an integer amount of cents as a major-unit
// decimal string.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// ParseAmount converts a decimal string with up to two fraction
// digits into cents. Rejects empty, malformed and negative input.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("invalid amount %q: more than two decimals", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return w*100 + f, nil
}

// ApplyDiscount reduces amount by percentage (0..100) and returns the
// resulting decimal string. Fractions of a cent are truncated toward
// zero, matching how the ledger has always rounded penalizations.
func ApplyDiscount(amount string, percentage int) (string, error) {
	if percentage < 0 || percentage > 100 {
		return "", fmt.Errorf("percentage out of range: %d", percentage)
	}
	cents, err := ParseAmount(amount)
	if err != nil {
		return "", err
	}
	remaining := cents * int64(100-percentage) / 100
	return FormatCents(remaining), nil
}
