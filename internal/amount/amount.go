// Package amount implements exact decimal arithmetic for monetary values.
// Amounts cross package boundaries as canonical decimal strings (the same
// representation Postgres NUMERIC columns use) and are manipulated with
// math/big internally, so no float ever touches a balance.
package amount

import (
	"fmt"
	"math/big"
	"strings"
)

// Parse converts a plain decimal string ("1000", "0.5", "-2.75") into a
// big.Rat. Exponent notation is rejected.
func Parse(s string) (*big.Rat, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if intPart == "" && fracPart == "" {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("invalid amount %q", s)
		}
	}

	num, ok := new(big.Int).SetString(intPart+fracPart, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	den := pow10(len(fracPart))
	if neg {
		num.Neg(num)
	}
	return new(big.Rat).SetFrac(num, den), nil
}

// Format renders a rational as a decimal string with at most maxDecimals
// fractional digits, trimming trailing zeros. Values are expected to be
// exactly representable at that precision; anything beyond is rounded the way
// big.Rat formatting rounds.
func Format(r *big.Rat, maxDecimals int) string {
	if maxDecimals < 0 {
		maxDecimals = 0
	}
	s := r.FloatString(maxDecimals)
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

// Canonical normalizes a decimal string ("0.500" -> "0.5", "00" -> "0").
// The precision is taken from the input itself.
func Canonical(s string) (string, error) {
	r, err := Parse(s)
	if err != nil {
		return "", err
	}
	frac := 0
	if i := strings.IndexByte(s, '.'); i >= 0 {
		frac = len(s) - i - 1
	}
	return Format(r, frac), nil
}

// Cmp compares two decimal strings numerically.
func Cmp(a, b string) (int, error) {
	ra, err := Parse(a)
	if err != nil {
		return 0, err
	}
	rb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return ra.Cmp(rb), nil
}

// IsPositive reports whether the decimal string parses to a value > 0.
func IsPositive(s string) bool {
	r, err := Parse(s)
	if err != nil {
		return false
	}
	return r.Sign() > 0
}

// RequiredAsset computes how many settlement-asset units cover priceUSD at
// rate (USD per whole unit), rounded UP at the asset's decimal precision.
// Rounding up means the escrow is never undercollateralized: any remainder
// below one minimal unit is charged to the payer.
func RequiredAsset(priceUSD, rate *big.Rat, decimals int) (string, error) {
	if rate == nil || rate.Sign() <= 0 {
		return "", fmt.Errorf("non-positive rate")
	}
	if priceUSD == nil || priceUSD.Sign() <= 0 {
		return "", fmt.Errorf("non-positive price")
	}

	q := new(big.Rat).Quo(priceUSD, rate)
	scale := pow10(decimals)

	// ceil(q * scale)
	num := new(big.Int).Mul(q.Num(), scale)
	den := q.Denom()
	units := new(big.Int).Div(num, den)
	if new(big.Int).Mod(num, den).Sign() != 0 {
		units.Add(units, big.NewInt(1))
	}

	return Format(new(big.Rat).SetFrac(units, scale), decimals), nil
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
