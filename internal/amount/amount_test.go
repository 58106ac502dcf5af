package amount

import (
	"math/big"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"1000", true},
		{"0.5", true},
		{"-2.75", true},
		{"+3", true},
		{".5", true},
		{"0", true},
		{"00.500", true},
		{"", false},
		{"abc", false},
		{"1e5", false},
		{"1.2.3", false},
		{"1,5", false},
		{".", false},
		{"-", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Parse(tt.input)
			if tt.valid && err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if !tt.valid && err == nil {
				t.Fatalf("Parse(%q) expected error", tt.input)
			}
		})
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0.500", "0.5"},
		{"00", "0"},
		{"007", "7"},
		{"1.0", "1"},
		{" 2.25 ", "2.25"},
		{"-0.10", "-0.1"},
	}

	for _, tt := range tests {
		got, err := Canonical(tt.input)
		if err != nil {
			t.Fatalf("Canonical(%q) error: %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCmp(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"0.5", "0.50", 0},
		{"1", "0.999999999", 1},
		{"0.1", "0.2", -1},
		{"-1", "0", -1},
	}

	for _, tt := range tests {
		got, err := Cmp(tt.a, tt.b)
		if err != nil {
			t.Fatalf("Cmp(%q, %q) error: %v", tt.a, tt.b, err)
		}
		if got != tt.want {
			t.Errorf("Cmp(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIsPositive(t *testing.T) {
	if !IsPositive("0.000000001") {
		t.Error("expected 0.000000001 to be positive")
	}
	if IsPositive("0") || IsPositive("-1") || IsPositive("junk") {
		t.Error("zero, negative and invalid inputs must not be positive")
	}
}

func mustRat(t *testing.T, s string) *big.Rat {
	t.Helper()
	r, err := Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRequiredAsset(t *testing.T) {
	tests := []struct {
		name     string
		priceUSD string
		rate     string
		decimals int
		want     string
	}{
		// 1000 USD at 2000 USD per unit -> exactly half a unit.
		{"exact division", "1000", "2000", 9, "0.5"},
		{"whole units", "6000", "2000", 9, "3"},
		// 1/3 of a unit does not terminate; must round up, never down.
		{"round up repeating", "1", "3", 2, "0.34"},
		{"round up repeating fine", "1", "3", 6, "0.333334"},
		{"exact at precision", "1", "4", 2, "0.25"},
		// Tiny price still costs at least one minimal unit.
		{"minimal unit floor", "0.000001", "2000", 2, "0.01"},
		{"zero decimals", "1500", "1000", 0, "2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RequiredAsset(mustRat(t, tt.priceUSD), mustRat(t, tt.rate), tt.decimals)
			if err != nil {
				t.Fatalf("RequiredAsset error: %v", err)
			}
			if got != tt.want {
				t.Errorf("RequiredAsset(%s / %s @ %d) = %s, want %s", tt.priceUSD, tt.rate, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestRequiredAssetRejectsNonPositive(t *testing.T) {
	if _, err := RequiredAsset(mustRat(t, "100"), mustRat(t, "0"), 9); err == nil {
		t.Error("expected error for zero rate")
	}
	if _, err := RequiredAsset(mustRat(t, "0"), mustRat(t, "2000"), 9); err == nil {
		t.Error("expected error for zero price")
	}
}
