package asset

import (
	"math/big"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func bi(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad big int: " + s)
	}
	return v
}

func TestBigIntToScaledDecimal(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals uint8
		want     string
	}{
		{"one_btc", "100000000", 8, "1"},
		{"one_sat", "1", 8, "0.00000001"},
		{"usdc_cents", "1234567", 6, "1.234567"},
		{"eighteen_decimals", "1500000000000000000", 18, "1.5"},
		{"zero_decimals", "42", 0, "42"},
		{"zero", "0", 6, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BigIntToScaledDecimal(bi(tt.amount), tt.decimals)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestScaledDecimalToBigInt(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		decimals uint8
		round    bool
		want     string
	}{
		{"exact", "1.5", 8, false, "150000000"},
		{"truncates", "0.123456789", 8, false, "12345678"},
		{"rounds_half_up", "0.123456785", 8, true, "12345679"},
		{"rounds_down_below_half", "0.123456784", 8, true, "12345678"},
		{"truncate_keeps_floor_at_half", "0.000000015", 8, false, "1"},
		{"zero_decimals", "7.9", 0, false, "7"},
		{"zero_decimals_round", "7.5", 0, true, "8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScaledDecimalToBigInt(decimal.RequireFromString(tt.value), tt.decimals, tt.round)
			if got.Cmp(bi(tt.want)) != 0 {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestScaledDecimal_RoundTrip(t *testing.T) {
	for _, s := range []string{"0", "1", "99999999", "123456789012345678901234567890"} {
		for _, d := range []uint8{0, 6, 8, 18} {
			in := bi(s)
			out := ScaledDecimalToBigInt(BigIntToScaledDecimal(in, d), d, false)
			if out.Cmp(in) != 0 {
				t.Errorf("round trip %s@%d = %s", s, d, out)
			}
		}
	}
}

func TestCalculateNotional(t *testing.T) {
	tests := []struct {
		name         string
		price        string
		base         string
		baseDecimals uint8
		want         string
	}{
		// 60,000 USDC (6 dp) per BTC, 0.5 BTC (8 dp) -> 30,000 USDC
		{"half_btc", "60000000000", "50000000", 8, "30000000000"},
		// 1 sat at 60,000 USDC -> 0.0006 USDC = 600 units
		{"one_sat", "60000000000", "1", 8, "600"},
		// floor: 3 units * 1 / 10^1 = 0.3 -> 0
		{"floors", "3", "1", 1, "0"},
		{"zero_base", "60000000000", "0", 8, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateNotional(bi(tt.price), bi(tt.base), tt.baseDecimals)
			if got.Cmp(bi(tt.want)) != 0 {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBaseAmountFromNotionalAndPrice(t *testing.T) {
	tests := []struct {
		name     string
		notional string
		price    string
		decimals uint8
		roundUp  bool
		want     string
	}{
		{"exact_down", "30000000000", "60000000000", 8, false, "50000000"},
		{"exact_up", "30000000000", "60000000000", 8, true, "50000000"},
		// 1000 units / 60,000 USDC per BTC = 1.666.. sats
		{"inexact_down", "1000", "60000000000", 8, false, "1"},
		{"inexact_up", "1000", "60000000000", 8, true, "2"},
		{"zero", "0", "60000000000", 8, true, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BaseAmountFromNotionalAndPrice(bi(tt.notional), bi(tt.price), tt.decimals, tt.roundUp)
			if got.Cmp(bi(tt.want)) != 0 {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPow10_DoesNotAlias(t *testing.T) {
	a := Pow10(6)
	b := Pow10(6)
	if a.Cmp(big.NewInt(1_000_000)) != 0 || a.Cmp(b) != 0 {
		t.Fatalf("Pow10(6) = %s", a)
	}
	if got := Pow10(40); got.String() != "1"+strings.Repeat("0", 40) {
		t.Errorf("Pow10(40) = %s", got)
	}
}
