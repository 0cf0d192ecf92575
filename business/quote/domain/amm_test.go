package domain

import (
	"math/big"
	"strings"
	"testing"
)

type unknownAmm struct{}

func (unknownAmm) isAmmState() {}

func TestAmm_Dispatch(t *testing.T) {
	curve := smallCurve("0")
	pools := &ConstantProductAmmState{Pools: []LiquidityPoolState{pool("p", 1_000_000, 1_000_000, "0")}}

	tests := []struct {
		name string
		got  func() (*big.Int, bool)
		want string
	}{
		{"curve buy", func() (*big.Int, bool) { return AmmQuoteToBuy(curve, big.NewInt(100)) }, "112"},
		{"curve sell", func() (*big.Int, bool) { return AmmQuoteFromSell(curve, big.NewInt(100)) }, "91"},
		{"curve inverse", func() (*big.Int, bool) { return AmmBaseForQuote(curve, big.NewInt(112)) }, "101"},
		{"pool buy", func() (*big.Int, bool) { return AmmQuoteToBuy(pools, big.NewInt(100_000)) }, "111112"},
		{"pool sell", func() (*big.Int, bool) { return AmmQuoteFromSell(pools, big.NewInt(100_000)) }, "90909"},
		{"pool inverse", func() (*big.Int, bool) { return AmmBaseForQuote(pools, big.NewInt(111_112)) }, "100000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.got()
			assertBig(t, tt.name, got, ok, tt.want)
		})
	}
}

func TestAmmFillableBase(t *testing.T) {
	curve := smallCurve("0")
	if got := AmmFillableBase(curve, big.NewInt(2000)); got.Int64() != 500 {
		t.Errorf("curve fillable = %s, want 500", got)
	}
	if got := AmmFillableBase(curve, big.NewInt(20)); got.Int64() != 20 {
		t.Errorf("curve fillable = %s, want 20", got)
	}
	pools := &ConstantProductAmmState{}
	if got := AmmFillableBase(pools, big.NewInt(2000)); got.Int64() != 2000 {
		t.Errorf("pool fillable = %s, want 2000", got)
	}
}

func TestAmm_MatchesMarketType(t *testing.T) {
	tests := []struct {
		state AmmState
		typ   MarketType
		want  bool
	}{
		{&BondingCurveAmmState{}, MarketTypeBondingCurve, true},
		{&BondingCurveAmmState{}, MarketTypeAmm, false},
		{&ConstantProductAmmState{}, MarketTypeAmm, true},
		{&ConstantProductAmmState{}, MarketTypeClob, false},
	}
	for _, tt := range tests {
		if got := MatchesMarketType(tt.state, tt.typ); got != tt.want {
			t.Errorf("MatchesMarketType(%s, %s) = %v, want %v", AmmKind(tt.state), tt.typ, got, tt.want)
		}
	}
}

func TestAmm_UnknownVariantPanics(t *testing.T) {
	calls := map[string]func(){
		"kind":     func() { AmmKind(unknownAmm{}) },
		"buy":      func() { AmmQuoteToBuy(unknownAmm{}, big.NewInt(1)) },
		"sell":     func() { AmmQuoteFromSell(unknownAmm{}, big.NewInt(1)) },
		"inverse":  func() { AmmBaseForQuote(unknownAmm{}, big.NewInt(1)) },
		"fillable": func() { AmmFillableBase(unknownAmm{}, big.NewInt(1)) },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			defer func() {
				r := recover()
				msg, ok := r.(string)
				if !ok || !strings.Contains(msg, "unknown amm state") {
					t.Errorf("panic = %v, want unknown amm state", r)
				}
			}()
			call()
		})
	}
}

func TestCloneAmmState_IsDeep(t *testing.T) {
	curve := smallCurve("0")
	cc := CloneAmmState(curve).(*BondingCurveAmmState)
	cc.VirtualBaseReserves.SetInt64(1)
	cc.RealBaseReserves.SetInt64(1)
	if curve.VirtualBaseReserves.Int64() != 1000 || curve.RealBaseReserves.Int64() != 500 {
		t.Error("curve clone shares reserves with the original")
	}

	pools := &ConstantProductAmmState{Pools: []LiquidityPoolState{pool("p", 1_000_000, 1_000_000, "0")}}
	pc := CloneAmmState(pools).(*ConstantProductAmmState)
	pc.Pools[0].BaseLiquidity.SetInt64(1)
	pc.Pools[0].ID = "q"
	if pools.Pools[0].BaseLiquidity.Int64() != 1_000_000 || pools.Pools[0].ID != "p" {
		t.Error("pool clone shares state with the original")
	}

	got, ok := AmmQuoteToBuy(CloneAmmState(pools), big.NewInt(100_000))
	assertBig(t, "clone buy", got, ok, "111112")
}
