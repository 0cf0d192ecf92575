package api

import (
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/fd1az/trading-sdk/business/quote/domain"
	"github.com/fd1az/trading-sdk/internal/asset"
)

var validate = validator.New()

// AssetDTO is an asset as the backend describes it.
type AssetDTO struct {
	ID       string `json:"id" validate:"required"` // e.g. "bitcoin:BTC", "ethereum:0xA0b8..."
	Symbol   string `json:"symbol" validate:"required"`
	Name     string `json:"name,omitempty"`
	Decimals uint8  `json:"decimals" validate:"max=36"`
}

// MarketDTO is a market descriptor.
type MarketDTO struct {
	ID         string          `json:"id" validate:"required"`
	Type       string          `json:"type" validate:"required"`
	BaseAsset  AssetDTO        `json:"baseAsset"`
	QuoteAsset AssetDTO        `json:"quoteAsset"`
	FeeRate    decimal.Decimal `json:"feeRate"`
	MinFee     string          `json:"minFee,omitempty"`
	TickSize   decimal.Decimal `json:"tickSize"`
}

// MarketsResponse wraps GET /markets.
type MarketsResponse struct {
	Markets []MarketDTO `json:"markets"`
}

// LevelDTO is one price level. Prices stay strings so no precision is lost
// before the book is walked.
type LevelDTO struct {
	Price string          `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// TradeDTO is the most recent fill.
type TradeDTO struct {
	Price     string          `json:"price"`
	Size      decimal.Decimal `json:"size"`
	Side      string          `json:"side"`
	Timestamp time.Time       `json:"timestamp"`
}

// OrderBookDTO is a full book snapshot. Buy is best bid first, Sell is best
// ask last.
type OrderBookDTO struct {
	Buy       []LevelDTO `json:"buy"`
	Sell      []LevelDTO `json:"sell"`
	LastTrade *TradeDTO  `json:"lastTrade,omitempty"`
}

// FeeRatesDTO holds maker and taker fees in pips.
type FeeRatesDTO struct {
	Maker int64 `json:"maker"`
	Taker int64 `json:"taker"`
}

// AMM state discriminators.
const (
	AmmTypeBondingCurve    = "bondingCurve"
	AmmTypeConstantProduct = "constantProduct"
)

// BondingCurveDTO is the "bondingCurve" AMM variant.
type BondingCurveDTO struct {
	Type                 string          `json:"type"`
	VirtualBaseReserves  string          `json:"virtualBaseReserves" validate:"required,numeric"`
	VirtualQuoteReserves string          `json:"virtualQuoteReserves" validate:"required,numeric"`
	RealBaseReserves     string          `json:"realBaseReserves" validate:"omitempty,numeric"`
	FeeRate              decimal.Decimal `json:"feeRate"`
	GraduationStatus     string          `json:"graduationStatus"`
}

// PoolDTO is one constant-product pool.
type PoolDTO struct {
	ID             string          `json:"id" validate:"required"`
	BaseLiquidity  string          `json:"baseLiquidity" validate:"omitempty,numeric"`
	QuoteLiquidity string          `json:"quoteLiquidity" validate:"omitempty,numeric"`
	FeeRate        decimal.Decimal `json:"feeRate"`
}

// ConstantProductDTO is the "constantProduct" AMM variant.
type ConstantProductDTO struct {
	Type  string    `json:"type"`
	Pools []PoolDTO `json:"pools" validate:"dive"`
}

// checkFeeRate rejects fractional rates outside [0, 1).
func checkFeeRate(field string, r decimal.Decimal) error {
	if r.IsNegative() || r.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s: fee rate %s out of range", field, r)
	}
	return nil
}

func parseAmount(field, s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%s: invalid integer %q", field, s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%s: negative amount %s", field, s)
	}
	return v, nil
}

// ToAsset resolves the DTO against the registry, registering unseen assets.
func (d AssetDTO) ToAsset(reg *asset.Registry) (*asset.Asset, error) {
	if err := validate.Struct(d); err != nil {
		return nil, fmt.Errorf("asset %s: %w", d.ID, err)
	}
	id, err := asset.ParseAssetID(d.ID)
	if err != nil {
		return nil, err
	}
	name := d.Name
	if name == "" {
		name = d.Symbol
	}
	return reg.Ensure(asset.NewAssetWithName(id, d.Symbol, name, d.Decimals))
}

// ToDomain maps the descriptor and validates it.
func (d MarketDTO) ToDomain(reg *asset.Registry) (domain.Market, error) {
	if err := validate.Struct(d); err != nil {
		return domain.Market{}, fmt.Errorf("market %s: %w", d.ID, err)
	}
	base, err := d.BaseAsset.ToAsset(reg)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market %s base asset: %w", d.ID, err)
	}
	quote, err := d.QuoteAsset.ToAsset(reg)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market %s quote asset: %w", d.ID, err)
	}
	minFee, err := parseAmount("minFee", d.MinFee)
	if err != nil {
		return domain.Market{}, err
	}

	m := domain.Market{
		ID:       d.ID,
		Base:     base,
		Quote:    quote,
		Type:     domain.MarketType(d.Type),
		FeeRate:  d.FeeRate,
		MinFee:   minFee,
		TickSize: d.TickSize,
	}
	return m, m.Validate()
}

// ToDomain maps the snapshot. Level validity is left to the book walker,
// which skips malformed levels.
func (d OrderBookDTO) ToDomain() *domain.OrderBook {
	ob := &domain.OrderBook{
		Buy:  make([]domain.PriceLevel, len(d.Buy)),
		Sell: make([]domain.PriceLevel, len(d.Sell)),
	}
	for i, l := range d.Buy {
		ob.Buy[i] = domain.PriceLevel{Price: l.Price, Size: l.Size}
	}
	for i, l := range d.Sell {
		ob.Sell[i] = domain.PriceLevel{Price: l.Price, Size: l.Size}
	}
	if d.LastTrade != nil {
		ob.Last = &domain.LastTrade{
			Price:     d.LastTrade.Price,
			Size:      d.LastTrade.Size,
			Side:      domain.Side(d.LastTrade.Side),
			Timestamp: d.LastTrade.Timestamp,
		}
	}
	return ob
}

// ToDomain maps and validates the fee table.
func (d FeeRatesDTO) ToDomain() (*domain.FeeRates, error) {
	f := domain.FeeRates{Maker: d.Maker, Taker: d.Taker}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// DecodeAmmState reads the tagged AMM union. The "type" field picks the variant.
func DecodeAmmState(raw []byte) (domain.AmmState, error) {
	switch t := gjson.GetBytes(raw, "type").String(); t {
	case AmmTypeBondingCurve:
		var d BondingCurveDTO
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		return d.ToDomain()
	case AmmTypeConstantProduct:
		var d ConstantProductDTO
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		return d.ToDomain()
	case "":
		return nil, fmt.Errorf("amm state: missing type")
	default:
		return nil, fmt.Errorf("amm state: unknown type %q", t)
	}
}

// ToDomain maps the curve snapshot.
func (d BondingCurveDTO) ToDomain() (*domain.BondingCurveAmmState, error) {
	if err := validate.Struct(d); err != nil {
		return nil, fmt.Errorf("bonding curve: %w", err)
	}
	vb, err := parseAmount("virtualBaseReserves", d.VirtualBaseReserves)
	if err != nil {
		return nil, err
	}
	vq, err := parseAmount("virtualQuoteReserves", d.VirtualQuoteReserves)
	if err != nil {
		return nil, err
	}
	rb, err := parseAmount("realBaseReserves", d.RealBaseReserves)
	if err != nil {
		return nil, err
	}
	if err := checkFeeRate("bonding curve", d.FeeRate); err != nil {
		return nil, err
	}

	status := domain.GraduationStatus(d.GraduationStatus)
	switch status {
	case domain.GraduationStatusActive, domain.GraduationStatusGraduating, domain.GraduationStatusGraduated:
	case "":
		status = domain.GraduationStatusActive
	default:
		return nil, fmt.Errorf("graduationStatus: unknown value %q", d.GraduationStatus)
	}

	return &domain.BondingCurveAmmState{
		VirtualBaseReserves:  vb,
		VirtualQuoteReserves: vq,
		RealBaseReserves:     rb,
		FeeRate:              d.FeeRate,
		GraduationStatus:     status,
	}, nil
}

// ToDomain maps the pool set.
func (d ConstantProductDTO) ToDomain() (*domain.ConstantProductAmmState, error) {
	if err := validate.Struct(d); err != nil {
		return nil, fmt.Errorf("constant product: %w", err)
	}
	s := &domain.ConstantProductAmmState{Pools: make([]domain.LiquidityPoolState, 0, len(d.Pools))}
	for _, p := range d.Pools {
		if err := checkFeeRate("pools["+p.ID+"]", p.FeeRate); err != nil {
			return nil, err
		}
		base, err := parseAmount("pools["+p.ID+"].baseLiquidity", p.BaseLiquidity)
		if err != nil {
			return nil, err
		}
		quote, err := parseAmount("pools["+p.ID+"].quoteLiquidity", p.QuoteLiquidity)
		if err != nil {
			return nil, err
		}
		s.Pools = append(s.Pools, domain.LiquidityPoolState{
			ID:             p.ID,
			BaseLiquidity:  base,
			QuoteLiquidity: quote,
			FeeRate:        p.FeeRate,
		})
	}
	return s, nil
}
