package app

import (
	"context"
	"fmt"
	"math/big"

	"github.com/fd1az/trading-sdk/business/quote/domain"
	"github.com/fd1az/trading-sdk/internal/apperror"
	"github.com/fd1az/trading-sdk/internal/logger"
)

// Kind selects which of the three quote questions is asked.
type Kind string

const (
	// KindBuy prices buying Amount of base.
	KindBuy Kind = "buy"
	// KindSell prices selling Amount of base.
	KindSell Kind = "sell"
	// KindInverse asks how much base Amount of quote (or adapter base) buys.
	KindInverse Kind = "inverse"
)

// ParseKind maps a CLI or config value to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindBuy, KindSell, KindInverse:
		return k, nil
	default:
		return "", apperror.Validation(apperror.CodeInvalidInput, fmt.Sprintf("unknown quote side %q", s))
	}
}

// ComposerConfig is injected at construction; the composer reads nothing else.
type ComposerConfig struct {
	// DefaultFeeRates apply when a request carries no fee rates of its own.
	DefaultFeeRates domain.FeeRates
}

// AdapterMarketState is the order-book market that converts between the
// primary market's quote asset and the caller's settlement asset.
type AdapterMarketState struct {
	Market    domain.Market
	OrderBook *domain.OrderBook
	FeeRates  *domain.FeeRates
}

// QuoteRequest is one consistent snapshot plus the amount to price.
//
// AmmState prices BondingCurve and Amm markets, OrderBook prices Clob markets.
// FeeRates are the taker's fees on a Clob market and fall back to the
// configured defaults when nil.
type QuoteRequest struct {
	Market    domain.Market
	Amount    *big.Int
	AmmState  domain.AmmState
	OrderBook *domain.OrderBook
	FeeRates  *domain.FeeRates
	Adapter   *AdapterMarketState
}

// Composer chains a primary quote with an optional adapter hop.
// It holds no market state and is safe for concurrent use.
type Composer struct {
	cfg    ComposerConfig
	logger logger.LoggerInterface
}

// NewComposer creates a Composer. It panics on fee defaults of 100% or more.
func NewComposer(cfg ComposerConfig, log logger.LoggerInterface) *Composer {
	if err := cfg.DefaultFeeRates.Validate(); err != nil {
		panic(apperror.New(apperror.CodeInvalidFeeConfiguration, apperror.WithCause(err)))
	}
	return &Composer{cfg: cfg, logger: log}
}

// Quote dispatches on kind.
func (c *Composer) Quote(ctx context.Context, kind Kind, req QuoteRequest) (*domain.Quote, error) {
	switch kind {
	case KindBuy:
		return c.Buy(ctx, req)
	case KindSell:
		return c.Sell(ctx, req)
	case KindInverse:
		return c.BaseForQuote(ctx, req)
	default:
		return nil, apperror.Validation(apperror.CodeInvalidInput, fmt.Sprintf("unknown quote side %q", kind))
	}
}

// Buy prices buying req.Amount of base, fee included. With an adapter the
// cost is sourced by selling adapter base into the adapter's bids, and the
// quote is that adapter base amount.
func (c *Composer) Buy(ctx context.Context, req QuoteRequest) (*domain.Quote, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}

	amount := req.Amount
	var cost *big.Int
	var ok bool
	switch req.Market.Type {
	case domain.MarketTypeClob:
		cost, ok = domain.QuoteAmountToSpendToBuyBaseAmount(amount, req.Market, req.OrderBook, c.feeRates(req.FeeRates))
	default:
		amount = domain.AmmFillableBase(req.AmmState, amount)
		cost, ok = domain.AmmQuoteToBuy(req.AmmState, amount)
	}
	if !ok {
		return nil, c.insufficient(ctx, req.Market.ID, "primary", KindBuy)
	}

	q := &domain.Quote{
		Market:   req.Market.ID,
		Side:     domain.SideBuy,
		Amount:   new(big.Int).Set(amount),
		Quote:    cost,
		InAsset:  req.Market.Base,
		OutAsset: req.Market.Quote,
		Route:    domain.Route{req.Market.ID},
	}
	if req.Adapter == nil {
		return q, nil
	}

	a := req.Adapter
	base, ok := domain.BaseAmountToSellToGetQuoteAmount(cost, a.Market, a.OrderBook, c.feeRates(a.FeeRates))
	if !ok {
		return nil, c.insufficient(ctx, a.Market.ID, "adapter", KindBuy)
	}
	q.Quote = base
	q.OutAsset = a.Market.Base
	q.Route = append(q.Route, a.Market.ID)
	return q, nil
}

// Sell prices selling req.Amount of base, fee deducted. With an adapter the
// proceeds buy adapter base from the adapter's asks.
func (c *Composer) Sell(ctx context.Context, req QuoteRequest) (*domain.Quote, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}

	var proceeds *big.Int
	var ok bool
	switch req.Market.Type {
	case domain.MarketTypeClob:
		proceeds, ok = domain.QuoteAmountToGetFromSellingBaseAmount(req.Amount, req.Market, req.OrderBook, c.feeRates(req.FeeRates))
	default:
		proceeds, ok = domain.AmmQuoteFromSell(req.AmmState, req.Amount)
	}
	if !ok {
		return nil, c.insufficient(ctx, req.Market.ID, "primary", KindSell)
	}

	q := &domain.Quote{
		Market:   req.Market.ID,
		Side:     domain.SideSell,
		Amount:   new(big.Int).Set(req.Amount),
		Quote:    proceeds,
		InAsset:  req.Market.Base,
		OutAsset: req.Market.Quote,
		Route:    domain.Route{req.Market.ID},
	}
	if req.Adapter == nil {
		return q, nil
	}

	a := req.Adapter
	base, ok := domain.BaseAmountToGetForQuoteAmount(proceeds, a.Market, a.OrderBook, c.feeRates(a.FeeRates))
	if !ok {
		return nil, c.insufficient(ctx, a.Market.ID, "adapter", KindSell)
	}
	q.Quote = base
	q.OutAsset = a.Market.Base
	q.Route = append(q.Route, a.Market.ID)
	return q, nil
}

// BaseForQuote prices how much base req.Amount buys. req.Amount is in the
// market's quote asset, or in adapter base when an adapter is given; the
// adapter base is first sold into the adapter's bids.
func (c *Composer) BaseForQuote(ctx context.Context, req QuoteRequest) (*domain.Quote, error) {
	if err := c.validate(req); err != nil {
		return nil, err
	}

	spend := req.Amount
	inAsset := req.Market.Quote
	route := domain.Route{req.Market.ID}
	if a := req.Adapter; a != nil {
		proceeds, ok := domain.QuoteAmountToGetFromSellingBaseAmount(spend, a.Market, a.OrderBook, c.feeRates(a.FeeRates))
		if !ok {
			return nil, c.insufficient(ctx, a.Market.ID, "adapter", KindInverse)
		}
		spend = proceeds
		inAsset = a.Market.Base
		route = append(route, a.Market.ID)
	}

	var base *big.Int
	var ok bool
	switch req.Market.Type {
	case domain.MarketTypeClob:
		base, ok = domain.BaseAmountToGetForQuoteAmount(spend, req.Market, req.OrderBook, c.feeRates(req.FeeRates))
	default:
		base, ok = domain.AmmBaseForQuote(req.AmmState, spend)
	}
	if !ok {
		return nil, c.insufficient(ctx, req.Market.ID, "primary", KindInverse)
	}

	return &domain.Quote{
		Market:   req.Market.ID,
		Side:     domain.SideBuy,
		Amount:   new(big.Int).Set(req.Amount),
		Quote:    base,
		InAsset:  inAsset,
		OutAsset: req.Market.Base,
		Route:    route,
	}, nil
}

func (c *Composer) validate(req QuoteRequest) error {
	m := req.Market
	if err := m.Validate(); err != nil {
		return apperror.New(apperror.CodeValidationError, apperror.WithCause(err), apperror.WithContext(m.ID))
	}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return apperror.Validation(apperror.CodeInvalidTradeSize, "amount must be positive")
	}

	switch m.Type {
	case domain.MarketTypeClob:
		if req.OrderBook == nil {
			return apperror.Validation(apperror.CodeRequiredField, fmt.Sprintf("market %s: order book is required", m.ID))
		}
		if err := c.feeRates(req.FeeRates).Validate(); err != nil {
			panic(apperror.New(apperror.CodeInvalidFeeConfiguration, apperror.WithCause(err)))
		}
	case domain.MarketTypeBondingCurve, domain.MarketTypeAmm:
		if req.AmmState == nil {
			return apperror.Validation(apperror.CodeRequiredField, fmt.Sprintf("market %s: amm state is required", m.ID))
		}
		if !domain.MatchesMarketType(req.AmmState, m.Type) {
			return apperror.Validation(apperror.CodeAmmStateMismatch,
				fmt.Sprintf("market %s is %s but state is %s", m.ID, m.Type, domain.AmmKind(req.AmmState)))
		}
		if bc, ok := req.AmmState.(*domain.BondingCurveAmmState); ok && bc.GraduationStatus == domain.GraduationStatusGraduated {
			return apperror.New(apperror.CodeCurveGraduated, apperror.WithContext(m.ID))
		}
	default:
		return apperror.Validation(apperror.CodeUnsupportedMarketType, string(m.Type))
	}

	if a := req.Adapter; a != nil {
		if err := a.Market.Validate(); err != nil {
			return apperror.New(apperror.CodeValidationError, apperror.WithCause(err), apperror.WithContext(a.Market.ID))
		}
		if a.Market.Type != domain.MarketTypeClob {
			return apperror.Validation(apperror.CodeUnsupportedMarketType,
				fmt.Sprintf("adapter %s must be an order-book market", a.Market.ID))
		}
		if !a.Market.Quote.Equals(m.Quote) {
			return apperror.Validation(apperror.CodeInvalidInput,
				fmt.Sprintf("adapter %s does not settle in %s", a.Market.ID, m.Quote.Symbol()))
		}
		if err := c.feeRates(a.FeeRates).Validate(); err != nil {
			panic(apperror.New(apperror.CodeInvalidFeeConfiguration, apperror.WithCause(err)))
		}
	}
	return nil
}

func (c *Composer) feeRates(f *domain.FeeRates) domain.FeeRates {
	if f == nil {
		return c.cfg.DefaultFeeRates
	}
	return *f
}

func (c *Composer) insufficient(ctx context.Context, marketID, hop string, kind Kind) error {
	c.logger.Debug(ctx, "no liquidity for quote", "market", marketID, "hop", hop, "side", kind)
	return apperror.New(apperror.CodeInsufficientLiquidity,
		apperror.WithContext(fmt.Sprintf("%s hop on %s", hop, marketID)))
}

