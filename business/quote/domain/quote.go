package domain

import (
	"fmt"
	"math/big"

	"github.com/fd1az/trading-sdk/internal/apperror"
	"github.com/fd1az/trading-sdk/internal/asset"
)

// ErrInsufficientLiquidity is returned when a book or pool cannot fill the
// requested amount. Match it with errors.Is.
var ErrInsufficientLiquidity = apperror.New(apperror.CodeInsufficientLiquidity)

// Route lists the markets a quote passed through, primary first.
type Route []string

// Quote is the result of a single quote request.
//
// Amount is what the caller supplied, denominated in InAsset (after clamping
// to what the market can actually fill). Quote is the computed counter-amount
// in OutAsset.
type Quote struct {
	Market   string
	Side     Side
	Amount   *big.Int
	Quote    *big.Int
	InAsset  *asset.Asset
	OutAsset *asset.Asset
	Route    Route
}

// AmountIn returns Amount with its asset attached.
func (q *Quote) AmountIn() asset.Amount {
	return asset.NewAmount(q.InAsset, q.Amount)
}

// AmountOut returns Quote with its asset attached.
func (q *Quote) AmountOut() asset.Amount {
	return asset.NewAmount(q.OutAsset, q.Quote)
}

func (q *Quote) String() string {
	return fmt.Sprintf("%s %s %s -> %s", q.Market, q.Side, q.AmountIn(), q.AmountOut())
}
