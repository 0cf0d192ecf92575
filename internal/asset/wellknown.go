package asset

import "github.com/ethereum/go-ethereum/common"

// Token contracts settled through the backend.
var (
	AddrUSDCEthereum = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	AddrUSDTEthereum = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	AddrUSDCBase     = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
)

var (
	BTC      = NewAssetWithName(NewLedgerAssetID(NetworkBitcoin, "BTC"), "BTC", "Bitcoin", 8)
	ETH      = NewAssetWithName(NewNativeAssetID(NetworkEthereum), "ETH", "Ethereum", 18)
	USDC     = NewAssetWithName(NewTokenAssetID(NetworkEthereum, AddrUSDCEthereum), "USDC", "USD Coin", 6)
	USDT     = NewAssetWithName(NewTokenAssetID(NetworkEthereum, AddrUSDTEthereum), "USDT", "Tether USD", 6)
	USDCBase = NewAssetWithName(NewTokenAssetID(NetworkBase, AddrUSDCBase), "USDC.base", "USD Coin (Base)", 6)
)

// DefaultRegistry returns a registry pre-populated with the settlement assets.
// Market-specific assets (curve tokens, runes) are registered as markets are discovered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(BTC)
	r.Register(ETH)
	r.Register(USDC)
	r.Register(USDT)
	r.Register(USDCBase)
	return r
}
