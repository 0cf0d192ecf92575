// Package asset models tradable symbols and the fixed-point amounts quoted in them.
// Amounts are big.Int in the asset's smallest unit; decimal.Decimal only appears at
// boundaries (order-book levels, display, parsing).
package asset

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Network is the settlement layer an asset lives on.
type Network string

const (
	NetworkBitcoin  Network = "bitcoin"
	NetworkEthereum Network = "ethereum"
	NetworkBase     Network = "base"
	NetworkArbitrum Network = "arbitrum"
)

// IsEVM reports whether assets on the network are addressed by contract.
func (n Network) IsEVM() bool {
	switch n {
	case NetworkEthereum, NetworkBase, NetworkArbitrum:
		return true
	default:
		return false
	}
}

// AssetID identifies an asset by network plus either an EVM contract address or,
// for non-EVM assets, its ticker. Symbols are display metadata and not identity.
type AssetID struct {
	network Network
	address common.Address // zero for native coins and non-EVM assets
	ticker  string         // set for non-EVM assets only
}

// NewNativeAssetID identifies the native coin of an EVM network.
func NewNativeAssetID(network Network) AssetID {
	return AssetID{network: network}
}

// NewTokenAssetID identifies an ERC20 token.
func NewTokenAssetID(network Network, addr common.Address) AssetID {
	if !network.IsEVM() {
		panic(fmt.Sprintf("asset: %s is not an EVM network", network))
	}
	if addr == (common.Address{}) {
		panic("asset: token address cannot be zero - use NewNativeAssetID for native coins")
	}
	return AssetID{network: network, address: addr}
}

// NewLedgerAssetID identifies an asset on a non-EVM network (BTC, runes) by ticker.
func NewLedgerAssetID(network Network, ticker string) AssetID {
	if network.IsEVM() {
		panic(fmt.Sprintf("asset: %s assets are addressed by contract", network))
	}
	return AssetID{network: network, ticker: strings.ToUpper(ticker)}
}

// ParseAssetID reads the String form back, e.g. "bitcoin:BTC",
// "ethereum:native" or "base:0xabc...".
func ParseAssetID(s string) (AssetID, error) {
	network, ref, ok := strings.Cut(s, ":")
	if !ok || network == "" || ref == "" {
		return AssetID{}, fmt.Errorf("asset: malformed id %q", s)
	}
	n := Network(strings.ToLower(network))
	switch {
	case !n.IsEVM():
		return NewLedgerAssetID(n, ref), nil
	case ref == "native":
		return NewNativeAssetID(n), nil
	case common.IsHexAddress(ref):
		return NewTokenAssetID(n, common.HexToAddress(ref)), nil
	default:
		return AssetID{}, fmt.Errorf("asset: invalid token address %q", ref)
	}
}

// Network returns the settlement network.
func (id AssetID) Network() Network {
	return id.network
}

// Address returns the token contract address (zero for native and non-EVM assets).
func (id AssetID) Address() common.Address {
	return id.address
}

// IsToken returns true for ERC20 tokens.
func (id AssetID) IsToken() bool {
	return id.network.IsEVM() && id.address != (common.Address{})
}

// IsNative returns true for an EVM network's native coin.
func (id AssetID) IsNative() bool {
	return id.network.IsEVM() && id.address == (common.Address{})
}

func (id AssetID) String() string {
	switch {
	case !id.network.IsEVM():
		return fmt.Sprintf("%s:%s", id.network, id.ticker)
	case id.IsNative():
		return fmt.Sprintf("%s:native", id.network)
	default:
		return fmt.Sprintf("%s:%s", id.network, id.address.Hex())
	}
}

// Equals compares two AssetIDs for equality.
func (id AssetID) Equals(other AssetID) bool {
	return id == other
}
