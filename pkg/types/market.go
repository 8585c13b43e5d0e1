package types

import (
	"bytes"
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// AssetID identifies an asset by its contract address.
type AssetID = common.Address

// MarketKey is the canonical key addressing a pool in the liquidity venue.
// It is derived from the unordered asset pair, the fee tier and the tick
// spacing; the asset ordering is fixed at derivation time and must match the
// venue's own canonicalization.
type MarketKey = common.Hash

// CanonicalPair returns the two assets in canonical (byte-wise ascending)
// order, plus whether the given (input, output) orientation was swapped.
func CanonicalPair(input, output AssetID) (asset0, asset1 AssetID, swapped bool) {
	if bytes.Compare(input.Bytes(), output.Bytes()) > 0 {
		return output, input, true
	}
	return input, output, false
}

// ComputeMarketKey derives the market key for an asset pair at a fee tier and
// tick spacing. The same key is produced regardless of argument order.
func ComputeMarketKey(a, b AssetID, feeBps uint32, tickSpacing int32) MarketKey {
	asset0, asset1, _ := CanonicalPair(a, b)

	buf := make([]byte, 0, 48)
	buf = append(buf, asset0.Bytes()...)
	buf = append(buf, asset1.Bytes()...)
	buf = binary.BigEndian.AppendUint32(buf, feeBps)
	buf = binary.BigEndian.AppendUint32(buf, uint32(tickSpacing))

	return crypto.Keccak256Hash(buf)
}

// PoolState is the venue's view of a market at the moment a trade is gated.
type PoolState struct {
	// SqrtPriceX96 is the square root of the asset1/asset0 price as a
	// Q64.96 fixed-point number, in the venue's canonical asset ordering.
	SqrtPriceX96 *big.Int

	// Tick is the venue's current tick for the pool.
	Tick int32

	// Liquidity is the pool's in-range liquidity depth.
	Liquidity *big.Int
}

// PriceRatio1e18 converts the pool's sqrt price into an output-per-input
// ratio scaled by 1e18 for the given trade orientation.
// zeroForOne means the input asset is asset0 under canonical ordering.
func (s *PoolState) PriceRatio1e18(zeroForOne bool) *big.Int {
	if s.SqrtPriceX96 == nil || s.SqrtPriceX96.Sign() <= 0 {
		return new(big.Int)
	}

	// price(asset1 per asset0) = sqrtP^2 / 2^192, scaled by 1e18
	num := new(big.Int).Mul(s.SqrtPriceX96, s.SqrtPriceX96)
	num.Mul(num, big.NewInt(1e18))
	price := num.Rsh(num, 192)

	if zeroForOne {
		return price
	}
	if price.Sign() == 0 {
		return new(big.Int)
	}

	// Invert: asset0 per asset1 = 1e36 / price
	inv := new(big.Int).Exp(big.NewInt(10), big.NewInt(36), nil)
	return inv.Quo(inv, price)
}
