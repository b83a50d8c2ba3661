package mathutil

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	//BigOne represents a single unit of a divisible asset with precision 8
	BigOne = uint64(math.Pow10(8))
	//BigOneDecimal represents a single unit of an asset with precision 8 as decimal.Decimal
	BigOneDecimal = decimal.NewFromInt(int64(BigOne))
)

func init() {
	decimal.DivisionPrecision = 8
}

// FromUint64 converts x into a decimal.Decimal without overflowing int64.
func FromUint64(x uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(x), 0)
}

// ToUint64 truncates x and returns it as uint64. Negative values are
// clamped to zero.
func ToUint64(x decimal.Decimal) uint64 {
	if x.IsNegative() {
		return 0
	}
	return x.BigInt().Uint64()
}

// Mul takes two uint64 numbers and multiply them x * y and returns the result as decimal.Decimal
func Mul(x, y uint64) decimal.Decimal {
	return FromUint64(x).Mul(FromUint64(y))
}

// Div takes two uint64 numbers and divides them x / y and returns the result as decimal.Decimal
func Div(x, y uint64) decimal.Decimal {
	return FromUint64(x).Div(FromUint64(y))
}

// NormalizeQuantity expresses an integer asset quantity in units, that is
// divided by BigOne for divisible assets.
func NormalizeQuantity(qty uint64, divisible bool) decimal.Decimal {
	if !divisible {
		return FromUint64(qty)
	}
	return FromUint64(qty).DivRound(BigOneDecimal, 8)
}
