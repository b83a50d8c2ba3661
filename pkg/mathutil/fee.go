package mathutil

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// TenThousands ...
var TenThousands = uint64(10000)

// ToBasisPoint converts a percentage (ie. 2.5 for 2.5%) into basis points,
// rounded half up.
func ToBasisPoint(percentage float64) uint64 {
	if percentage <= 0 {
		return 0
	}
	return uint64(math.Round(percentage * 100))
}

// PercentageFee calculates the fee for an amount given a percentage
// (ie. 2.5 for 2.5%). The percentage is first rounded to basis points, then
// the fee is rounded half up to the satoshi and floored to threshold.
func PercentageFee(amount uint64, percentage float64, threshold uint64) uint64 {
	feeDecimal := Mul(amount, ToBasisPoint(percentage)).
		Div(FromUint64(TenThousands)).
		Round(0)

	fee := ToUint64(feeDecimal)
	if fee < threshold {
		return threshold
	}
	return fee
}

// UnitPrice returns floor(total / qty) where qty is a normalized decimal
// quantity string as reported by the asset ledger.
func UnitPrice(total uint64, qty string) (uint64, error) {
	qtyDecimal, err := decimal.NewFromString(qty)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q: %w", qty, err)
	}
	if !qtyDecimal.IsPositive() {
		return 0, fmt.Errorf("invalid quantity %q: must be positive", qty)
	}
	return ToUint64(FromUint64(total).Div(qtyDecimal).Floor()), nil
}
