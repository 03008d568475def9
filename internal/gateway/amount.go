package gateway

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Orders carry prices in major currency units with two decimal places; the
// provider bills in minor units (1/100).
var minorFactor = decimal.NewFromInt(100)

func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(minorFactor).Round(0).IntPart()
}

func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).Div(minorFactor)
}

// NewReference issues a transaction reference for an order. References embed
// the order number so a stray one can be traced back by eye.
func NewReference(orderNumber string) string {
	return fmt.Sprintf("%s-%d", orderNumber, time.Now().UnixMilli())
}
