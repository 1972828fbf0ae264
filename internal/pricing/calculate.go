// Package pricing computes rental prices: duration tiers, deposit and tax.
// All amounts are shopspring decimals rounded half-up at the cent.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/phenrril/alquileres/internal/domain"
)

var hundred = decimal.NewFromInt(100)

type Input struct {
	BasePrice decimal.Decimal
	// Deposit is per unit.
	Deposit decimal.Decimal
	Tiers   []domain.PricingTier
}

func InputFor(p *domain.Product) Input {
	return Input{BasePrice: p.BasePrice, Deposit: p.Deposit, Tiers: p.PricingTiers}
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Calculate prices quantity units for duration pricing units.
func Calculate(in Input, duration, quantity int) (domain.PriceCalculationResult, error) {
	if duration < 1 {
		return domain.PriceCalculationResult{}, domain.ErrInvalidPeriod
	}
	if quantity < 1 {
		return domain.PriceCalculationResult{}, domain.ErrInvalidQuantity
	}

	discount := decimal.Zero
	tier := SelectTier(in.Tiers, duration)
	if tier != nil {
		discount = tier.DiscountPercent
	}

	dur := decimal.NewFromInt(int64(duration))
	qty := decimal.NewFromInt(int64(quantity))

	effective := round2(in.BasePrice.Mul(decimal.NewFromInt(1).Sub(discount.Div(hundred))))
	subtotal := round2(effective.Mul(dur).Mul(qty))
	deposit := round2(in.Deposit.Mul(qty))
	undiscounted := round2(in.BasePrice.Mul(dur).Mul(qty))

	return domain.PriceCalculationResult{
		Duration:              duration,
		Quantity:              quantity,
		Subtotal:              subtotal,
		Deposit:               deposit,
		Total:                 subtotal.Add(deposit),
		EffectivePricePerUnit: effective,
		DiscountPercent:       discount,
		TierApplied:           tier,
		Savings:               undiscounted.Sub(subtotal),
	}, nil
}

// DurationUnits counts the pricing units covering [start, end), rounding partial units
// up. A valid window is at least one unit.
func DurationUnits(start, end time.Time, mode domain.PricingMode) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	unit := time.Duration(mode.Minutes()) * time.Minute
	n := int(d / unit)
	if d%unit != 0 {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}
