package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/phenrril/alquileres/internal/domain"
)

// TaxContext is the tax rule in force for one product in one store.
type TaxContext struct {
	Enabled     bool
	Rate        decimal.Decimal
	DisplayMode domain.TaxDisplayMode
}

// ResolveTaxRate picks the product custom rate when the product opts out of the store
// default. A store with tax disabled disables it for every product.
func ResolveTaxRate(store domain.TaxConfig, product domain.TaxSettings) TaxContext {
	mode := store.DisplayMode
	if mode != domain.TaxDisplayInclusive {
		mode = domain.TaxDisplayExclusive
	}
	if !store.Enabled {
		return TaxContext{DisplayMode: mode}
	}
	rate := store.DefaultRate
	if !product.InheritFromStore && product.CustomRate != nil {
		rate = *product.CustomRate
	}
	return TaxContext{Enabled: true, Rate: rate, DisplayMode: mode}
}

// CalculateTaxFromExclusive is the tax owed on a pre-tax amount.
func CalculateTaxFromExclusive(amount, rate decimal.Decimal) decimal.Decimal {
	return round2(amount.Mul(rate).Div(hundred))
}

// ExtractTaxFromInclusive is the tax contained in a tax-inclusive amount.
func ExtractTaxFromInclusive(gross, rate decimal.Decimal) decimal.Decimal {
	return gross.Sub(exclusiveFromInclusive(gross, rate))
}

func exclusiveFromInclusive(gross, rate decimal.Decimal) decimal.Decimal {
	divisor := decimal.NewFromInt(1).Add(rate.Div(hundred))
	return round2(gross.Div(divisor))
}

// ApplyTax derives the excl/incl/tax figures. The deposit is added untaxed to both totals.
func ApplyTax(res domain.PriceCalculationResult, tc TaxContext) domain.TaxedPriceResult {
	out := domain.TaxedPriceResult{PriceCalculationResult: res, DisplayMode: tc.DisplayMode}

	if !tc.Enabled {
		out.SubtotalExclTax = res.Subtotal
		out.SubtotalInclTax = res.Subtotal
		out.SubtotalTax = decimal.Zero
	} else {
		rate := tc.Rate
		out.TaxRate = &rate
		switch tc.DisplayMode {
		case domain.TaxDisplayInclusive:
			out.SubtotalInclTax = res.Subtotal
			out.SubtotalExclTax = exclusiveFromInclusive(res.Subtotal, rate)
			out.SubtotalTax = out.SubtotalInclTax.Sub(out.SubtotalExclTax)
		default:
			out.SubtotalExclTax = res.Subtotal
			out.SubtotalTax = CalculateTaxFromExclusive(res.Subtotal, rate)
			out.SubtotalInclTax = out.SubtotalExclTax.Add(out.SubtotalTax)
		}
	}

	out.TotalExclTax = out.SubtotalExclTax.Add(res.Deposit)
	out.TotalInclTax = out.SubtotalInclTax.Add(res.Deposit)
	out.TotalTax = out.SubtotalTax
	return out
}
