package domain

import "github.com/shopspring/decimal"

// PriceCalculationResult holds untaxed figures. Deposit is never discounted.
type PriceCalculationResult struct {
	Duration              int
	Quantity              int
	Subtotal              decimal.Decimal
	Deposit               decimal.Decimal
	Total                 decimal.Decimal
	EffectivePricePerUnit decimal.Decimal
	DiscountPercent       decimal.Decimal
	TierApplied           *PricingTier
	Savings               decimal.Decimal
}

// TaxedPriceResult adds the excl/incl/tax triad. Deposit stays outside tax in both totals.
type TaxedPriceResult struct {
	PriceCalculationResult
	SubtotalExclTax decimal.Decimal
	SubtotalInclTax decimal.Decimal
	SubtotalTax     decimal.Decimal
	TotalExclTax    decimal.Decimal
	TotalInclTax    decimal.Decimal
	TotalTax        decimal.Decimal
	TaxRate         *decimal.Decimal
	DisplayMode     TaxDisplayMode
}
