package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/alquileres/internal/domain"
	"github.com/phenrril/alquileres/internal/pricing"
)

type QuoteUC struct {
	Stores   StoreResolver
	Products domain.ProductRepo
}

type QuoteRequest struct {
	StoreRef  string
	ProductID uuid.UUID
	Start     time.Time
	End       time.Time
	Quantity  int
}

type Quote struct {
	ProductID   uuid.UUID
	PricingMode domain.PricingMode
	Period      domain.Period
	domain.TaxedPriceResult
}

func (uc *QuoteUC) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	period := domain.Period{Start: req.Start, End: req.End}
	if !period.Valid() {
		return nil, domain.ErrInvalidPeriod
	}
	if req.Quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	store, err := uc.Stores.Resolve(ctx, req.StoreRef)
	if err != nil {
		return nil, err
	}
	p, err := uc.Products.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if p.StoreID != store.ID || !p.Active {
		return nil, domain.ErrNotFound
	}

	mode := p.EffectivePricingMode(store.Settings.PricingMode)
	taxed, err := priceLine(store, p, period, req.Quantity)
	if err != nil {
		return nil, err
	}
	return &Quote{ProductID: p.ID, PricingMode: mode, Period: period, TaxedPriceResult: taxed}, nil
}

// priceLine prices quantity units of p over period under the store tax rule.
func priceLine(store *domain.Store, p *domain.Product, period domain.Period, quantity int) (domain.TaxedPriceResult, error) {
	if err := pricing.ValidateTiers(p.PricingTiers); err != nil {
		log.Warn().Err(err).Str("product_id", p.ID.String()).Msg("tiers inválidos, se cotiza sin descuento")
	}
	mode := p.EffectivePricingMode(store.Settings.PricingMode)
	units := pricing.DurationUnits(period.Start, period.End, mode)
	res, err := pricing.Calculate(pricing.InputFor(p), units, quantity)
	if err != nil {
		return domain.TaxedPriceResult{}, err
	}
	return pricing.ApplyTax(res, pricing.ResolveTaxRate(store.Settings.Tax, p.TaxSettings)), nil
}
