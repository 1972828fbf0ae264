package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/phenrril/alquileres/internal/domain"
	"github.com/phenrril/alquileres/internal/pricing"
)

type ProductUC struct {
	Products domain.ProductRepo
	// Tx is optional. When set, a product and its units are stored atomically.
	Tx domain.TxRunner
}

func (uc *ProductUC) List(ctx context.Context, storeID uuid.UUID) ([]domain.Product, error) {
	return uc.Products.List(ctx, domain.ProductFilter{StoreID: storeID})
}

func (uc *ProductUC) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if id == uuid.Nil {
		return nil, domain.ErrNotFound
	}
	return uc.Products.FindByID(ctx, id)
}

// Create validates and stores a new product. Invalid tier lists are rejected here so the
// pricing engine never meets one it has to ignore.
func (uc *ProductUC) Create(ctx context.Context, p *domain.Product) error {
	if p.StoreID == uuid.Nil {
		return errors.New("store id vacío")
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: nombre vacío", domain.ErrInvalidItem)
	}
	if p.BasePrice.IsNegative() || p.Deposit.IsNegative() {
		return fmt.Errorf("%w: precio negativo", domain.ErrInvalidItem)
	}
	if p.TotalQuantity < 0 {
		return domain.ErrInvalidQuantity
	}
	if p.PricingMode != nil && !p.PricingMode.Valid() {
		return fmt.Errorf("%w: pricing mode %q", domain.ErrInvalidItem, *p.PricingMode)
	}
	if err := pricing.ValidateTiers(p.PricingTiers); err != nil {
		return err
	}
	p.PricingTiers = pricing.SortTiers(p.PricingTiers)
	if err := validateAxes(p.BookingAttributeAxes); err != nil {
		return err
	}
	if p.TaxSettings.CustomRate == nil {
		p.TaxSettings.InheritFromStore = true
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	for i := range p.Units {
		if err := prepareUnit(p, &p.Units[i]); err != nil {
			return err
		}
	}

	p.Slug = strings.ToLower(strings.ReplaceAll(p.Name, " ", "-"))
	p.Active = true
	units := p.Units
	save := func(ctx context.Context) error {
		p.Units = nil
		if err := uc.Products.Save(ctx, p); err != nil {
			return err
		}
		for i := range units {
			if err := uc.Products.SaveUnit(ctx, &units[i]); err != nil {
				return err
			}
			p.Units = append(p.Units, units[i])
		}
		return nil
	}
	if uc.Tx == nil {
		return save(ctx)
	}
	return uc.Tx.WithTx(ctx, save)
}

// AddUnit registers one physical unit of a tracked product. Its attributes must name a
// value for every declared axis.
func (uc *ProductUC) AddUnit(ctx context.Context, productID uuid.UUID, u *domain.ProductUnit) error {
	p, err := uc.Products.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if err := prepareUnit(p, u); err != nil {
		return err
	}
	return uc.Products.SaveUnit(ctx, u)
}

// prepareUnit checks u against the axes of p and fills in its defaults. It never touches
// the repository so Create can reject a bad unit before the product is stored.
func prepareUnit(p *domain.Product, u *domain.ProductUnit) error {
	if !p.TrackUnits {
		return fmt.Errorf("%w: el producto no registra unidades", domain.ErrInvalidItem)
	}
	attrs := domain.NormalizeAttributes(u.Attributes)
	for k, v := range attrs {
		axis, ok := p.Axis(k)
		if !ok {
			return fmt.Errorf("%w: eje desconocido %q", domain.ErrInvalidAttributes, k)
		}
		if !containsValue(axis.Values, v) {
			return fmt.Errorf("%w: valor %q no declarado en %q", domain.ErrInvalidAttributes, v, k)
		}
	}
	for _, axis := range p.BookingAttributeAxes {
		if _, ok := attrs[axis.Name]; !ok {
			return fmt.Errorf("%w: falta %q", domain.ErrInvalidAttributes, axis.Name)
		}
	}
	if u.Status == "" {
		u.Status = domain.UnitStatusAvailable
	}
	if !u.Status.Valid() {
		return fmt.Errorf("%w: estado de unidad %q", domain.ErrInvalidItem, u.Status)
	}

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.ProductID = p.ID
	u.Attributes = attrs
	u.Identifier = strings.TrimSpace(u.Identifier)
	return nil
}

func validateAxes(axes []domain.AttributeAxis) error {
	names := make(map[string]struct{}, len(axes))
	for i := range axes {
		a := &axes[i]
		a.Name = strings.TrimSpace(a.Name)
		if a.Name == "" || len(a.Values) == 0 {
			return fmt.Errorf("%w: eje %d incompleto", domain.ErrInvalidAttributes, i)
		}
		if _, dup := names[a.Name]; dup {
			return fmt.Errorf("%w: eje %q repetido", domain.ErrInvalidAttributes, a.Name)
		}
		names[a.Name] = struct{}{}
		seen := make(map[string]struct{}, len(a.Values))
		for j, v := range a.Values {
			v = strings.TrimSpace(v)
			if v == "" {
				return fmt.Errorf("%w: valor vacío en %q", domain.ErrInvalidAttributes, a.Name)
			}
			if _, dup := seen[v]; dup {
				return fmt.Errorf("%w: valor %q repetido en %q", domain.ErrInvalidAttributes, v, a.Name)
			}
			seen[v] = struct{}{}
			a.Values[j] = v
		}
	}
	return nil
}

func containsValue(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
