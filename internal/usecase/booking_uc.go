package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/phenrril/alquileres/internal/availability"
	"github.com/phenrril/alquileres/internal/clock"
	"github.com/phenrril/alquileres/internal/domain"
	"github.com/phenrril/alquileres/internal/policy"
	"github.com/phenrril/alquileres/internal/pricing"
)

type BookingUC struct {
	Stores       StoreResolver
	Products     domain.ProductRepo
	Reservations domain.ReservationRepo
	Tx           domain.TxRunner
	Clock        clock.Clock
}

type BookingItemRequest struct {
	// ProductID is nil for ad-hoc lines (delivery, extras) priced by staff.
	ProductID          *uuid.UUID
	Description        string
	Quantity           int
	SelectedAttributes map[string]string
	UnitPrice          decimal.Decimal
}

type BookingRequest struct {
	StoreRef      string
	Source        domain.BookingSource
	Start         time.Time
	End           time.Time
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Notes         string
	Items         []BookingItemRequest
}

type BookingResult struct {
	Reservation *domain.Reservation
	// Warnings lists policy checks a staff booking went through despite.
	Warnings []domain.Warning
}

func (uc *BookingUC) Create(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	period := domain.Period{Start: req.Start, End: req.End}
	if !period.Valid() {
		return nil, domain.ErrInvalidPeriod
	}
	if req.Source != domain.BookingSourceStaff {
		req.Source = domain.BookingSourceOnline
	}
	if err := validateItems(req); err != nil {
		return nil, err
	}
	store, err := uc.Stores.Resolve(ctx, req.StoreRef)
	if err != nil {
		return nil, err
	}

	warnings := policy.Validate(period.Start, period.End, store.Settings, store.Location(), uc.Clock.Now())
	if len(warnings) > 0 && req.Source == domain.BookingSourceOnline {
		return nil, domain.PolicyViolation(warnings)
	}

	ids := productIDs(req.Items)

	// Fail fast outside the transaction; a shortfall found only under the lock means a
	// concurrent booking won.
	if _, err := uc.plan(ctx, store, period, req, ids); err != nil {
		return nil, err
	}

	var res *domain.Reservation
	err = uc.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.Products.LockForBooking(ctx, ids); err != nil {
			return err
		}
		items, err := uc.plan(ctx, store, period, req, ids)
		if err != nil {
			if errors.Is(err, domain.ErrInsufficientAvailability) || errors.Is(err, domain.ErrNoMatchingCombination) {
				return fmt.Errorf("%w: %v", domain.ErrAvailabilityConflict, err)
			}
			return err
		}
		number, err := uc.nextNumber(ctx, store)
		if err != nil {
			return err
		}
		res = newReservation(store, req, number, items)
		return uc.Reservations.Create(ctx, res)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("store", store.Slug).Str("number", res.Number).Str("source", string(res.Source)).
		Int("items", len(res.Items)).Int("warnings", len(warnings)).Msg("reserva creada")
	return &BookingResult{Reservation: res, Warnings: warnings}, nil
}

// UpdateStatus moves a reservation along the status table. Confirming a pending
// reservation re-checks stock when pending reservations do not hold it.
func (uc *BookingUC) UpdateStatus(ctx context.Context, id uuid.UUID, next domain.ReservationStatus) (*domain.Reservation, error) {
	var out *domain.Reservation
	err := uc.Tx.WithTx(ctx, func(ctx context.Context) error {
		r, err := uc.Reservations.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !r.Status.CanTransition(next) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, r.Status, next)
		}
		if r.Status == domain.ReservationStatusPending && next == domain.ReservationStatusConfirmed {
			if err := uc.recheck(ctx, r); err != nil {
				return err
			}
		}
		if err := uc.Reservations.UpdateStatus(ctx, id, next); err != nil {
			return err
		}
		r.Status = next
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("number", out.Number).Str("status", string(next)).Msg("estado de reserva actualizado")
	return out, nil
}

func (uc *BookingUC) recheck(ctx context.Context, r *domain.Reservation) error {
	store, err := uc.Stores.Resolve(ctx, r.StoreID.String())
	if err != nil {
		return err
	}
	if store.Settings.PendingBlocksAvailability {
		return nil
	}
	var ids []uuid.UUID
	need := make(map[availability.Bucket]int)
	for _, it := range r.Items {
		if it.ProductID == nil {
			continue
		}
		ids = append(ids, *it.ProductID)
		need[availability.Bucket{ProductID: *it.ProductID, CombinationKey: it.Key()}] += it.Quantity
	}
	if len(ids) == 0 {
		return nil
	}
	if err := uc.Products.LockForBooking(ctx, ids); err != nil {
		return err
	}
	snap, err := loadSnapshot(ctx, uc.Products, uc.Reservations, store, r.Period(), ids, r.ID)
	if err != nil {
		return err
	}
	for b, qty := range need {
		available := availableFor(snap.avail[b.ProductID], b.CombinationKey)
		if available < qty {
			return domain.InsufficientAvailability(b.ProductID.String(), qty, available)
		}
	}
	return nil
}

func availableFor(a domain.ProductAvailability, key string) int {
	if len(a.Combinations) == 0 {
		if key == domain.DefaultCombinationKey {
			return a.AvailableQuantity
		}
		return 0
	}
	for _, c := range a.Combinations {
		if c.CombinationKey == key {
			return c.AvailableQuantity
		}
	}
	return 0
}

type plannedItem struct {
	req        BookingItemRequest
	key        string
	attributes map[string]string
	price      domain.TaxedPriceResult
}

// plan resolves a combination and a price for every line against the current stock.
func (uc *BookingUC) plan(ctx context.Context, store *domain.Store, period domain.Period, req BookingRequest, ids []uuid.UUID) ([]plannedItem, error) {
	snap := &snapshot{}
	if len(ids) > 0 {
		var err error
		snap, err = loadSnapshot(ctx, uc.Products, uc.Reservations, store, period, ids, uuid.Nil)
		if err != nil {
			return nil, err
		}
	}

	out := make([]plannedItem, 0, len(req.Items))
	for _, it := range req.Items {
		if it.ProductID == nil {
			out = append(out, plannedItem{req: it, price: adHocPrice(store, it)})
			continue
		}
		p, ok := snap.products[*it.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", it.ProductID, domain.ErrNotFound)
		}
		avail := snap.avail[p.ID]
		if !p.TrackUnits && avail.AvailableQuantity < it.Quantity {
			return nil, domain.InsufficientAvailability(p.ID.String(), it.Quantity, avail.AvailableQuantity)
		}
		resolved, err := availability.ResolveCombination(p, it.Quantity, it.SelectedAttributes, avail)
		if err != nil {
			return nil, err
		}
		price, err := priceLine(store, p, period, it.Quantity)
		if err != nil {
			return nil, err
		}
		snap.take(p.ID, resolved.CombinationKey, it.Quantity)
		if strings.TrimSpace(it.Description) == "" {
			it.Description = p.Name
		}
		out = append(out, plannedItem{req: it, key: resolved.CombinationKey, attributes: resolved.SelectedAttributes, price: price})
	}
	return out, nil
}

func adHocPrice(store *domain.Store, it BookingItemRequest) domain.TaxedPriceResult {
	subtotal := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2)
	res := domain.PriceCalculationResult{
		Duration:              1,
		Quantity:              it.Quantity,
		Subtotal:              subtotal,
		Deposit:               decimal.Zero,
		Total:                 subtotal,
		EffectivePricePerUnit: it.UnitPrice.Round(2),
		DiscountPercent:       decimal.Zero,
		Savings:               decimal.Zero,
	}
	return pricing.ApplyTax(res, pricing.ResolveTaxRate(store.Settings.Tax, domain.TaxSettings{InheritFromStore: true}))
}

func validateItems(req BookingRequest) error {
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: no items", domain.ErrInvalidItem)
	}
	for _, it := range req.Items {
		if it.Quantity < 1 {
			return domain.ErrInvalidQuantity
		}
		if it.ProductID != nil {
			continue
		}
		if req.Source != domain.BookingSourceStaff {
			return fmt.Errorf("%w: ad-hoc lines are staff only", domain.ErrInvalidItem)
		}
		if strings.TrimSpace(it.Description) == "" || it.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: ad-hoc line needs description and price", domain.ErrInvalidItem)
		}
	}
	return nil
}

func productIDs(items []BookingItemRequest) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, it := range items {
		if it.ProductID == nil {
			continue
		}
		if _, ok := seen[*it.ProductID]; ok {
			continue
		}
		seen[*it.ProductID] = struct{}{}
		out = append(out, *it.ProductID)
	}
	return out
}

// nextNumber numbers reservations per store and local day: R-YYYYMMDD-0001.
func (uc *BookingUC) nextNumber(ctx context.Context, store *domain.Store) (string, error) {
	day := uc.Clock.Now().In(store.Location())
	n, err := uc.Reservations.CountForDay(ctx, store.ID, day)
	if err != nil {
		return "", fmt.Errorf("count reservations: %w", err)
	}
	return fmt.Sprintf("R-%s-%04d", day.Format("20060102"), n+1), nil
}

func newReservation(store *domain.Store, req BookingRequest, number string, items []plannedItem) *domain.Reservation {
	status := domain.ReservationStatusPending
	if req.Source == domain.BookingSourceStaff {
		status = domain.ReservationStatusConfirmed
	}
	r := &domain.Reservation{
		ID:              uuid.New(),
		StoreID:         store.ID,
		Number:          number,
		Status:          status,
		Source:          req.Source,
		StartDate:       req.Start,
		EndDate:         req.End,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		Notes:           req.Notes,
		SubtotalExclTax: decimal.Zero,
		TaxAmount:       decimal.Zero,
		SubtotalInclTax: decimal.Zero,
		DepositTotal:    decimal.Zero,
		Total:           decimal.Zero,
	}
	for _, pi := range items {
		it := domain.ReservationItem{
			ID:            uuid.New(),
			ReservationID: r.ID,
			ProductID:     pi.req.ProductID,
			Description:   pi.req.Description,
			Quantity:      pi.req.Quantity,
			UnitPrice:     pi.price.EffectivePricePerUnit,
			Subtotal:      pi.price.Subtotal,
			Deposit:       pi.price.Deposit,
			TaxRate:       pi.price.TaxRate,
		}
		if pi.req.ProductID != nil {
			key := pi.key
			it.CombinationKey = &key
			it.SelectedAttributes = pi.attributes
		}
		r.Items = append(r.Items, it)

		r.SubtotalExclTax = r.SubtotalExclTax.Add(pi.price.SubtotalExclTax)
		r.TaxAmount = r.TaxAmount.Add(pi.price.SubtotalTax)
		r.SubtotalInclTax = r.SubtotalInclTax.Add(pi.price.SubtotalInclTax)
		r.DepositTotal = r.DepositTotal.Add(pi.price.Deposit)
	}
	r.Total = r.SubtotalInclTax.Add(r.DepositTotal)
	return r
}
