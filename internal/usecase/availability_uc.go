package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phenrril/alquileres/internal/availability"
	"github.com/phenrril/alquileres/internal/clock"
	"github.com/phenrril/alquileres/internal/domain"
	"github.com/phenrril/alquileres/internal/policy"
)

type AvailabilityUC struct {
	Stores       StoreResolver
	Products     domain.ProductRepo
	Reservations domain.ReservationRepo
	Clock        clock.Clock
}

type AvailabilityQuery struct {
	StoreRef   string
	Start      time.Time
	End        time.Time
	ProductIDs []uuid.UUID
}

type CombinationQuery struct {
	StoreRef           string
	ProductID          uuid.UUID
	Start              time.Time
	End                time.Time
	Quantity           int
	SelectedAttributes map[string]string
}

func (uc *AvailabilityUC) Check(ctx context.Context, q AvailabilityQuery) (*domain.AvailabilityResponse, error) {
	period := domain.Period{Start: q.Start, End: q.End}
	if !period.Valid() {
		return nil, domain.ErrInvalidPeriod
	}
	store, err := uc.Stores.Resolve(ctx, q.StoreRef)
	if err != nil {
		return nil, err
	}
	snap, err := loadSnapshot(ctx, uc.Products, uc.Reservations, store, period, q.ProductIDs, uuid.Nil)
	if err != nil {
		return nil, err
	}

	resp := &domain.AvailabilityResponse{
		Products: make([]domain.ProductAvailability, 0, len(snap.order)),
		Period:   period,
	}
	for _, id := range snap.order {
		resp.Products = append(resp.Products, snap.avail[id])
	}

	s := store.Settings
	resp.Warnings = policy.Validate(period.Start, period.End, s, store.Location(), uc.Clock.Now())
	if s.BusinessHours.Enabled {
		resp.BusinessHoursValidation = validationResult(resp.Warnings, domain.WarningBusinessHours)
	}
	if s.AdvanceNoticeMinutes > 0 {
		resp.AdvanceNoticeValidation = validationResult(resp.Warnings, domain.WarningAdvanceNotice)
	}
	return resp, nil
}

func (uc *AvailabilityUC) ResolveCombination(ctx context.Context, q CombinationQuery) (*domain.CombinationResolution, error) {
	period := domain.Period{Start: q.Start, End: q.End}
	if !period.Valid() {
		return nil, domain.ErrInvalidPeriod
	}
	if q.Quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	store, err := uc.Stores.Resolve(ctx, q.StoreRef)
	if err != nil {
		return nil, err
	}
	snap, err := loadSnapshot(ctx, uc.Products, uc.Reservations, store, period, []uuid.UUID{q.ProductID}, uuid.Nil)
	if err != nil {
		return nil, err
	}
	p, ok := snap.products[q.ProductID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	res, err := availability.ResolveCombination(p, q.Quantity, q.SelectedAttributes, snap.avail[q.ProductID])
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func validationResult(ws []domain.Warning, code domain.WarningCode) *domain.ValidationResult {
	for i := range ws {
		if ws[i].Code == code {
			w := ws[i]
			return &domain.ValidationResult{Valid: false, Warning: &w}
		}
	}
	return &domain.ValidationResult{Valid: true}
}

// snapshot is the stock picture of a store's products over one period.
type snapshot struct {
	products map[uuid.UUID]*domain.Product
	order    []uuid.UUID
	avail    map[uuid.UUID]domain.ProductAvailability
}

// loadSnapshot reads active products of store (all of them when ids is empty) and the
// reservations blocking them during period. exclude skips one reservation, used when a
// reservation is re-checked against everybody else.
func loadSnapshot(ctx context.Context, products domain.ProductRepo, reservations domain.ReservationRepo, store *domain.Store, period domain.Period, ids []uuid.UUID, exclude uuid.UUID) (*snapshot, error) {
	list, err := products.List(ctx, domain.ProductFilter{StoreID: store.ID, IDs: ids, ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	blocking := availability.BlockingStatuses(store.Settings.PendingBlocksAvailability)
	rs, err := reservations.ListOverlapping(ctx, store.ID, period.Start, period.End, blocking)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	if exclude != uuid.Nil {
		kept := rs[:0]
		for _, r := range rs {
			if r.ID != exclude {
				kept = append(kept, r)
			}
		}
		rs = kept
	}

	snap := &snapshot{
		products: make(map[uuid.UUID]*domain.Product, len(list)),
		avail:    make(map[uuid.UUID]domain.ProductAvailability, len(list)),
	}
	productIDs := make([]uuid.UUID, 0, len(list))
	for i := range list {
		p := &list[i]
		snap.products[p.ID] = p
		snap.order = append(snap.order, p.ID)
		productIDs = append(productIDs, p.ID)
	}
	reserved := availability.ReservedByCombination(productIDs, period, rs, blocking)
	for _, id := range snap.order {
		snap.avail[id] = availability.Resolve(snap.products[id], reserved)
	}
	return snap, nil
}

// take removes qty from the combination key of the product availability, so a second
// line for the same stock sees what the first one left.
func (s *snapshot) take(productID uuid.UUID, key string, qty int) {
	a := s.avail[productID]
	a.AvailableQuantity -= qty
	if a.AvailableQuantity < 0 {
		a.AvailableQuantity = 0
	}
	if len(a.Combinations) > 0 {
		combos := make([]domain.CombinationAvailability, len(a.Combinations))
		copy(combos, a.Combinations)
		for i := range combos {
			if combos[i].CombinationKey == key {
				combos[i].AvailableQuantity -= qty
				if combos[i].AvailableQuantity < 0 {
					combos[i].AvailableQuantity = 0
				}
			}
		}
		a.Combinations = combos
	}
	s.avail[productID] = a
}
