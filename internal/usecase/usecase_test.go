package usecase

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/alquileres/internal/clock"
	"github.com/phenrril/alquileres/internal/domain"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	store        domain.Store
	tent         domain.Product
	bike         domain.Product
	stores       *memStores
	products     *memProducts
	reservations *memReservations
	tx           *passTx
	cache        *StoreCache
}

func newFixture() *fixture {
	f := &fixture{}
	f.store = domain.Store{
		ID:       uuid.New(),
		Slug:     "rental-sur",
		Name:     "Rental Sur",
		Timezone: "UTC",
		Settings: domain.StoreSettings{
			PricingMode:          domain.PricingModeDay,
			AdvanceNoticeMinutes: 60,
			Tax:                  domain.TaxConfig{Enabled: true, DefaultRate: dec("20"), DisplayMode: domain.TaxDisplayExclusive},
		},
	}
	f.tent = domain.Product{
		ID:            uuid.New(),
		StoreID:       f.store.ID,
		Name:          "Carpa",
		Active:        true,
		TotalQuantity: 5,
		BasePrice:     dec("100"),
		Deposit:       dec("200"),
		PricingTiers: []domain.PricingTier{
			{MinDuration: 3, DiscountPercent: dec("10")},
			{MinDuration: 7, DiscountPercent: dec("20")},
		},
		TaxSettings: domain.TaxSettings{InheritFromStore: true},
	}
	f.bike = domain.Product{
		ID:          uuid.New(),
		StoreID:     f.store.ID,
		Name:        "Bicicleta",
		Active:      true,
		TrackUnits:  true,
		BasePrice:   dec("30"),
		TaxSettings: domain.TaxSettings{InheritFromStore: true},
		BookingAttributeAxes: []domain.AttributeAxis{
			{Name: "size", Values: []string{"S", "M", "L"}},
		},
	}
	for _, size := range []string{"M", "M", "L"} {
		f.bike.Units = append(f.bike.Units, domain.ProductUnit{
			ID: uuid.New(), ProductID: f.bike.ID, Attributes: map[string]string{"size": size}, Status: domain.UnitStatusAvailable,
		})
	}
	f.stores = newMemStores(f.store)
	f.products = newMemProducts(f.tent, f.bike)
	f.reservations = &memReservations{}
	f.tx = &passTx{}
	f.cache = NewStoreCache(f.stores, 16, time.Minute)
	return f
}

func (f *fixture) availabilityUC() *AvailabilityUC {
	return &AvailabilityUC{Stores: f.cache, Products: f.products, Reservations: f.reservations, Clock: clock.NewFixed(now)}
}

func (f *fixture) bookingUC() *BookingUC {
	return &BookingUC{Stores: f.cache, Products: f.products, Reservations: f.reservations, Tx: f.tx, Clock: clock.NewFixed(now)}
}

func (f *fixture) reserve(status domain.ReservationStatus, start, end time.Time, productID uuid.UUID, qty int, key string) domain.Reservation {
	pid := productID
	r := domain.Reservation{
		ID: uuid.New(), StoreID: f.store.ID, Status: status, StartDate: start, EndDate: end,
		Items: []domain.ReservationItem{{ID: uuid.New(), ProductID: &pid, Quantity: qty, CombinationKey: &key}},
	}
	f.reservations.list = append(f.reservations.list, r)
	return r
}

func days(n int) time.Time { return now.AddDate(0, 0, n) }

func TestAvailabilityUC_Check(t *testing.T) {
	f := newFixture()
	f.reserve(domain.ReservationStatusConfirmed, days(1), days(3), f.tent.ID, 3, domain.DefaultCombinationKey)
	f.reserve(domain.ReservationStatusPending, days(1), days(3), f.tent.ID, 1, domain.DefaultCombinationKey)
	f.reserve(domain.ReservationStatusOngoing, days(1), days(3), f.bike.ID, 1, `{"size":"M"}`)

	resp, err := f.availabilityUC().Check(context.Background(), AvailabilityQuery{StoreRef: "rental-sur", Start: days(2), End: days(4)})
	require.NoError(t, err)

	require.Len(t, resp.Products, 2)
	byID := map[uuid.UUID]domain.ProductAvailability{}
	for _, p := range resp.Products {
		byID[p.ProductID] = p
	}
	tent := byID[f.tent.ID]
	assert.Equal(t, 2, tent.AvailableQuantity)
	assert.Equal(t, domain.AvailabilityLimited, tent.Status)

	bike := byID[f.bike.ID]
	assert.Equal(t, 3, bike.TotalQuantity)
	assert.Equal(t, 2, bike.AvailableQuantity)
	require.Len(t, bike.Combinations, 2)
	assert.Equal(t, `{"size":"M"}`, bike.Combinations[0].CombinationKey)
	assert.Equal(t, 1, bike.Combinations[0].AvailableQuantity)

	assert.Nil(t, resp.BusinessHoursValidation)
	require.NotNil(t, resp.AdvanceNoticeValidation)
	assert.True(t, resp.AdvanceNoticeValidation.Valid)
	assert.Empty(t, resp.Warnings)
}

func TestAvailabilityUC_PendingBlocksAndWarnings(t *testing.T) {
	f := newFixture()
	f.store.Settings.PendingBlocksAvailability = true
	f.store.Settings.AdvanceNoticeMinutes = 1440
	f.stores = newMemStores(f.store)
	f.cache = NewStoreCache(f.stores, 16, time.Minute)
	f.reserve(domain.ReservationStatusPending, days(1), days(3), f.tent.ID, 1, domain.DefaultCombinationKey)

	resp, err := f.availabilityUC().Check(context.Background(), AvailabilityQuery{
		StoreRef: f.store.ID.String(), Start: now.Add(time.Hour), End: days(2), ProductIDs: []uuid.UUID{f.tent.ID},
	})
	require.NoError(t, err)

	require.Len(t, resp.Products, 1)
	assert.Equal(t, 4, resp.Products[0].AvailableQuantity)
	require.NotNil(t, resp.AdvanceNoticeValidation)
	assert.False(t, resp.AdvanceNoticeValidation.Valid)
	assert.Equal(t, domain.WarningAdvanceNotice, resp.AdvanceNoticeValidation.Warning.Code)
	require.Len(t, resp.Warnings, 1)
}

func TestAvailabilityUC_InvalidPeriodAndUnknownStore(t *testing.T) {
	f := newFixture()
	uc := f.availabilityUC()

	_, err := uc.Check(context.Background(), AvailabilityQuery{StoreRef: "rental-sur", Start: days(2), End: days(2)})
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)

	_, err = uc.Check(context.Background(), AvailabilityQuery{StoreRef: "nope", Start: days(1), End: days(2)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAvailabilityUC_ResolveCombination(t *testing.T) {
	f := newFixture()
	f.reserve(domain.ReservationStatusConfirmed, days(1), days(3), f.bike.ID, 2, `{"size":"M"}`)
	uc := f.availabilityUC()

	res, err := uc.ResolveCombination(context.Background(), CombinationQuery{
		StoreRef: "rental-sur", ProductID: f.bike.ID, Start: days(1), End: days(2), Quantity: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"size":"L"}`, res.CombinationKey)
	assert.Equal(t, map[string]string{"size": "L"}, res.SelectedAttributes)

	_, err = uc.ResolveCombination(context.Background(), CombinationQuery{
		StoreRef: "rental-sur", ProductID: f.bike.ID, Start: days(1), End: days(2), Quantity: 1,
		SelectedAttributes: map[string]string{"size": "M"},
	})
	assert.ErrorIs(t, err, domain.ErrNoMatchingCombination)

	_, err = uc.ResolveCombination(context.Background(), CombinationQuery{
		StoreRef: "rental-sur", ProductID: uuid.New(), Start: days(1), End: days(2), Quantity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.cache.Resolve(ctx, "rental-sur")
	require.NoError(t, err)
	_, err = f.cache.Resolve(ctx, "rental-sur")
	require.NoError(t, err)
	assert.Equal(t, 1, f.stores.finds)

	s, err := f.cache.Resolve(ctx, f.store.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "rental-sur", s.Slug)
	assert.Equal(t, 2, f.stores.finds)

	updated := *s
	updated.Settings.AdvanceNoticeMinutes = 5
	require.NoError(t, f.cache.Save(ctx, &updated))
	s, err = f.cache.Resolve(ctx, "rental-sur")
	require.NoError(t, err)
	assert.Equal(t, 5, s.Settings.AdvanceNoticeMinutes)
}

func TestStoreCache_ExpiresEntries(t *testing.T) {
	stores := newMemStores(domain.Store{ID: uuid.New(), Slug: "a"})
	cache := NewStoreCache(stores, 4, 20*time.Millisecond)

	_, err := cache.Resolve(context.Background(), "a")
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	_, err = cache.Resolve(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 2, stores.finds)
}

func TestQuoteUC(t *testing.T) {
	f := newFixture()
	uc := &QuoteUC{Stores: f.cache, Products: f.products}

	q, err := uc.Quote(context.Background(), QuoteRequest{StoreRef: "rental-sur", ProductID: f.tent.ID, Start: days(1), End: days(8), Quantity: 1})
	require.NoError(t, err)

	assert.Equal(t, domain.PricingModeDay, q.PricingMode)
	assert.Equal(t, 7, q.Duration)
	assert.True(t, dec("560").Equal(q.Subtotal))
	assert.True(t, dec("112").Equal(q.SubtotalTax))
	assert.True(t, dec("672").Equal(q.SubtotalInclTax))
	assert.True(t, dec("872").Equal(q.TotalInclTax))

	// partial day rounds up
	q, err = uc.Quote(context.Background(), QuoteRequest{StoreRef: "rental-sur", ProductID: f.tent.ID, Start: days(1), End: days(3).Add(time.Hour), Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, q.Duration)
	assert.True(t, dec("540").Equal(q.Subtotal), q.Subtotal.String())
}

func TestQuoteUC_Errors(t *testing.T) {
	f := newFixture()
	other := domain.Product{ID: uuid.New(), StoreID: uuid.New(), Active: true, BasePrice: dec("1")}
	require.NoError(t, f.products.Save(context.Background(), &other))
	uc := &QuoteUC{Stores: f.cache, Products: f.products}

	_, err := uc.Quote(context.Background(), QuoteRequest{StoreRef: "rental-sur", ProductID: other.ID, Start: days(1), End: days(2), Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Quote(context.Background(), QuoteRequest{StoreRef: "rental-sur", ProductID: f.tent.ID, Start: days(1), End: days(2), Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = uc.Quote(context.Background(), QuoteRequest{StoreRef: "rental-sur", ProductID: f.tent.ID, Start: days(2), End: days(1), Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}

func TestStoreCache_SaveRejectsUnknownTimezone(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	s, err := f.cache.Resolve(ctx, "rental-sur")
	require.NoError(t, err)
	updated := *s
	updated.Timezone = "America/Atlantis"

	err = f.cache.Save(ctx, &updated)
	require.ErrorIs(t, err, domain.ErrInvalidItem)
	stored, err := f.stores.FindByID(ctx, f.store.ID)
	require.NoError(t, err)
	assert.Equal(t, "UTC", stored.Timezone)

	updated.Timezone = " America/Argentina/Buenos_Aires "
	require.NoError(t, f.cache.Save(ctx, &updated))
	s, err = f.cache.Resolve(ctx, "rental-sur")
	require.NoError(t, err)
	assert.Equal(t, "America/Argentina/Buenos_Aires", s.Location().String())
}
