package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/alquileres/internal/domain"
)

func ptr(id uuid.UUID) *uuid.UUID { return &id }

func TestBookingUC_CreateStaff(t *testing.T) {
	f := newFixture()
	uc := f.bookingUC()

	res, err := uc.Create(context.Background(), BookingRequest{
		StoreRef:     "rental-sur",
		Source:       domain.BookingSourceStaff,
		Start:        days(1),
		End:          days(8),
		CustomerName: " Ana ",
		Items: []BookingItemRequest{
			{ProductID: ptr(f.tent.ID), Quantity: 1},
			{ProductID: ptr(f.bike.ID), Quantity: 1, SelectedAttributes: map[string]string{"size": "L"}},
			{Description: "Envío", Quantity: 1, UnitPrice: dec("50")},
		},
	})
	require.NoError(t, err)

	r := res.Reservation
	assert.Equal(t, "R-20260601-0001", r.Number)
	assert.Equal(t, domain.ReservationStatusConfirmed, r.Status)
	assert.Equal(t, "Ana", r.CustomerName)
	require.Len(t, r.Items, 3)

	tent := r.Items[0]
	assert.Equal(t, "Carpa", tent.Description)
	assert.Equal(t, domain.DefaultCombinationKey, tent.Key())
	assert.True(t, dec("560").Equal(tent.Subtotal))
	assert.True(t, dec("200").Equal(tent.Deposit))

	bike := r.Items[1]
	assert.Equal(t, `{"size":"L"}`, bike.Key())
	assert.Equal(t, map[string]string{"size": "L"}, bike.SelectedAttributes)
	assert.True(t, dec("210").Equal(bike.Subtotal), bike.Subtotal.String())

	adHoc := r.Items[2]
	assert.Nil(t, adHoc.ProductID)
	assert.Nil(t, adHoc.CombinationKey)

	// 560 + 210 + 50 = 820 excl; 20% tax = 164
	assert.True(t, dec("820").Equal(r.SubtotalExclTax), r.SubtotalExclTax.String())
	assert.True(t, dec("164").Equal(r.TaxAmount), r.TaxAmount.String())
	assert.True(t, dec("984").Equal(r.SubtotalInclTax))
	assert.True(t, dec("200").Equal(r.DepositTotal))
	assert.True(t, dec("1184").Equal(r.Total))

	assert.Equal(t, 1, f.tx.calls)
	require.Len(t, f.products.locked, 1)
	assert.ElementsMatch(t, []uuid.UUID{f.tent.ID, f.bike.ID}, f.products.locked[0])
	assert.Len(t, f.reservations.list, 1)

	res, err = uc.Create(context.Background(), BookingRequest{
		StoreRef: "rental-sur", Source: domain.BookingSourceStaff, Start: days(1), End: days(2),
		Items: []BookingItemRequest{{ProductID: ptr(f.tent.ID), Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "R-20260601-0002", res.Reservation.Number)
}

func TestBookingUC_PolicyWarnings(t *testing.T) {
	f := newFixture()
	uc := f.bookingUC()
	req := BookingRequest{
		StoreRef: "rental-sur",
		Start:    now.Add(10 * time.Minute),
		End:      days(2),
		Items:    []BookingItemRequest{{ProductID: ptr(f.tent.ID), Quantity: 1}},
	}

	req.Source = domain.BookingSourceOnline
	_, err := uc.Create(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrPolicyViolation)
	fail, ok := domain.AsFailure(err)
	require.True(t, ok)
	require.Len(t, fail.Warnings, 1)
	assert.Equal(t, domain.WarningAdvanceNotice, fail.Warnings[0].Code)
	assert.Empty(t, f.reservations.list)

	req.Source = domain.BookingSourceStaff
	res, err := uc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 1)
}

func TestBookingUC_OnlineIsPending(t *testing.T) {
	f := newFixture()
	res, err := f.bookingUC().Create(context.Background(), BookingRequest{
		StoreRef: "rental-sur", Source: "web", Start: days(1), End: days(2),
		Items: []BookingItemRequest{{ProductID: ptr(f.tent.ID), Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingSourceOnline, res.Reservation.Source)
	assert.Equal(t, domain.ReservationStatusPending, res.Reservation.Status)
}

func TestBookingUC_Shortfalls(t *testing.T) {
	f := newFixture()
	f.reserve(domain.ReservationStatusConfirmed, days(1), days(3), f.tent.ID, 4, domain.DefaultCombinationKey)
	uc := f.bookingUC()

	_, err := uc.Create(context.Background(), BookingRequest{
		StoreRef: "rental-sur", Source: domain.BookingSourceStaff, Start: days(2), End: days(4),
		Items: []BookingItemRequest{{ProductID: ptr(f.tent.ID), Quantity: 2}},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientAvailability)
	fail, _ := domain.AsFailure(err)
	assert.Equal(t, 1, fail.Params["available"])

	// two lines asking for the only L bike
	_, err = uc.Create(context.Background(), BookingRequest{
		StoreRef: "rental-sur", Source: domain.BookingSourceStaff, Start: days(2), End: days(4),
		Items: []BookingItemRequest{
			{ProductID: ptr(f.bike.ID), Quantity: 1, SelectedAttributes: map[string]string{"size": "L"}},
			{ProductID: ptr(f.bike.ID), Quantity: 1, SelectedAttributes: map[string]string{"size": "L"}},
		},
	})
	assert.ErrorIs(t, err, domain.ErrNoMatchingCombination)
	assert.Equal(t, 0, f.tx.calls)
}

func TestBookingUC_ConcurrentWriterSurfacesConflict(t *testing.T) {
	f := newFixture()
	uc := f.bookingUC()
	// Another booking lands between the pre-check and the locked re-check.
	f.reservations.afterList = func(m *memReservations) {
		if m.lists == 1 {
			pid := f.tent.ID
			key := domain.DefaultCombinationKey
			m.mu.Lock()
			m.list = append(m.list, domain.Reservation{
				ID: uuid.New(), StoreID: f.store.ID, Status: domain.ReservationStatusConfirmed, StartDate: days(1), EndDate: days(3),
				Items: []domain.ReservationItem{{ProductID: &pid, Quantity: 4, CombinationKey: &key}},
			})
			m.mu.Unlock()
		}
	}

	_, err := uc.Create(context.Background(), BookingRequest{
		StoreRef: "rental-sur", Source: domain.BookingSourceStaff, Start: days(1), End: days(2),
		Items: []BookingItemRequest{{ProductID: ptr(f.tent.ID), Quantity: 3}},
	})
	require.ErrorIs(t, err, domain.ErrAvailabilityConflict)
	assert.NotErrorIs(t, err, domain.ErrInsufficientAvailability)
	assert.Len(t, f.reservations.list, 1)
}

func TestBookingUC_InvalidRequests(t *testing.T) {
	f := newFixture()
	uc := f.bookingUC()
	base := func() BookingRequest {
		return BookingRequest{StoreRef: "rental-sur", Source: domain.BookingSourceStaff, Start: days(1), End: days(2)}
	}

	req := base()
	_, err := uc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidItem)

	req = base()
	req.Items = []BookingItemRequest{{ProductID: ptr(f.tent.ID), Quantity: 0}}
	_, err = uc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	req = base()
	req.Source = domain.BookingSourceOnline
	req.Items = []BookingItemRequest{{Description: "extra", Quantity: 1, UnitPrice: dec("1")}}
	_, err = uc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidItem)

	req = base()
	req.Items = []BookingItemRequest{{ProductID: ptr(uuid.New()), Quantity: 1}}
	_, err = uc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	req = base()
	req.End = req.Start
	_, err = uc.Create(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}

func TestBookingUC_UpdateStatus(t *testing.T) {
	f := newFixture()
	uc := f.bookingUC()
	pending := f.reserve(domain.ReservationStatusPending, days(1), days(3), f.tent.ID, 2, domain.DefaultCombinationKey)

	r, err := uc.UpdateStatus(context.Background(), pending.ID, domain.ReservationStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusConfirmed, r.Status)

	_, err = uc.UpdateStatus(context.Background(), pending.ID, domain.ReservationStatusPending)
	assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)

	_, err = uc.UpdateStatus(context.Background(), uuid.New(), domain.ReservationStatusCancelled)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBookingUC_ConfirmRechecksStock(t *testing.T) {
	f := newFixture()
	uc := f.bookingUC()
	f.reserve(domain.ReservationStatusConfirmed, days(1), days(3), f.tent.ID, 4, domain.DefaultCombinationKey)
	pending := f.reserve(domain.ReservationStatusPending, days(2), days(4), f.tent.ID, 2, domain.DefaultCombinationKey)

	_, err := uc.UpdateStatus(context.Background(), pending.ID, domain.ReservationStatusConfirmed)
	require.ErrorIs(t, err, domain.ErrInsufficientAvailability)

	r, err := f.reservations.FindByID(context.Background(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusPending, r.Status)

	_, err = uc.UpdateStatus(context.Background(), pending.ID, domain.ReservationStatusRejected)
	assert.NoError(t, err)
}
