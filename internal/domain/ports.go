package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type StoreRepo interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Store, error)
	FindBySlug(ctx context.Context, slug string) (*Store, error)
	Save(ctx context.Context, s *Store) error
}

type ProductFilter struct {
	StoreID    uuid.UUID
	IDs        []uuid.UUID
	ActiveOnly bool
}

type ProductRepo interface {
	// List returns products with their units preloaded.
	List(ctx context.Context, f ProductFilter) ([]Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	Save(ctx context.Context, p *Product) error
	SaveUnit(ctx context.Context, u *ProductUnit) error
	// LockForBooking takes row locks on the products until the surrounding transaction ends.
	LockForBooking(ctx context.Context, ids []uuid.UUID) error
}

type ReservationRepo interface {
	// ListOverlapping returns reservations of the store in one of statuses that overlap
	// [start, end), items preloaded.
	ListOverlapping(ctx context.Context, storeID uuid.UUID, start, end time.Time, statuses []ReservationStatus) ([]Reservation, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	Create(ctx context.Context, r *Reservation) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status ReservationStatus) error
	CountForDay(ctx context.Context, storeID uuid.UUID, day time.Time) (int64, error)
}

// TxRunner runs fn in one database transaction; repositories called with the ctx passed to fn join it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
