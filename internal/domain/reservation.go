package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusOngoing   ReservationStatus = "ongoing"
	ReservationStatusCompleted ReservationStatus = "completed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusRejected  ReservationStatus = "rejected"
)

// BookingSource tells who created a reservation. Policy warnings block online bookings only.
type BookingSource string

const (
	BookingSourceStaff  BookingSource = "staff"
	BookingSourceOnline BookingSource = "online"
)

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationStatusPending:   {ReservationStatusConfirmed, ReservationStatusRejected, ReservationStatusCancelled},
	ReservationStatusConfirmed: {ReservationStatusOngoing, ReservationStatusCancelled},
	ReservationStatusOngoing:   {ReservationStatusCompleted},
}

// CanTransition reports whether a reservation may move from s to next.
func (s ReservationStatus) CanTransition(next ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Reservation struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey"`
	StoreID       uuid.UUID         `gorm:"type:uuid;index;uniqueIndex:idx_reservation_store_number"`
	Number        string            `gorm:"size:40;uniqueIndex:idx_reservation_store_number"`
	Status        ReservationStatus `gorm:"type:varchar(20);index"`
	Source        BookingSource     `gorm:"type:varchar(10)"`
	StartDate     time.Time         `gorm:"index"`
	EndDate       time.Time         `gorm:"index"`
	CustomerName  string            `gorm:"size:140"`
	CustomerEmail string            `gorm:"size:140"`
	CustomerPhone string            `gorm:"size:60"`
	Notes         string            `gorm:"type:text"`
	Items         []ReservationItem

	SubtotalExclTax decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	SubtotalInclTax decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	DepositTotal    decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Period returns the half-open interval covered by the reservation.
func (r *Reservation) Period() Period {
	return Period{Start: r.StartDate, End: r.EndDate}
}

type ReservationItem struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ReservationID uuid.UUID  `gorm:"type:uuid;index"`
	ProductID     *uuid.UUID `gorm:"type:uuid;index"`
	Description   string     `gorm:"size:255"`
	Quantity      int        `gorm:"not null"`
	// CombinationKey and SelectedAttributes are frozen at booking time and never follow product edits.
	CombinationKey     *string           `gorm:"size:255"`
	SelectedAttributes map[string]string `gorm:"type:jsonb;serializer:json"`
	UnitPrice          decimal.Decimal   `gorm:"type:decimal(12,2)"`
	Subtotal           decimal.Decimal   `gorm:"type:decimal(12,2)"`
	Deposit            decimal.Decimal   `gorm:"type:decimal(12,2);default:0"`
	TaxRate            *decimal.Decimal  `gorm:"type:decimal(5,2)"`
}

// Key returns the combination bucket the item counts against.
func (it ReservationItem) Key() string {
	if it.CombinationKey == nil || *it.CombinationKey == "" {
		return DefaultCombinationKey
	}
	return *it.CombinationKey
}

// Period is a half-open [Start, End) window.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (p Period) Valid() bool {
	return !p.Start.IsZero() && !p.End.IsZero() && p.End.After(p.Start)
}

func (p Period) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// Overlaps uses strict half-open semantics: touching windows do not overlap.
func (p Period) Overlaps(o Period) bool {
	return p.Start.Before(o.End) && p.End.After(o.Start)
}
