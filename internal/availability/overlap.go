// Package availability turns products and overlapping reservations into per-combination
// stock figures, and picks a bookable combination for a partial attribute selection.
//
// The package is pure: callers load reservations and products and pass them in.
package availability

import (
	"github.com/google/uuid"

	"github.com/phenrril/alquileres/internal/domain"
)

// Bucket identifies the stock pool an item counts against.
type Bucket struct {
	ProductID      uuid.UUID
	CombinationKey string
}

// BlockingStatuses lists the reservation statuses that hold stock. Pending reservations
// hold it only when the store says so.
func BlockingStatuses(pendingBlocks bool) []domain.ReservationStatus {
	out := []domain.ReservationStatus{domain.ReservationStatusConfirmed, domain.ReservationStatusOngoing}
	if pendingBlocks {
		out = append(out, domain.ReservationStatusPending)
	}
	return out
}

// ReservedByCombination sums item quantities of blocking reservations overlapping window,
// for the given products. Items without a product are ad-hoc lines and never count.
func ReservedByCombination(productIDs []uuid.UUID, window domain.Period, reservations []domain.Reservation, blocking []domain.ReservationStatus) map[Bucket]int {
	wanted := make(map[uuid.UUID]struct{}, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = struct{}{}
	}
	blocks := make(map[domain.ReservationStatus]struct{}, len(blocking))
	for _, s := range blocking {
		blocks[s] = struct{}{}
	}

	out := make(map[Bucket]int)
	for i := range reservations {
		r := &reservations[i]
		if _, ok := blocks[r.Status]; !ok {
			continue
		}
		if !r.Period().Overlaps(window) {
			continue
		}
		for _, it := range r.Items {
			if it.ProductID == nil || it.Quantity <= 0 {
				continue
			}
			if _, ok := wanted[*it.ProductID]; !ok {
				continue
			}
			out[Bucket{ProductID: *it.ProductID, CombinationKey: it.Key()}] += it.Quantity
		}
	}
	return out
}
