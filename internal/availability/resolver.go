package availability

import (
	"github.com/phenrril/alquileres/internal/domain"
)

// Resolve computes the availability of p given the reserved quantities per bucket.
//
// Untracked products draw from TotalQuantity under the default key. Tracked products
// count live units per combination; combinations without live units are not reported.
func Resolve(p *domain.Product, reserved map[Bucket]int) domain.ProductAvailability {
	if !p.TrackUnits {
		r := reserved[Bucket{ProductID: p.ID, CombinationKey: domain.DefaultCombinationKey}]
		available := nonNegative(p.TotalQuantity - r)
		return domain.ProductAvailability{
			ProductID:         p.ID,
			TotalQuantity:     p.TotalQuantity,
			ReservedQuantity:  r,
			AvailableQuantity: available,
			Status:            domain.StatusFor(available, p.TotalQuantity),
		}
	}

	byKey := make(map[string]*domain.CombinationAvailability)
	var order []string
	for _, u := range p.Units {
		if !u.Live() {
			continue
		}
		key := domain.CombinationKey(u.Attributes)
		c, ok := byKey[key]
		if !ok {
			c = &domain.CombinationAvailability{
				CombinationKey: key,
				Attributes:     domain.NormalizeAttributes(u.Attributes),
			}
			byKey[key] = c
			order = append(order, key)
		}
		c.TotalQuantity++
	}

	out := domain.ProductAvailability{ProductID: p.ID}
	combos := make([]domain.CombinationAvailability, 0, len(order))
	for _, key := range order {
		c := byKey[key]
		c.ReservedQuantity = reserved[Bucket{ProductID: p.ID, CombinationKey: key}]
		c.AvailableQuantity = nonNegative(c.TotalQuantity - c.ReservedQuantity)
		c.Status = domain.StatusFor(c.AvailableQuantity, c.TotalQuantity)

		out.TotalQuantity += c.TotalQuantity
		out.ReservedQuantity += c.ReservedQuantity
		out.AvailableQuantity += c.AvailableQuantity
		combos = append(combos, *c)
	}
	SortCombinations(p, combos)
	out.Combinations = combos
	out.Status = domain.StatusFor(out.AvailableQuantity, out.TotalQuantity)
	return out
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
