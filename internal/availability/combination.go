package availability

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/phenrril/alquileres/internal/domain"
)

// collationTag fixes the order of attribute values that are not declared on an axis.
var collationTag = language.Spanish

// ResolveCombination picks the combination of p to book for a partial selection.
//
// Combinations carrying every selected key/value with at least qty available are
// candidates; the first in canonical order wins. Untracked products resolve to the
// default key.
func ResolveCombination(p *domain.Product, qty int, selected map[string]string, avail domain.ProductAvailability) (domain.CombinationResolution, error) {
	if qty < 1 {
		return domain.CombinationResolution{}, domain.ErrInvalidQuantity
	}
	if !p.TrackUnits {
		if avail.AvailableQuantity < qty {
			return domain.CombinationResolution{}, domain.NoMatchingCombination(p.ID.String(), qty, selected)
		}
		return domain.CombinationResolution{
			CombinationKey:     domain.DefaultCombinationKey,
			SelectedAttributes: map[string]string{},
			AvailableQuantity:  avail.AvailableQuantity,
		}, nil
	}

	candidates := MatchingCombinations(p, qty, selected, avail)
	if len(candidates) == 0 {
		return domain.CombinationResolution{}, domain.NoMatchingCombination(p.ID.String(), qty, selected)
	}
	best := candidates[0]
	attrs := make(map[string]string, len(best.Attributes))
	for k, v := range best.Attributes {
		attrs[k] = v
	}
	return domain.CombinationResolution{
		CombinationKey:     best.CombinationKey,
		SelectedAttributes: attrs,
		AvailableQuantity:  best.AvailableQuantity,
	}, nil
}

// MatchingCombinations lists, in canonical order, the combinations of a tracked product
// that carry every selected key/value and have at least qty available. Raising qty can
// only shrink the result.
func MatchingCombinations(p *domain.Product, qty int, selected map[string]string, avail domain.ProductAvailability) []domain.CombinationAvailability {
	var out []domain.CombinationAvailability
	for _, c := range avail.Combinations {
		if c.AvailableQuantity < qty {
			continue
		}
		if !domain.MatchesAttributes(c.Attributes, selected) {
			continue
		}
		out = append(out, c)
	}
	SortCombinations(p, out)
	return out
}

// SortCombinations orders combos by their values' positions on p's declared axes.
// Undeclared values sort after declared ones, collated; missing values sort last.
// Ties fall back to the combination key.
func SortCombinations(p *domain.Product, combos []domain.CombinationAvailability) {
	col := collate.New(collationTag)
	sort.SliceStable(combos, func(i, j int) bool {
		a, b := combos[i], combos[j]
		for _, axis := range p.BookingAttributeAxes {
			if c := compareAxisValue(col, axis, a.Attributes[axis.Name], b.Attributes[axis.Name]); c != 0 {
				return c < 0
			}
		}
		return a.CombinationKey < b.CombinationKey
	})
}

const (
	rankDeclared = iota
	rankUndeclared
	rankMissing
)

func axisRank(axis domain.AttributeAxis, v string) (rank, pos int) {
	if v == "" {
		return rankMissing, 0
	}
	for i, known := range axis.Values {
		if known == v {
			return rankDeclared, i
		}
	}
	return rankUndeclared, 0
}

func compareAxisValue(col *collate.Collator, axis domain.AttributeAxis, a, b string) int {
	ra, pa := axisRank(axis, a)
	rb, pb := axisRank(axis, b)
	switch {
	case ra != rb:
		return ra - rb
	case ra == rankDeclared:
		return pa - pb
	case ra == rankUndeclared:
		return col.CompareString(a, b)
	default:
		return 0
	}
}
