package pricing

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/phenrril/alquileres/internal/domain"
)

var maxDiscountPercent = decimal.NewFromInt(99)

// ValidateTiers rejects tier lists that cannot be priced: non-positive thresholds,
// discounts outside [0, 99] and repeated thresholds. Product saves call it; the
// calculator only uses it to fall back to "no tiers".
func ValidateTiers(tiers []domain.PricingTier) error {
	seen := make(map[int]struct{}, len(tiers))
	for i, t := range tiers {
		if t.MinDuration < 1 {
			return domain.InvalidTierConfiguration("min_duration_not_positive", i)
		}
		if t.DiscountPercent.IsNegative() || t.DiscountPercent.GreaterThan(maxDiscountPercent) {
			return domain.InvalidTierConfiguration("discount_out_of_range", i)
		}
		if _, dup := seen[t.MinDuration]; dup {
			return domain.InvalidTierConfiguration("duplicate_min_duration", i)
		}
		seen[t.MinDuration] = struct{}{}
	}
	return nil
}

// ParseTiers decodes a JSON tier list and validates it.
func ParseTiers(raw []byte) ([]domain.PricingTier, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var tiers []domain.PricingTier
	if err := json.Unmarshal(raw, &tiers); err != nil {
		return nil, domain.InvalidTierConfiguration("unparseable", -1)
	}
	if err := ValidateTiers(tiers); err != nil {
		return nil, err
	}
	return SortTiers(tiers), nil
}

// SortTiers returns a copy ordered by ascending MinDuration.
func SortTiers(tiers []domain.PricingTier) []domain.PricingTier {
	out := make([]domain.PricingTier, len(tiers))
	copy(out, tiers)
	sort.SliceStable(out, func(i, j int) bool { return out[i].MinDuration < out[j].MinDuration })
	return out
}

// SelectTier returns the tier with the largest MinDuration not above duration, or nil.
// An invalid list applies no tier.
func SelectTier(tiers []domain.PricingTier, duration int) *domain.PricingTier {
	if len(tiers) == 0 || ValidateTiers(tiers) != nil {
		return nil
	}
	var picked *domain.PricingTier
	for _, t := range SortTiers(tiers) {
		if t.MinDuration > duration {
			break
		}
		t := t
		picked = &t
	}
	return picked
}
