package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCombinationKey_Canonical(t *testing.T) {
	a := CombinationKey(map[string]string{"size": "M", "color": "red"})
	b := CombinationKey(map[string]string{"color": "red", "size": "M"})

	assert.Equal(t, a, b)
	assert.Equal(t, `{"color":"red","size":"M"}`, a)
}

func TestCombinationKey_EmptyIsDefault(t *testing.T) {
	assert.Equal(t, DefaultCombinationKey, CombinationKey(nil))
	assert.Equal(t, DefaultCombinationKey, CombinationKey(map[string]string{}))
	assert.Equal(t, DefaultCombinationKey, CombinationKey(map[string]string{" ": "x", "size": " "}))
}

func TestMatchesAttributes(t *testing.T) {
	attrs := map[string]string{"size": "M", "color": "red"}

	assert.True(t, MatchesAttributes(attrs, nil))
	assert.True(t, MatchesAttributes(attrs, map[string]string{"size": "M"}))
	assert.True(t, MatchesAttributes(attrs, map[string]string{"size": " M ", "color": "red"}))
	assert.False(t, MatchesAttributes(attrs, map[string]string{"size": "L"}))
	assert.False(t, MatchesAttributes(attrs, map[string]string{"material": "wool"}))
}

func TestPeriod_Overlaps(t *testing.T) {
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	p := func(fromH, toH int) Period {
		return Period{Start: base.Add(time.Duration(fromH) * time.Hour), End: base.Add(time.Duration(toH) * time.Hour)}
	}

	tests := []struct {
		name string
		a, b Period
		want bool
	}{
		{"same window", p(0, 2), p(0, 2), true},
		{"partial", p(0, 2), p(1, 3), true},
		{"contained", p(0, 5), p(1, 2), true},
		{"touching end to start", p(0, 2), p(2, 4), false},
		{"disjoint", p(0, 1), p(3, 4), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.a.Overlaps(tt.b), tt.b.Overlaps(tt.a), "overlap must be symmetric")
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, AvailabilityUnavailable, StatusFor(0, 5))
	assert.Equal(t, AvailabilityUnavailable, StatusFor(0, 0))
	assert.Equal(t, AvailabilityLimited, StatusFor(2, 5))
	assert.Equal(t, AvailabilityAvailable, StatusFor(5, 5))
}

func TestUnitStatus_Valid(t *testing.T) {
	assert.True(t, UnitStatusAvailable.Valid())
	assert.True(t, UnitStatusMaintenance.Valid())
	assert.True(t, UnitStatusRetired.Valid())
	assert.False(t, UnitStatus("rented").Valid())
	assert.False(t, UnitStatus("").Valid())
}

func TestReservationStatus_CanTransition(t *testing.T) {
	assert.True(t, ReservationStatusPending.CanTransition(ReservationStatusConfirmed))
	assert.True(t, ReservationStatusConfirmed.CanTransition(ReservationStatusOngoing))
	assert.True(t, ReservationStatusOngoing.CanTransition(ReservationStatusCompleted))
	assert.False(t, ReservationStatusCompleted.CanTransition(ReservationStatusPending))
	assert.False(t, ReservationStatusCancelled.CanTransition(ReservationStatusConfirmed))
	assert.False(t, ReservationStatusPending.CanTransition(ReservationStatusOngoing))
}

func TestFailure_IsKind(t *testing.T) {
	var err error = InsufficientAvailability("p1", 3, 1)

	assert.ErrorIs(t, err, ErrInsufficientAvailability)
	assert.NotErrorIs(t, err, ErrNoMatchingCombination)

	f, ok := AsFailure(err)
	assert.True(t, ok)
	assert.Equal(t, "insufficient_availability", f.Code)
	assert.Equal(t, "insufficient_availability (available=1, productId=p1, requested=3)", err.Error())
}

func TestProduct_EffectivePricingMode(t *testing.T) {
	week := PricingModeWeek
	p := Product{}
	assert.Equal(t, PricingModeHour, p.EffectivePricingMode(PricingModeHour))
	assert.Equal(t, PricingModeDay, p.EffectivePricingMode(""))

	p.PricingMode = &week
	assert.Equal(t, PricingModeWeek, p.EffectivePricingMode(PricingModeHour))
}

func TestStore_CheckTimezone(t *testing.T) {
	s := Store{}
	assert.NoError(t, s.CheckTimezone())
	assert.Equal(t, time.UTC, s.Location())

	s.Timezone = "Mars/Olympus"
	assert.Error(t, s.CheckTimezone())
	assert.Equal(t, time.UTC, s.Location())
}
