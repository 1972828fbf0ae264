// Package policy validates a requested rental window against a store's temporal rules:
// business hours and closures, advance notice, and minimum / maximum duration.
//
// Every check is independent and yields at most one warning. Validate collects all of
// them; whether a warning blocks a booking is decided by the caller.
package policy

import (
	"time"

	"github.com/phenrril/alquileres/internal/domain"
)

// Validate returns the warnings for [start, end) under settings. loc is the store
// timezone used for day and time-of-day comparisons.
func Validate(start, end time.Time, s domain.StoreSettings, loc *time.Location, now time.Time) []domain.Warning {
	var out []domain.Warning
	if w := CheckBusinessHours(start, end, s.BusinessHours, loc); w != nil {
		out = append(out, *w)
	}
	if w := CheckAdvanceNotice(start, now, s.AdvanceNoticeMinutes); w != nil {
		out = append(out, *w)
	}
	if w := CheckMinDuration(start, end, MinRentalMinutes(s)); w != nil {
		out = append(out, *w)
	}
	if w := CheckMaxDuration(start, end, s.MaxRentalMinutes); w != nil {
		out = append(out, *w)
	}
	return out
}

// MinRentalMinutes is the store override when set, otherwise one unit of the store pricing mode.
func MinRentalMinutes(s domain.StoreSettings) int {
	if s.MinRentalMinutes != nil {
		return *s.MinRentalMinutes
	}
	return s.PricingMode.Minutes()
}

func CheckAdvanceNotice(start, now time.Time, minutes int) *domain.Warning {
	if minutes <= 0 {
		return nil
	}
	earliest := now.Add(time.Duration(minutes) * time.Minute)
	if !start.Before(earliest) {
		return nil
	}
	return &domain.Warning{
		Code: domain.WarningAdvanceNotice,
		Key:  "policy.advance_notice",
		Params: map[string]any{
			"minutes":       minutes,
			"earliestStart": earliest.UTC().Format(time.RFC3339),
		},
	}
}

func CheckMinDuration(start, end time.Time, minutes int) *domain.Warning {
	if minutes <= 0 {
		return nil
	}
	if end.Sub(start) >= time.Duration(minutes)*time.Minute {
		return nil
	}
	return &domain.Warning{
		Code: domain.WarningMinDuration,
		Key:  "policy.min_duration",
		Params: map[string]any{
			"minutes":          minutes,
			"requestedMinutes": int(end.Sub(start) / time.Minute),
		},
	}
}

func CheckMaxDuration(start, end time.Time, maxMinutes *int) *domain.Warning {
	if maxMinutes == nil {
		return nil
	}
	if end.Sub(start) <= time.Duration(*maxMinutes)*time.Minute {
		return nil
	}
	return &domain.Warning{
		Code: domain.WarningMaxDuration,
		Key:  "policy.max_duration",
		Params: map[string]any{
			"minutes":          *maxMinutes,
			"requestedMinutes": int(end.Sub(start) / time.Minute),
		},
	}
}
