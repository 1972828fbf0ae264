package policy

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/phenrril/alquileres/internal/domain"
)

// Reasons attached to business_hours warnings.
const (
	ReasonClosurePeriod = "closure_period"
	ReasonClosedDay     = "closed_day"
	ReasonOutsideHours  = "outside_hours"
)

// CheckBusinessHours checks the pickup (start) and return (end) instants in the store
// timezone. Days strictly between them are not inspected.
func CheckBusinessHours(start, end time.Time, bh domain.BusinessHours, loc *time.Location) *domain.Warning {
	if !bh.Enabled {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	boundaries := []struct {
		name string
		at   time.Time
	}{
		{"start", start},
		{"end", end},
	}
	for _, b := range boundaries {
		local := b.at.In(loc)
		if b.name == "end" && closesAtMidnightBefore(local, bh) {
			continue
		}
		reason, params := checkInstant(local, bh)
		if reason == "" {
			continue
		}
		params["boundary"] = b.name
		params["reason"] = reason
		params["date"] = local.Format("2006-01-02")
		params["time"] = local.Format("15:04")
		params["weekday"] = strings.ToLower(local.Weekday().String())
		return &domain.Warning{
			Code:   domain.WarningBusinessHours,
			Key:    "policy.business_hours." + reason,
			Params: params,
		}
	}
	return nil
}

func checkInstant(local time.Time, bh domain.BusinessHours) (string, map[string]any) {
	if cp := closureOn(local, bh); cp != nil {
		return ReasonClosurePeriod, map[string]any{
			"closureStart":  cp.StartDate,
			"closureEnd":    cp.EndDate,
			"closureReason": cp.Reason,
		}
	}

	day := bh.Days[local.Weekday()]
	if !day.IsOpen {
		return ReasonClosedDay, map[string]any{}
	}
	open, errOpen := parseClock(day.OpenTime)
	closing, errClose := parseClock(day.CloseTime)
	if errOpen != nil || errClose != nil || closing < open {
		return ReasonClosedDay, map[string]any{}
	}
	tod := local.Hour()*3600 + local.Minute()*60 + local.Second()
	if tod < open || tod > closing {
		return ReasonOutsideHours, map[string]any{
			"openTime":  day.OpenTime,
			"closeTime": day.CloseTime,
		}
	}
	return "", nil
}

// closesAtMidnightBefore reports whether local is exactly 00:00 and the previous day is
// open until "24:00". A return at that instant belongs to the previous day.
func closesAtMidnightBefore(local time.Time, bh domain.BusinessHours) bool {
	if local.Hour() != 0 || local.Minute() != 0 || local.Second() != 0 || local.Nanosecond() != 0 {
		return false
	}
	prev := local.AddDate(0, 0, -1)
	if closureOn(prev, bh) != nil {
		return false
	}
	day := bh.Days[prev.Weekday()]
	if !day.IsOpen {
		return false
	}
	open, errOpen := parseClock(day.OpenTime)
	closing, errClose := parseClock(day.CloseTime)
	return errOpen == nil && errClose == nil && open <= closing && closing == 24*3600
}

func closureOn(local time.Time, bh domain.BusinessHours) *domain.ClosurePeriod {
	date := local.Format("2006-01-02")
	for i, cp := range bh.ClosurePeriods {
		if date >= strings.TrimSpace(cp.StartDate) && date <= strings.TrimSpace(cp.EndDate) {
			return &bh.ClosurePeriods[i]
		}
	}
	return nil
}

// parseClock turns "HH:MM" into seconds after midnight. "24:00" is accepted as end of day.
func parseClock(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	hh, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	mm, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	if hh < 0 || mm < 0 || mm > 59 || hh > 24 || (hh == 24 && mm != 0) {
		return 0, fmt.Errorf("time out of range %q", s)
	}
	return hh*3600 + mm*60, nil
}
