package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TaxDisplayMode string

const (
	TaxDisplayExclusive TaxDisplayMode = "exclusive"
	TaxDisplayInclusive TaxDisplayMode = "inclusive"
)

type TaxConfig struct {
	Enabled     bool            `json:"enabled"`
	DefaultRate decimal.Decimal `json:"defaultRate"`
	DisplayMode TaxDisplayMode  `json:"displayMode"`
}

// DaySchedule times are "HH:MM" in the store timezone; "24:00" closes at midnight.
type DaySchedule struct {
	IsOpen    bool   `json:"isOpen"`
	OpenTime  string `json:"openTime"`
	CloseTime string `json:"closeTime"`
}

// ClosurePeriod covers whole days, both ends inclusive, formatted "2006-01-02".
type ClosurePeriod struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Reason    string `json:"reason,omitempty"`
}

type BusinessHours struct {
	Enabled        bool            `json:"enabled"`
	Days           [7]DaySchedule  `json:"days"` // indexed by time.Weekday
	ClosurePeriods []ClosurePeriod `json:"closurePeriods,omitempty"`
}

type StoreSettings struct {
	PricingMode               PricingMode   `json:"pricingMode"`
	BusinessHours             BusinessHours `json:"businessHours"`
	AdvanceNoticeMinutes      int           `json:"advanceNoticeMinutes"`
	MinRentalMinutes          *int          `json:"minRentalMinutes,omitempty"`
	MaxRentalMinutes          *int          `json:"maxRentalMinutes,omitempty"`
	PendingBlocksAvailability bool          `json:"pendingBlocksAvailability"`
	Tax                       TaxConfig     `json:"tax"`
}

type Store struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey"`
	Slug      string        `gorm:"size:140;uniqueIndex"`
	Name      string        `gorm:"size:180"`
	Timezone  string        `gorm:"size:64;default:'UTC'"`
	Settings  StoreSettings `gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location resolves the store timezone, falling back to UTC for unknown names.
// Callers that accept store input should reject those names through CheckTimezone.
func (s *Store) Location() *time.Location {
	loc, err := s.loadLocation()
	if err != nil {
		return time.UTC
	}
	return loc
}

// CheckTimezone fails when Timezone is set but is not a known IANA zone.
func (s *Store) CheckTimezone() error {
	_, err := s.loadLocation()
	return err
}

func (s *Store) loadLocation() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}
