package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PricingMode string

const (
	PricingModeHour PricingMode = "hour"
	PricingModeDay  PricingMode = "day"
	PricingModeWeek PricingMode = "week"
)

// Minutes returns the length of one pricing unit.
func (m PricingMode) Minutes() int {
	switch m {
	case PricingModeHour:
		return 60
	case PricingModeWeek:
		return 7 * 24 * 60
	default:
		return 24 * 60
	}
}

func (m PricingMode) Valid() bool {
	return m == PricingModeHour || m == PricingModeDay || m == PricingModeWeek
}

type UnitStatus string

const (
	UnitStatusAvailable   UnitStatus = "available"
	UnitStatusMaintenance UnitStatus = "maintenance"
	UnitStatusRetired     UnitStatus = "retired"
)

func (s UnitStatus) Valid() bool {
	return s == UnitStatusAvailable || s == UnitStatusMaintenance || s == UnitStatusRetired
}

// AttributeAxis is one bookable dimension of a tracked product, e.g. size: [S, M, L].
// The order of Values is the canonical order used when picking a combination.
type AttributeAxis struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// PricingTier applies DiscountPercent from MinDuration pricing units upwards.
type PricingTier struct {
	MinDuration     int             `json:"minDuration"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
}

type TaxSettings struct {
	InheritFromStore bool             `json:"inheritFromStore"`
	CustomRate       *decimal.Decimal `json:"customRate,omitempty"`
}

type Product struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primaryKey"`
	StoreID              uuid.UUID       `gorm:"type:uuid;index"`
	Slug                 string          `gorm:"size:140;index"`
	Name                 string          `gorm:"size:180"`
	Active               bool            `gorm:"default:true;index"`
	TotalQuantity        int             `gorm:"not null;default:0"`
	TrackUnits           bool            `gorm:"not null;default:false"`
	BookingAttributeAxes []AttributeAxis `gorm:"type:jsonb;serializer:json"`
	BasePrice            decimal.Decimal `gorm:"type:decimal(12,2)"`
	PricingMode          *PricingMode    `gorm:"type:varchar(10)"`
	PricingTiers         []PricingTier   `gorm:"type:jsonb;serializer:json"`
	Deposit              decimal.Decimal `gorm:"type:decimal(12,2);default:0"`
	TaxSettings          TaxSettings     `gorm:"type:jsonb;serializer:json"`
	Units                []ProductUnit
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// EffectivePricingMode falls back to the store mode when the product does not set one.
func (p *Product) EffectivePricingMode(store PricingMode) PricingMode {
	if p.PricingMode != nil && p.PricingMode.Valid() {
		return *p.PricingMode
	}
	if store.Valid() {
		return store
	}
	return PricingModeDay
}

// Axis returns the declared axis with the given name.
func (p *Product) Axis(name string) (AttributeAxis, bool) {
	for _, a := range p.BookingAttributeAxes {
		if a.Name == name {
			return a, true
		}
	}
	return AttributeAxis{}, false
}

type ProductUnit struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey"`
	ProductID  uuid.UUID         `gorm:"type:uuid;index"`
	Identifier string            `gorm:"size:120"`
	Attributes map[string]string `gorm:"type:jsonb;serializer:json"`
	Status     UnitStatus        `gorm:"type:varchar(20);index;default:'available'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (u ProductUnit) Live() bool {
	return u.Status == UnitStatusAvailable
}
