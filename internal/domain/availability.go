package domain

import "github.com/google/uuid"

type AvailabilityStatus string

const (
	AvailabilityAvailable   AvailabilityStatus = "available"
	AvailabilityLimited     AvailabilityStatus = "limited"
	AvailabilityUnavailable AvailabilityStatus = "unavailable"
)

// StatusFor derives the status shared by products and combinations.
func StatusFor(available, total int) AvailabilityStatus {
	switch {
	case available <= 0:
		return AvailabilityUnavailable
	case available < total:
		return AvailabilityLimited
	default:
		return AvailabilityAvailable
	}
}

type CombinationAvailability struct {
	CombinationKey    string             `json:"combinationKey"`
	Attributes        map[string]string  `json:"selectedAttributes"`
	TotalQuantity     int                `json:"totalQuantity"`
	ReservedQuantity  int                `json:"reservedQuantity"`
	AvailableQuantity int                `json:"availableQuantity"`
	Status            AvailabilityStatus `json:"status"`
}

type ProductAvailability struct {
	ProductID         uuid.UUID                 `json:"productId"`
	TotalQuantity     int                       `json:"totalQuantity"`
	ReservedQuantity  int                       `json:"reservedQuantity"`
	AvailableQuantity int                       `json:"availableQuantity"`
	Status            AvailabilityStatus        `json:"status"`
	Combinations      []CombinationAvailability `json:"combinations,omitempty"`
}

// ValidationResult reports one policy check in availability responses.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Warning *Warning `json:"warning,omitempty"`
}

type AvailabilityResponse struct {
	Products                []ProductAvailability `json:"products"`
	Period                  Period                `json:"period"`
	BusinessHoursValidation *ValidationResult     `json:"businessHoursValidation,omitempty"`
	AdvanceNoticeValidation *ValidationResult     `json:"advanceNoticeValidation,omitempty"`
	Warnings                []Warning             `json:"warnings,omitempty"`
}

type CombinationResolution struct {
	CombinationKey     string            `json:"combinationKey"`
	SelectedAttributes map[string]string `json:"selectedAttributes"`
	AvailableQuantity  int               `json:"availableQuantity"`
}
