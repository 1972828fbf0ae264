package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrInvalidPeriod           = errors.New("invalid period")
	ErrInvalidQuantity         = errors.New("invalid quantity")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrInvalidAttributes       = errors.New("invalid attributes")
	ErrInvalidItem             = errors.New("invalid item")
	// ErrAvailabilityConflict means a concurrent booking consumed the stock between the
	// availability check and the write. Callers should retry.
	ErrAvailabilityConflict = errors.New("availability conflict")
)

// Failure kinds. errors.Is(err, ErrPolicyViolation) matches any Failure of that kind.
var (
	ErrPolicyViolation          = errors.New("policy violation")
	ErrInsufficientAvailability = errors.New("insufficient availability")
	ErrNoMatchingCombination    = errors.New("no matching combination")
	ErrInvalidTierConfiguration = errors.New("invalid tier configuration")
)

type WarningCode string

const (
	WarningBusinessHours WarningCode = "business_hours"
	WarningAdvanceNotice WarningCode = "advance_notice"
	WarningMinDuration   WarningCode = "min_duration"
	WarningMaxDuration   WarningCode = "max_duration"
)

// Warning is one failed temporal policy check. Key is a message catalog key and Params
// carries the values needed to format it.
type Warning struct {
	Code   WarningCode    `json:"code"`
	Key    string         `json:"key"`
	Params map[string]any `json:"params,omitempty"`
}

// Failure is a typed engine error with a stable code and localization parameters.
type Failure struct {
	Kind     error          `json:"-"`
	Code     string         `json:"code"`
	Key      string         `json:"key"`
	Params   map[string]any `json:"params,omitempty"`
	Warnings []Warning      `json:"warnings,omitempty"`
}

func (f *Failure) Error() string {
	if len(f.Params) == 0 {
		return f.Code
	}
	keys := make([]string, 0, len(f.Params))
	for k := range f.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, f.Params[k]))
	}
	return f.Code + " (" + strings.Join(parts, ", ") + ")"
}

func (f *Failure) Unwrap() error { return f.Kind }

func PolicyViolation(warnings []Warning) *Failure {
	codes := make([]string, 0, len(warnings))
	for _, w := range warnings {
		codes = append(codes, string(w.Code))
	}
	return &Failure{
		Kind:     ErrPolicyViolation,
		Code:     "policy_violation",
		Key:      "errors.policy_violation",
		Params:   map[string]any{"checks": strings.Join(codes, ",")},
		Warnings: warnings,
	}
}

func InsufficientAvailability(productID string, requested, available int) *Failure {
	return &Failure{
		Kind: ErrInsufficientAvailability,
		Code: "insufficient_availability",
		Key:  "errors.insufficient_availability",
		Params: map[string]any{
			"productId": productID,
			"requested": requested,
			"available": available,
		},
	}
}

func NoMatchingCombination(productID string, requested int, selected map[string]string) *Failure {
	return &Failure{
		Kind: ErrNoMatchingCombination,
		Code: "no_matching_combination",
		Key:  "errors.product_no_longer_available",
		Params: map[string]any{
			"productId":          productID,
			"requested":          requested,
			"selectedAttributes": CombinationKey(selected),
		},
	}
}

func InvalidTierConfiguration(reason string, index int) *Failure {
	return &Failure{
		Kind:   ErrInvalidTierConfiguration,
		Code:   "invalid_tier_configuration",
		Key:    "errors.invalid_tier_configuration",
		Params: map[string]any{"reason": reason, "index": index},
	}
}

// AsFailure unwraps err into a *Failure when it is one.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
