package httpserver

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/phenrril/alquileres/internal/domain"
	"github.com/phenrril/alquileres/internal/i18n"
	"github.com/phenrril/alquileres/internal/usecase"
)

// Money is always rendered with two decimals, as a string so clients never round it.
func money(d decimal.Decimal) string { return d.StringFixed(2) }

func moneyPtr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.StringFixed(2)
	return &s
}

func instant(t time.Time) string { return t.Format(time.RFC3339) }

type periodDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func toPeriod(p domain.Period) periodDTO {
	return periodDTO{Start: instant(p.Start), End: instant(p.End)}
}

type warningDTO struct {
	Code    domain.WarningCode `json:"code"`
	Key     string             `json:"key"`
	Message string             `json:"message"`
	Params  map[string]any     `json:"params,omitempty"`
}

func warningsDTO(lang string, ws []domain.Warning) []warningDTO {
	if len(ws) == 0 {
		return nil
	}
	out := make([]warningDTO, 0, len(ws))
	for _, w := range ws {
		out = append(out, warningDTO{Code: w.Code, Key: w.Key, Message: i18n.Format(lang, w.Key, w.Params), Params: w.Params})
	}
	return out
}

type validationDTO struct {
	Valid   bool        `json:"valid"`
	Warning *warningDTO `json:"warning,omitempty"`
}

func toValidation(lang string, v *domain.ValidationResult) *validationDTO {
	if v == nil {
		return nil
	}
	out := &validationDTO{Valid: v.Valid}
	if v.Warning != nil {
		out.Warning = &warningsDTO(lang, []domain.Warning{*v.Warning})[0]
	}
	return out
}

type availabilityDTO struct {
	Products                []domain.ProductAvailability `json:"products"`
	Period                  periodDTO                    `json:"period"`
	BusinessHoursValidation *validationDTO               `json:"businessHoursValidation,omitempty"`
	AdvanceNoticeValidation *validationDTO               `json:"advanceNoticeValidation,omitempty"`
	Warnings                []warningDTO                 `json:"warnings"`
}

func toAvailability(lang string, resp *domain.AvailabilityResponse) availabilityDTO {
	out := availabilityDTO{
		Products:                resp.Products,
		Period:                  toPeriod(resp.Period),
		BusinessHoursValidation: toValidation(lang, resp.BusinessHoursValidation),
		AdvanceNoticeValidation: toValidation(lang, resp.AdvanceNoticeValidation),
		Warnings:                warningsDTO(lang, resp.Warnings),
	}
	if out.Products == nil {
		out.Products = []domain.ProductAvailability{}
	}
	if out.Warnings == nil {
		out.Warnings = []warningDTO{}
	}
	return out
}

type tierDTO struct {
	MinDuration     int    `json:"minDuration"`
	DiscountPercent string `json:"discountPercent"`
}

type quoteDTO struct {
	ProductID             uuid.UUID             `json:"productId"`
	PricingMode           domain.PricingMode    `json:"pricingMode"`
	Period                periodDTO             `json:"period"`
	Duration              int                   `json:"duration"`
	Quantity              int                   `json:"quantity"`
	Subtotal              string                `json:"subtotal"`
	Deposit               string                `json:"deposit"`
	Total                 string                `json:"total"`
	EffectivePricePerUnit string                `json:"effectivePricePerUnit"`
	DiscountPercent       string                `json:"discountPercent"`
	TierApplied           *tierDTO              `json:"tierApplied,omitempty"`
	Savings               string                `json:"savings"`
	SubtotalExclTax       string                `json:"subtotalExclTax"`
	SubtotalInclTax       string                `json:"subtotalInclTax"`
	SubtotalTax           string                `json:"subtotalTax"`
	TotalExclTax          string                `json:"totalExclTax"`
	TotalInclTax          string                `json:"totalInclTax"`
	TotalTax              string                `json:"totalTax"`
	TaxRate               *string               `json:"taxRate"`
	DisplayMode           domain.TaxDisplayMode `json:"displayMode"`
}

func toQuote(q *usecase.Quote) quoteDTO {
	out := quoteDTO{
		ProductID:             q.ProductID,
		PricingMode:           q.PricingMode,
		Period:                toPeriod(q.Period),
		Duration:              q.Duration,
		Quantity:              q.Quantity,
		Subtotal:              money(q.Subtotal),
		Deposit:               money(q.Deposit),
		Total:                 money(q.Total),
		EffectivePricePerUnit: money(q.EffectivePricePerUnit),
		DiscountPercent:       money(q.DiscountPercent),
		Savings:               money(q.Savings),
		SubtotalExclTax:       money(q.SubtotalExclTax),
		SubtotalInclTax:       money(q.SubtotalInclTax),
		SubtotalTax:           money(q.SubtotalTax),
		TotalExclTax:          money(q.TotalExclTax),
		TotalInclTax:          money(q.TotalInclTax),
		TotalTax:              money(q.TotalTax),
		TaxRate:               moneyPtr(q.TaxRate),
		DisplayMode:           q.DisplayMode,
	}
	if q.TierApplied != nil {
		out.TierApplied = &tierDTO{MinDuration: q.TierApplied.MinDuration, DiscountPercent: money(q.TierApplied.DiscountPercent)}
	}
	return out
}

type reservationItemDTO struct {
	ID                 uuid.UUID         `json:"id"`
	ProductID          *uuid.UUID        `json:"productId,omitempty"`
	Description        string            `json:"description,omitempty"`
	Quantity           int               `json:"quantity"`
	CombinationKey     *string           `json:"combinationKey,omitempty"`
	SelectedAttributes map[string]string `json:"selectedAttributes,omitempty"`
	UnitPrice          string            `json:"unitPrice"`
	Subtotal           string            `json:"subtotal"`
	Deposit            string            `json:"deposit"`
	TaxRate            *string           `json:"taxRate,omitempty"`
}

type reservationDTO struct {
	ID              uuid.UUID                `json:"id"`
	StoreID         uuid.UUID                `json:"storeId"`
	Number          string                   `json:"number"`
	Status          domain.ReservationStatus `json:"status"`
	Source          domain.BookingSource     `json:"source"`
	Period          periodDTO                `json:"period"`
	CustomerName    string                   `json:"customerName,omitempty"`
	CustomerEmail   string                   `json:"customerEmail,omitempty"`
	CustomerPhone   string                   `json:"customerPhone,omitempty"`
	Notes           string                   `json:"notes,omitempty"`
	Items           []reservationItemDTO     `json:"items"`
	SubtotalExclTax string                   `json:"subtotalExclTax"`
	TaxAmount       string                   `json:"taxAmount"`
	SubtotalInclTax string                   `json:"subtotalInclTax"`
	DepositTotal    string                   `json:"depositTotal"`
	Total           string                   `json:"total"`
	CreatedAt       string                   `json:"createdAt"`
	Warnings        []warningDTO             `json:"warnings,omitempty"`
}

func toReservation(r *domain.Reservation) reservationDTO {
	out := reservationDTO{
		ID:              r.ID,
		StoreID:         r.StoreID,
		Number:          r.Number,
		Status:          r.Status,
		Source:          r.Source,
		Period:          toPeriod(r.Period()),
		CustomerName:    r.CustomerName,
		CustomerEmail:   r.CustomerEmail,
		CustomerPhone:   r.CustomerPhone,
		Notes:           r.Notes,
		Items:           make([]reservationItemDTO, 0, len(r.Items)),
		SubtotalExclTax: money(r.SubtotalExclTax),
		TaxAmount:       money(r.TaxAmount),
		SubtotalInclTax: money(r.SubtotalInclTax),
		DepositTotal:    money(r.DepositTotal),
		Total:           money(r.Total),
		CreatedAt:       instant(r.CreatedAt),
	}
	for _, it := range r.Items {
		out.Items = append(out.Items, reservationItemDTO{
			ID:                 it.ID,
			ProductID:          it.ProductID,
			Description:        it.Description,
			Quantity:           it.Quantity,
			CombinationKey:     it.CombinationKey,
			SelectedAttributes: it.SelectedAttributes,
			UnitPrice:          money(it.UnitPrice),
			Subtotal:           money(it.Subtotal),
			Deposit:            money(it.Deposit),
			TaxRate:            moneyPtr(it.TaxRate),
		})
	}
	return out
}

type unitDTO struct {
	ID         uuid.UUID         `json:"id"`
	Identifier string            `json:"identifier"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Status     domain.UnitStatus `json:"status"`
}

func toUnit(u domain.ProductUnit) unitDTO {
	return unitDTO{ID: u.ID, Identifier: u.Identifier, Attributes: u.Attributes, Status: u.Status}
}

type productDTO struct {
	ID                   uuid.UUID              `json:"id"`
	StoreID              uuid.UUID              `json:"storeId"`
	Slug                 string                 `json:"slug"`
	Name                 string                 `json:"name"`
	Active               bool                   `json:"active"`
	TotalQuantity        int                    `json:"totalQuantity"`
	TrackUnits           bool                   `json:"trackUnits"`
	BookingAttributeAxes []domain.AttributeAxis `json:"bookingAttributeAxes,omitempty"`
	BasePrice            string                 `json:"basePrice"`
	PricingMode          *domain.PricingMode    `json:"pricingMode,omitempty"`
	PricingTiers         []tierDTO              `json:"pricingTiers,omitempty"`
	Deposit              string                 `json:"deposit"`
	TaxSettings          domain.TaxSettings     `json:"taxSettings"`
	Units                []unitDTO              `json:"units,omitempty"`
}

func toProduct(p *domain.Product) productDTO {
	out := productDTO{
		ID:                   p.ID,
		StoreID:              p.StoreID,
		Slug:                 p.Slug,
		Name:                 p.Name,
		Active:               p.Active,
		TotalQuantity:        p.TotalQuantity,
		TrackUnits:           p.TrackUnits,
		BookingAttributeAxes: p.BookingAttributeAxes,
		BasePrice:            money(p.BasePrice),
		PricingMode:          p.PricingMode,
		Deposit:              money(p.Deposit),
		TaxSettings:          p.TaxSettings,
	}
	for _, t := range p.PricingTiers {
		out.PricingTiers = append(out.PricingTiers, tierDTO{MinDuration: t.MinDuration, DiscountPercent: money(t.DiscountPercent)})
	}
	for _, u := range p.Units {
		out.Units = append(out.Units, toUnit(u))
	}
	return out
}

// Request bodies.

type combinationRequest struct {
	ProductID          uuid.UUID         `json:"productId"`
	Start              time.Time         `json:"start"`
	End                time.Time         `json:"end"`
	Quantity           int               `json:"quantity"`
	SelectedAttributes map[string]string `json:"selectedAttributes"`
}

type quoteRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Quantity  int       `json:"quantity"`
}

type bookingItemRequest struct {
	ProductID          *uuid.UUID        `json:"productId"`
	Description        string            `json:"description"`
	Quantity           int               `json:"quantity"`
	SelectedAttributes map[string]string `json:"selectedAttributes"`
	UnitPrice          decimal.Decimal   `json:"unitPrice"`
}

type bookingRequest struct {
	Source        domain.BookingSource `json:"source"`
	Start         time.Time            `json:"start"`
	End           time.Time            `json:"end"`
	CustomerName  string               `json:"customerName"`
	CustomerEmail string               `json:"customerEmail"`
	CustomerPhone string               `json:"customerPhone"`
	Notes         string               `json:"notes"`
	Items         []bookingItemRequest `json:"items"`
}

func (b bookingRequest) toUsecase(storeRef string) usecase.BookingRequest {
	req := usecase.BookingRequest{
		StoreRef:      storeRef,
		Source:        b.Source,
		Start:         b.Start,
		End:           b.End,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		CustomerPhone: b.CustomerPhone,
		Notes:         b.Notes,
		Items:         make([]usecase.BookingItemRequest, 0, len(b.Items)),
	}
	for _, it := range b.Items {
		req.Items = append(req.Items, usecase.BookingItemRequest{
			ProductID:          it.ProductID,
			Description:        it.Description,
			Quantity:           it.Quantity,
			SelectedAttributes: it.SelectedAttributes,
			UnitPrice:          it.UnitPrice,
		})
	}
	return req
}

type statusRequest struct {
	Status domain.ReservationStatus `json:"status"`
}

type unitRequest struct {
	Identifier string            `json:"identifier"`
	Attributes map[string]string `json:"attributes"`
	Status     domain.UnitStatus `json:"status"`
}

func (u unitRequest) toDomain() domain.ProductUnit {
	return domain.ProductUnit{Identifier: u.Identifier, Attributes: u.Attributes, Status: u.Status}
}

type tierRequest struct {
	MinDuration     int             `json:"minDuration"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
}

type productRequest struct {
	Name                 string                 `json:"name"`
	TotalQuantity        int                    `json:"totalQuantity"`
	TrackUnits           bool                   `json:"trackUnits"`
	BookingAttributeAxes []domain.AttributeAxis `json:"bookingAttributeAxes"`
	BasePrice            decimal.Decimal        `json:"basePrice"`
	PricingMode          *domain.PricingMode    `json:"pricingMode"`
	PricingTiers         []tierRequest          `json:"pricingTiers"`
	Deposit              decimal.Decimal        `json:"deposit"`
	TaxSettings          domain.TaxSettings     `json:"taxSettings"`
	Units                []unitRequest          `json:"units"`
}

func (p productRequest) toDomain(storeID uuid.UUID) *domain.Product {
	out := &domain.Product{
		StoreID:              storeID,
		Name:                 p.Name,
		TotalQuantity:        p.TotalQuantity,
		TrackUnits:           p.TrackUnits,
		BookingAttributeAxes: p.BookingAttributeAxes,
		BasePrice:            p.BasePrice,
		PricingMode:          p.PricingMode,
		Deposit:              p.Deposit,
		TaxSettings:          p.TaxSettings,
	}
	for _, t := range p.PricingTiers {
		out.PricingTiers = append(out.PricingTiers, domain.PricingTier{MinDuration: t.MinDuration, DiscountPercent: t.DiscountPercent})
	}
	for _, u := range p.Units {
		out.Units = append(out.Units, u.toDomain())
	}
	return out
}
