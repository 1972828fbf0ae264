// Package i18n holds the message catalog for policy warnings and API errors.
package i18n

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

const (
	LangES      = "es"
	LangEN      = "en"
	DefaultLang = LangES
)

var matcher = language.NewMatcher([]language.Tag{language.Spanish, language.English})

var catalog = map[string]map[string]string{
	LangES: {
		"policy.business_hours.closure_period": "El local está cerrado del {closureStart} al {closureEnd}.",
		"policy.business_hours.closed_day":     "El local no abre el {date}.",
		"policy.business_hours.outside_hours":  "El horario del {date} es de {openTime} a {closeTime}; {time} queda fuera.",
		"policy.advance_notice":                "Las reservas requieren {minutes} minutos de anticipación. Inicio más temprano: {earliestStart}.",
		"policy.min_duration":                  "La duración mínima es de {minutes} minutos (pedido: {requestedMinutes}).",
		"policy.max_duration":                  "La duración máxima es de {minutes} minutos (pedido: {requestedMinutes}).",

		"errors.policy_violation":            "La reserva no cumple las reglas del local.",
		"errors.insufficient_availability":   "Solo quedan {available} unidades disponibles (pedido: {requested}).",
		"errors.product_no_longer_available": "El producto ya no está disponible con las opciones elegidas.",
		"errors.invalid_tier_configuration":  "Los descuentos por duración no son válidos ({reason}).",
		"errors.availability_conflict":       "Otra reserva tomó el stock al mismo tiempo. Intentá de nuevo.",
		"errors.not_found":                   "No encontrado.",
		"errors.invalid_request":             "Solicitud inválida.",
		"errors.invalid_period":              "El período es inválido: el fin debe ser posterior al inicio.",
		"errors.invalid_quantity":            "La cantidad debe ser al menos 1.",
		"errors.invalid_attributes":          "Los atributos no corresponden a las opciones del producto.",
		"errors.invalid_status_transition":   "No se puede cambiar la reserva a ese estado.",
		"errors.unauthorized":                "No autorizado.",
		"errors.rate_limited":                "Demasiadas solicitudes. Esperá un momento.",
		"errors.internal":                    "Error interno.",
	},
	LangEN: {
		"policy.business_hours.closure_period": "The store is closed from {closureStart} to {closureEnd}.",
		"policy.business_hours.closed_day":     "The store does not open on {date}.",
		"policy.business_hours.outside_hours":  "Opening hours on {date} are {openTime} to {closeTime}; {time} is outside them.",
		"policy.advance_notice":                "Bookings need {minutes} minutes of notice. Earliest start: {earliestStart}.",
		"policy.min_duration":                  "Minimum rental is {minutes} minutes (requested: {requestedMinutes}).",
		"policy.max_duration":                  "Maximum rental is {minutes} minutes (requested: {requestedMinutes}).",

		"errors.policy_violation":            "The booking breaks the store rules.",
		"errors.insufficient_availability":   "Only {available} units left (requested: {requested}).",
		"errors.product_no_longer_available": "The product is no longer available with the selected options.",
		"errors.invalid_tier_configuration":  "Duration discounts are invalid ({reason}).",
		"errors.availability_conflict":       "Another booking took the stock at the same time. Please retry.",
		"errors.not_found":                   "Not found.",
		"errors.invalid_request":             "Invalid request.",
		"errors.invalid_period":              "Invalid period: end must be after start.",
		"errors.invalid_quantity":            "Quantity must be at least 1.",
		"errors.invalid_attributes":          "Attributes do not match the product options.",
		"errors.invalid_status_transition":   "The reservation cannot move to that status.",
		"errors.unauthorized":                "Unauthorized.",
		"errors.rate_limited":                "Too many requests. Slow down.",
		"errors.internal":                    "Internal error.",
	},
}

// T returns the message for key in lang, falling back to the default language and
// finally to the key itself.
func T(lang, key string) string {
	if msgs, ok := catalog[lang]; ok {
		if m, ok := msgs[key]; ok {
			return m
		}
	}
	if m, ok := catalog[DefaultLang][key]; ok {
		return m
	}
	return key
}

// Format renders key with {name} placeholders replaced by params.
func Format(lang, key string, params map[string]any) string {
	msg := T(lang, key)
	if len(params) == 0 {
		return msg
	}
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	pairs := make([]string, 0, 2*len(names))
	for _, k := range names {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(params[k]))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

// DetectLanguage picks es or en from an Accept-Language header.
func DetectLanguage(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return DefaultLang
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLang
	}
	if idx == 1 {
		return LangEN
	}
	return LangES
}

type ctxKey struct{}

func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

func LangFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	return DefaultLang
}
