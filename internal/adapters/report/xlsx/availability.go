// Package xlsx renders availability snapshots as spreadsheets for store staff.
package xlsx

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/phenrril/alquileres/internal/domain"
	"github.com/phenrril/alquileres/internal/i18n"
)

const (
	SheetAvailability = "Disponibilidad"
	SheetWarnings     = "Avisos"
)

var header = []any{"Producto", "Combinación", "Total", "Reservado", "Disponible", "Estado"}

// WriteAvailability writes one row per product followed by one row per combination.
// names maps product ids to display names; unknown ids fall back to the id.
func WriteAvailability(w io.Writer, store *domain.Store, names map[uuid.UUID]string, resp *domain.AvailabilityResponse) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetAvailability); err != nil {
		return err
	}
	loc := store.Location()
	title := fmt.Sprintf("%s: %s a %s", store.Name,
		resp.Period.Start.In(loc).Format("2006-01-02 15:04"),
		resp.Period.End.In(loc).Format("2006-01-02 15:04"))
	if err := f.SetCellValue(SheetAvailability, "A1", title); err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetAvailability, "A3", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	_ = f.SetCellStyle(SheetAvailability, "A1", "A1", bold)
	_ = f.SetCellStyle(SheetAvailability, "A3", "F3", bold)
	_ = f.SetColWidth(SheetAvailability, "A", "B", 32)

	row := 4
	for _, p := range resp.Products {
		name, ok := names[p.ProductID]
		if !ok {
			name = p.ProductID.String()
		}
		if err := writeRow(f, row, name, "", p.TotalQuantity, p.ReservedQuantity, p.AvailableQuantity, p.Status); err != nil {
			return err
		}
		_ = f.SetCellStyle(SheetAvailability, cell(1, row), cell(1, row), bold)
		row++
		for _, c := range p.Combinations {
			if err := writeRow(f, row, "", c.CombinationKey, c.TotalQuantity, c.ReservedQuantity, c.AvailableQuantity, c.Status); err != nil {
				return err
			}
			row++
		}
	}

	if len(resp.Warnings) > 0 {
		if _, err := f.NewSheet(SheetWarnings); err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetWarnings, "A1", &[]any{"Código", "Detalle"}); err != nil {
			return err
		}
		for i, wr := range resp.Warnings {
			vals := []any{string(wr.Code), i18n.Format(i18n.LangES, wr.Key, wr.Params)}
			if err := f.SetSheetRow(SheetWarnings, cell(1, i+2), &vals); err != nil {
				return err
			}
		}
		_ = f.SetColWidth(SheetWarnings, "B", "B", 80)
	}

	_ = f.SetDocProps(&excelize.DocProperties{
		Title:   title,
		Creator: store.Name,
		Created: time.Now().UTC().Format(time.RFC3339),
	})
	_, err = f.WriteTo(w)
	return err
}

func writeRow(f *excelize.File, row int, product, combination string, total, reserved, available int, status domain.AvailabilityStatus) error {
	vals := []any{product, combination, total, reserved, available, statusLabel(status)}
	return f.SetSheetRow(SheetAvailability, cell(1, row), &vals)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func statusLabel(s domain.AvailabilityStatus) string {
	switch s {
	case domain.AvailabilityAvailable:
		return "disponible"
	case domain.AvailabilityLimited:
		return "limitado"
	default:
		return "sin stock"
	}
}
