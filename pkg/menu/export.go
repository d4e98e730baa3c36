package menu

import (
	"bytes"
	"fmt"

	"gate-catering-api/pkg/models"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Suggested menu"

// ExportXLSX writes the suggested menu of a prediction to a workbook, one
// product per row under a header, flight details on a second sheet.
func ExportXLSX(flight *models.Flight, req models.PredictionRequest, result *models.PredictionResult) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{"Product", "Suggested load", "Historical avg", "Historical max"}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	if result != nil {
		for i, p := range result.Predictions {
			axis, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return nil, err
			}
			row := []interface{}{productLabel(p, i), cellValue(p.SuggestedLoad), cellValue(p.HistAvg), cellValue(p.HistMax)}
			if err := f.SetSheetRow(exportSheet, axis, &row); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
			}
		}
	}

	const infoSheet = "Flight"
	if _, err := f.NewSheet(infoSheet); err != nil {
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}
	info := [][]interface{}{
		{"Buffer %", req.BufferPct},
		{"Origin", req.Origin},
		{"Flight type", req.FlightType},
		{"Service type", req.ServiceType},
		{"Passengers", req.PassengerCount},
	}
	if flight != nil {
		info = append([][]interface{}{
			{"Flight", flight.FlightNumber},
			{"Airline", flight.Airline},
			{"Route", flight.Origin + " - " + flight.Destination},
		}, info...)
	}
	for i, row := range info {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		r := row
		if err := f.SetSheetRow(infoSheet, axis, &r); err != nil {
			return nil, fmt.Errorf("failed to write flight info: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf, nil
}

func cellValue(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
