package menu

import (
	"log"
	"math"
	"strconv"

	"gate-catering-api/pkg/models"
)

// Chart geometry for the per-product comparison bars.
const (
	ChartHeightPx = 200
	BarWidthPx    = 60
	MinBarPx      = 6
)

// UnnamedProduct labels prediction rows that came back without a product.
const UnnamedProduct = "Unnamed"

// ResultRow is one line of the results list.
type ResultRow struct {
	Index     int    `json:"index"`
	Product   string `json:"product"`
	Suggested string `json:"suggested"` // "-" when the service gave no load
}

// Rows maps a prediction result onto list rows.
func Rows(result *models.PredictionResult) []ResultRow {
	if result == nil {
		return nil
	}
	rows := make([]ResultRow, 0, len(result.Predictions))
	for i, p := range result.Predictions {
		rows = append(rows, ResultRow{
			Index:     i,
			Product:   productLabel(p, i),
			Suggested: formatQuantity(p.SuggestedLoad),
		})
	}
	return rows
}

func productLabel(p models.PredictionItem, i int) string {
	if p.Product != "" {
		return p.Product
	}
	log.Printf("⚠️ [menu] prediction row %d has no product label", i)
	return UnnamedProduct
}

func formatQuantity(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func value(v *float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return 0
	}
	return *v
}

// Bar is one column of a chart.
type Bar struct {
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	HeightPx float64 `json:"height_px"`
	WidthPx  int     `json:"width_px"`
}

// Chart compares a product's simulated load against its history.
type Chart struct {
	Product  string `json:"product"`
	HeightPx int    `json:"height_px"`
	Bars     []Bar  `json:"bars"`
}

// BuildChart scales the Max, Avg and Simulated bars against the largest of
// the three (never below 1).
func BuildChart(p models.PredictionItem) Chart {
	suggested := value(p.SuggestedLoad)
	histAvg := value(p.HistAvg)
	histMax := value(p.HistMax)

	maxVal := math.Max(math.Max(suggested, histAvg), math.Max(histMax, 1))

	bar := func(label string, v float64) Bar {
		return Bar{
			Label:    label,
			Value:    v,
			HeightPx: math.Max(MinBarPx, v/maxVal*ChartHeightPx),
			WidthPx:  BarWidthPx,
		}
	}

	name := p.Product
	if name == "" {
		name = UnnamedProduct
	}
	return Chart{
		Product:  name,
		HeightPx: ChartHeightPx,
		Bars: []Bar{
			bar("Max", histMax),
			bar("Avg", histAvg),
			bar("Simulated", suggested),
		},
	}
}

// ComparisonRow lines up one product of the uploaded menu with the
// prediction for it.
type ComparisonRow struct {
	Product    string   `json:"product"`
	Uploaded   bool     `json:"uploaded"`
	Predicted  bool     `json:"predicted"`
	Suggested  *float64 `json:"suggested,omitempty"`
	HistAvg    *float64 `json:"hist_avg,omitempty"`
	HistMax    *float64 `json:"hist_max,omitempty"`
	DeltaVsAvg *float64 `json:"delta_vs_avg,omitempty"`
}

// Compare walks the uploaded menu in order, then appends predicted products
// that were not on it.
func Compare(uploaded []string, result *models.PredictionResult) []ComparisonRow {
	byName := make(map[string]models.PredictionItem)
	var extra []models.PredictionItem
	uploadedSet := make(map[string]bool, len(uploaded))
	for _, name := range uploaded {
		uploadedSet[name] = true
	}
	if result != nil {
		for _, p := range result.Predictions {
			if _, dup := byName[p.Product]; dup {
				continue
			}
			byName[p.Product] = p
			if !uploadedSet[p.Product] {
				extra = append(extra, p)
			}
		}
	}

	rows := make([]ComparisonRow, 0, len(uploaded)+len(extra))
	for _, name := range uploaded {
		row := ComparisonRow{Product: name, Uploaded: true}
		if p, ok := byName[name]; ok {
			fillPrediction(&row, p)
		}
		rows = append(rows, row)
	}
	for _, p := range extra {
		row := ComparisonRow{Product: productLabel(p, -1)}
		fillPrediction(&row, p)
		rows = append(rows, row)
	}
	return rows
}

func fillPrediction(row *ComparisonRow, p models.PredictionItem) {
	row.Predicted = true
	row.Suggested = p.SuggestedLoad
	row.HistAvg = p.HistAvg
	row.HistMax = p.HistMax
	if p.SuggestedLoad != nil && p.HistAvg != nil {
		d := *p.SuggestedLoad - *p.HistAvg
		row.DeltaVsAvg = &d
	}
}

// Totals are the derived figures shown next to the static KPI block.
type Totals struct {
	Products       int     `json:"products"`
	SuggestedTotal float64 `json:"suggested_total"`
	HistAvgTotal   float64 `json:"hist_avg_total"`
	PerPassenger   float64 `json:"per_passenger"`
	VsHistoryPct   float64 `json:"vs_history_pct"`
}

// Summarize derives totals from a result set for a given passenger count.
func Summarize(result *models.PredictionResult, passengers int) Totals {
	var t Totals
	if result == nil {
		return t
	}
	for _, p := range result.Predictions {
		t.Products++
		t.SuggestedTotal += value(p.SuggestedLoad)
		t.HistAvgTotal += value(p.HistAvg)
	}
	if passengers > 0 {
		t.PerPassenger = round2(t.SuggestedTotal / float64(passengers))
	}
	if t.HistAvgTotal > 0 {
		t.VsHistoryPct = round2((t.SuggestedTotal - t.HistAvgTotal) / t.HistAvgTotal * 100)
	}
	return t
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
