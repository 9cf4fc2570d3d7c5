package services

import (
	"github.com/verdantmetrics/lca-engine/pkg/models"
)

// MaterialRow is one material/quantity line in a quick assessment.
type MaterialRow struct {
	Material string  `json:"material"`
	Quantity float64 `json:"quantity"`
}

// QuickResult is one assessed row: the input figures plus the derived
// emissions (kg CO2e) and water use (liters).
type QuickResult struct {
	Material  string  `json:"material"`
	Quantity  float64 `json:"quantity"`
	Emissions float64 `json:"emissions"`
	WaterUse  float64 `json:"water_use"`
}

// QuickTotals sums the assessed rows.
type QuickTotals struct {
	Emissions float64 `json:"emissions"`
	WaterUse  float64 `json:"water_use"`
}

// QuickAssess applies the built-in factor table to a flat list of material
// rows. It is the fixed-factor special case of the full aggregation: each
// material carries one implicit emissions impact and one implicit water-use
// impact. Unrecognized materials assess to zero; nothing is persisted.
func QuickAssess(rows []MaterialRow) ([]QuickResult, QuickTotals) {
	results := make([]QuickResult, 0, len(rows))
	var totals QuickTotals

	for _, row := range rows {
		factors := models.BuiltinFactors.Lookup(row.Material)
		result := QuickResult{
			Material:  row.Material,
			Quantity:  row.Quantity,
			Emissions: row.Quantity * factors.Emissions,
			WaterUse:  row.Quantity * factors.WaterUse,
		}
		totals.Emissions += result.Emissions
		totals.WaterUse += result.WaterUse
		results = append(results, result)
	}

	return results, totals
}
