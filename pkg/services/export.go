package services

import (
	"github.com/verdantmetrics/lca-engine/pkg/models"
)

// ExportRow is one flattened Stage x Input x Impact line for spreadsheet
// export.
type ExportRow struct {
	Stage          string  `json:"stage"`
	Input          string  `json:"input"`
	Impact         string  `json:"impact"`
	FunctionalUnit string  `json:"functional_unit"`
	Quantity       float64 `json:"quantity"`
	ImpactFactor   float64 `json:"impact_factor"`
	ImpactUnit     string  `json:"impact_unit"`
}

// ExportHeader is the column order for tabular export.
var ExportHeader = []string{
	"Stage", "Input", "Impact", "Functional Unit", "Quantity", "Impact Factor", "Impact Unit",
}

// ExportRows flattens a document into export rows in stage insertion order.
func ExportRows(doc *models.Document) []ExportRow {
	var rows []ExportRow
	for _, stage := range doc.OrderedStages() {
		for _, input := range stage.Inputs {
			for _, impact := range input.Impacts {
				rows = append(rows, ExportRow{
					Stage:          stage.Name,
					Input:          input.Name,
					Impact:         impact.Name,
					FunctionalUnit: input.FunctionalUnit,
					Quantity:       input.Quantity,
					ImpactFactor:   impact.Quantity,
					ImpactUnit:     impact.FunctionalUnit,
				})
			}
		}
	}
	return rows
}
