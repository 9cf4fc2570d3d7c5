package services

import (
	"github.com/verdantmetrics/lca-engine/pkg/models"
)

// Aggregate walks a document and produces per-impact totals.
//
// Every impact contributes input.Quantity * impact.Quantity to the total
// under its name. The first contribution for a name fixes that name's unit;
// later contributions in a different unit are skipped and reported as
// warnings rather than added - no unit conversion is attempted and the
// aggregation never aborts. Impact names are case-sensitive and
// string-exact. An empty document yields an empty report.
func Aggregate(doc *models.Document) (models.TotalsReport, []models.UnitMismatch) {
	report := make(models.TotalsReport)
	var warnings []models.UnitMismatch

	for _, stage := range doc.OrderedStages() {
		for _, input := range stage.Inputs {
			for _, impact := range input.Impacts {
				contribution := input.Quantity * impact.Quantity

				existing, seen := report[impact.Name]
				if !seen {
					report[impact.Name] = models.Total{
						Total: contribution,
						Unit:  impact.FunctionalUnit,
					}
					continue
				}

				if impact.FunctionalUnit != existing.Unit {
					warnings = append(warnings, models.UnitMismatch{
						Impact:   impact.Name,
						Expected: existing.Unit,
						Got:      impact.FunctionalUnit,
						Stage:    stage.Name,
						Input:    input.Name,
					})
					continue
				}

				existing.Total += contribution
				report[impact.Name] = existing
			}
		}
	}

	return report, warnings
}
