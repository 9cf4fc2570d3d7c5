package models

// LegacyFlow is an input or output row under the legacy schema: name, unit,
// and quantity with no impact factors.
type LegacyFlow struct {
	Name           string  `json:"name"`
	FunctionalUnit string  `json:"functional_unit"`
	Quantity       float64 `json:"quantity"`
}

// LegacyStage is a stage as stored by legacy-schema documents, which tracked
// outputs alongside inputs and had no per-input impacts.
type LegacyStage struct {
	Name    string       `json:"name"`
	Inputs  []LegacyFlow `json:"inputs"`
	Outputs []LegacyFlow `json:"outputs"`
}

// MigrateLegacyStages converts a legacy stages map to the current schema.
// Legacy inputs carry over with empty impact lists (they contribute nothing
// to aggregation until impacts are added, and the save-time filter will drop
// them from any re-saved stage that leaves them impact-less). Outputs have no
// equivalent in the current schema and are dropped.
func MigrateLegacyStages(legacy map[string]LegacyStage) map[string]Stage {
	stages := make(map[string]Stage, len(legacy))
	for name, ls := range legacy {
		stage := Stage{Name: name}
		for _, in := range ls.Inputs {
			stage.Inputs = append(stage.Inputs, Input{
				Name:           in.Name,
				FunctionalUnit: in.FunctionalUnit,
				Quantity:       in.Quantity,
			})
		}
		stages[name] = stage
	}
	return stages
}
