package models

// MaterialFactors holds the built-in per-kilogram factors for one material.
type MaterialFactors struct {
	// Emissions in kg CO2e per kg of material.
	Emissions float64 `json:"emissions"`
	// WaterUse in liters per kg of material.
	WaterUse float64 `json:"water_use"`
}

// FactorTable maps material name to its built-in factors. Lookups for
// unrecognized materials yield zero factors - a miss never rejects a row.
type FactorTable map[string]MaterialFactors

// Lookup returns the factors for a material, or zero factors on a miss.
func (t FactorTable) Lookup(material string) MaterialFactors {
	return t[material]
}

// BuiltinFactors is the fixed factor table for quick assessments.
// Simplified figures for educational purposes.
var BuiltinFactors = FactorTable{
	"steel":    {Emissions: 2.0, WaterUse: 10.0},
	"plastic":  {Emissions: 3.5, WaterUse: 5.0},
	"aluminum": {Emissions: 1.5, WaterUse: 8.0},
}
