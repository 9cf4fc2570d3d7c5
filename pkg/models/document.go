package models

import (
	"sort"
	"time"
)

// Schema versions for stored documents.
const (
	// SchemaVersionLegacy documents carry inputs and outputs per stage,
	// with no impact factors. Migrated on read.
	SchemaVersionLegacy = 1
	// SchemaVersionCurrent documents carry impact factors per input and
	// no outputs.
	SchemaVersionCurrent = 2
)

// Impact is a named impact category attached to an input. Quantity is a
// factor (impact units produced per one unit of the parent input's quantity),
// not a total.
type Impact struct {
	Name           string  `json:"name"`
	FunctionalUnit string  `json:"functional_unit"`
	Quantity       float64 `json:"quantity"`
}

// Input is a material or process consumed by a stage.
type Input struct {
	Name           string   `json:"name"`
	FunctionalUnit string   `json:"functional_unit"`
	Quantity       float64  `json:"quantity"`
	Impacts        []Impact `json:"impacts"`
}

// Stage is a named life-cycle phase grouping inputs. Saving a stage under an
// existing name replaces it entirely.
type Stage struct {
	Name   string  `json:"name"`
	Inputs []Input `json:"inputs"`
}

// Document is one session's in-progress LCA dataset.
// Stages are keyed by stage name; StageOrder preserves insertion order,
// which JSON maps cannot.
type Document struct {
	SessionID     string           `json:"session_id"`
	SchemaVersion int              `json:"schema_version"`
	Stages        map[string]Stage `json:"stages"`
	StageOrder    []string         `json:"stage_order"`
	Revision      int64            `json:"revision"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NewDocument returns an empty current-schema document for a session.
func NewDocument(sessionID string) *Document {
	return &Document{
		SessionID:     sessionID,
		SchemaVersion: SchemaVersionCurrent,
		Stages:        make(map[string]Stage),
	}
}

// OrderedStages returns the document's stages in insertion order. Stages
// missing from StageOrder (older documents predating the order list) are
// appended after the ordered ones.
func (d *Document) OrderedStages() []Stage {
	stages := make([]Stage, 0, len(d.Stages))
	seen := make(map[string]bool, len(d.Stages))

	for _, name := range d.StageOrder {
		if stage, ok := d.Stages[name]; ok && !seen[name] {
			stages = append(stages, stage)
			seen[name] = true
		}
	}
	var leftover []string
	for name := range d.Stages {
		if !seen[name] {
			leftover = append(leftover, name)
		}
	}
	sort.Strings(leftover)
	for _, name := range leftover {
		stages = append(stages, d.Stages[name])
	}
	return stages
}

// Total is the accumulated figure for one impact category.
type Total struct {
	Total float64 `json:"total"`
	Unit  string  `json:"unit"`
}

// TotalsReport maps impact name to its accumulated total. Derived on demand,
// never persisted.
type TotalsReport map[string]Total

// UnitMismatch records a skipped contribution whose unit disagreed with the
// unit first recorded for the same impact name.
type UnitMismatch struct {
	Impact   string `json:"impact"`
	Expected string `json:"expected_unit"`
	Got      string `json:"got_unit"`
	Stage    string `json:"stage"`
	Input    string `json:"input"`
}
