package models

import (
	"fmt"

	"github.com/verdantmetrics/lca-engine/pkg/apperrors"
)

// ImpactDraft is an impact row under edit. Same shape as Impact but kept
// separate so partially-filled rows never leak into persisted documents.
type ImpactDraft struct {
	Name           string  `json:"name"`
	FunctionalUnit string  `json:"functional_unit"`
	Quantity       float64 `json:"quantity"`
}

// InputDraft is an input row under edit.
type InputDraft struct {
	Name           string        `json:"name"`
	FunctionalUnit string        `json:"functional_unit"`
	Quantity       float64       `json:"quantity"`
	Impacts        []ImpactDraft `json:"impacts"`
}

// StageDraft is one session's in-progress stage edit. It is an explicit
// serializable value passed into and returned from each edit operation;
// nothing about a draft lives in process-wide state.
type StageDraft struct {
	Name   string       `json:"name"`
	Inputs []InputDraft `json:"inputs"`
}

// Draft edit operations.
const (
	EditSetStageName = "set_stage_name"
	EditAddInput     = "add_input"
	EditRemoveInput  = "remove_input"
	EditSetInput     = "set_input"
	EditAddImpact    = "add_impact"
	EditRemoveImpact = "remove_impact"
	EditSetImpact    = "set_impact"
)

// DraftEdit is one discrete edit event against a StageDraft.
type DraftEdit struct {
	Op string `json:"op"`

	// Input targets the input row for input- and impact-level ops.
	Input int `json:"input,omitempty"`
	// Impact targets the impact row for impact-level ops.
	Impact int `json:"impact,omitempty"`

	// Field payloads; which ones apply depends on Op.
	Name           string  `json:"name,omitempty"`
	FunctionalUnit string  `json:"functional_unit,omitempty"`
	Quantity       float64 `json:"quantity,omitempty"`
}

// ApplyEdit returns the draft with one edit applied. The input draft value is
// not mutated. Unknown ops and out-of-range row indexes are errors; the
// caller's draft is returned unchanged alongside them.
func ApplyEdit(d StageDraft, e DraftEdit) (StageDraft, error) {
	out := cloneDraft(d)

	switch e.Op {
	case EditSetStageName:
		out.Name = e.Name

	case EditAddInput:
		out.Inputs = append(out.Inputs, InputDraft{
			Name:           e.Name,
			FunctionalUnit: e.FunctionalUnit,
			Quantity:       e.Quantity,
		})

	case EditRemoveInput:
		if e.Input < 0 || e.Input >= len(out.Inputs) {
			return d, fmt.Errorf("input index %d out of range", e.Input)
		}
		out.Inputs = append(out.Inputs[:e.Input], out.Inputs[e.Input+1:]...)

	case EditSetInput:
		if e.Input < 0 || e.Input >= len(out.Inputs) {
			return d, fmt.Errorf("input index %d out of range", e.Input)
		}
		out.Inputs[e.Input].Name = e.Name
		out.Inputs[e.Input].FunctionalUnit = e.FunctionalUnit
		out.Inputs[e.Input].Quantity = e.Quantity

	case EditAddImpact:
		if e.Input < 0 || e.Input >= len(out.Inputs) {
			return d, fmt.Errorf("input index %d out of range", e.Input)
		}
		out.Inputs[e.Input].Impacts = append(out.Inputs[e.Input].Impacts, ImpactDraft{
			Name:           e.Name,
			FunctionalUnit: e.FunctionalUnit,
			Quantity:       e.Quantity,
		})

	case EditRemoveImpact:
		if e.Input < 0 || e.Input >= len(out.Inputs) {
			return d, fmt.Errorf("input index %d out of range", e.Input)
		}
		impacts := out.Inputs[e.Input].Impacts
		if e.Impact < 0 || e.Impact >= len(impacts) {
			return d, fmt.Errorf("impact index %d out of range", e.Impact)
		}
		out.Inputs[e.Input].Impacts = append(impacts[:e.Impact], impacts[e.Impact+1:]...)

	case EditSetImpact:
		if e.Input < 0 || e.Input >= len(out.Inputs) {
			return d, fmt.Errorf("input index %d out of range", e.Input)
		}
		impacts := out.Inputs[e.Input].Impacts
		if e.Impact < 0 || e.Impact >= len(impacts) {
			return d, fmt.Errorf("impact index %d out of range", e.Impact)
		}
		impacts[e.Impact].Name = e.Name
		impacts[e.Impact].FunctionalUnit = e.FunctionalUnit
		impacts[e.Impact].Quantity = e.Quantity

	default:
		return d, fmt.Errorf("unknown draft edit op %q", e.Op)
	}

	return out, nil
}

// BuildStage validates the draft into a persistable Stage.
//
// The stage is rejected when its name is empty. Inputs missing a name,
// functional unit, or positive quantity are silently dropped, as are impact
// rows missing a name, unit, or non-zero factor; an input whose impacts all
// drop out is dropped with them. When no input survives, the whole save is
// rejected rather than persisting an empty stage.
func (d StageDraft) BuildStage() (Stage, error) {
	if d.Name == "" {
		return Stage{}, apperrors.ErrEmptyStageName
	}

	stage := Stage{Name: d.Name}
	for _, in := range d.Inputs {
		if in.Name == "" || in.FunctionalUnit == "" || in.Quantity <= 0 {
			continue
		}

		var impacts []Impact
		for _, imp := range in.Impacts {
			if imp.Name == "" || imp.FunctionalUnit == "" || imp.Quantity == 0 {
				continue
			}
			impacts = append(impacts, Impact{
				Name:           imp.Name,
				FunctionalUnit: imp.FunctionalUnit,
				Quantity:       imp.Quantity,
			})
		}
		if len(impacts) == 0 {
			continue
		}

		stage.Inputs = append(stage.Inputs, Input{
			Name:           in.Name,
			FunctionalUnit: in.FunctionalUnit,
			Quantity:       in.Quantity,
			Impacts:        impacts,
		})
	}

	if len(stage.Inputs) == 0 {
		return Stage{}, apperrors.ErrNoValidInputs
	}

	return stage, nil
}

func cloneDraft(d StageDraft) StageDraft {
	out := StageDraft{Name: d.Name}
	if d.Inputs != nil {
		out.Inputs = make([]InputDraft, len(d.Inputs))
		for i, in := range d.Inputs {
			out.Inputs[i] = in
			if in.Impacts != nil {
				out.Inputs[i].Impacts = append([]ImpactDraft(nil), in.Impacts...)
			}
		}
	}
	return out
}
