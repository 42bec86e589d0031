package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// OperationKind tags the dosed operation variants.
type OperationKind string

const (
	KindIrrigation     OperationKind = "irrigation"
	KindFertilization  OperationKind = "fertilization"
	KindCropProtection OperationKind = "pesticides"
)

// Title returns the human heading used in report output.
func (k OperationKind) Title() string {
	switch k {
	case KindIrrigation:
		return "Irrigation"
	case KindFertilization:
		return "Fertilization"
	case KindCropProtection:
		return "Pesticide"
	default:
		return string(k)
	}
}

// NameOrRef tolerates fields that arrive either as a bare string or as an
// object carrying a name, like usesIrrigationSystem.
type NameOrRef struct {
	Value string
}

func (n *NameOrRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		n.Value = s
		return nil
	}
	var ref Ref
	if err := json.Unmarshal(data, &ref); err != nil {
		return fmt.Errorf("expected string or object: %w", err)
	}
	n.Value = ref.Name
	return nil
}

func (n *NameOrRef) String() string {
	if n == nil {
		return ""
	}
	return n.Value
}

// Operation is a dosed farm activity: one of the irrigation, fertilization
// or crop-protection variants, tagged by Kind. The applied amount is
// mandatory; variant-specific references stay nil on the other kinds.
type Operation struct {
	Kind              OperationKind
	Type              string
	ID                string
	Title             string
	Details           string
	ActivityType      *Ref
	Start             *Timestamp
	End               *Timestamp
	ResponsibleAgent  string
	Machinery         []Ref
	AppliedAmount     QuantityValue
	OperatedOn        *Ref
	IrrigationSystem  *NameOrRef
	ApplicationMethod string
	Fertilizer        *Ref
	Pesticide         *Ref
}

// operationWire mirrors the linked-data field names of a dosed operation.
type operationWire struct {
	Type              string         `json:"@type"`
	ID                string         `json:"@id"`
	Title             string         `json:"title"`
	Details           string         `json:"details"`
	ActivityType      *Ref           `json:"activityType"`
	Start             *Timestamp     `json:"hasStartDatetime"`
	End               *Timestamp     `json:"hasEndDatetime"`
	ResponsibleAgent  string         `json:"responsibleAgent"`
	Machinery         []Ref          `json:"usesAgriculturalMachinery"`
	AppliedAmount     *QuantityValue `json:"hasAppliedAmount"`
	OperatedOn        *Ref           `json:"operatedOn"`
	IrrigationSystem  *NameOrRef     `json:"usesIrrigationSystem"`
	ApplicationMethod string         `json:"hasApplicationMethod"`
	Fertilizer        *Ref           `json:"usesFertilizer"`
	Pesticide         *Ref           `json:"usesPesticide"`
}

func (w *operationWire) toOperation(kind OperationKind) (Operation, error) {
	if w.Type == "" {
		return Operation{}, errors.New("missing @type")
	}
	if w.ID == "" {
		return Operation{}, errors.New("missing @id")
	}
	if w.AppliedAmount == nil {
		return Operation{}, errors.New("missing hasAppliedAmount")
	}
	op := Operation{
		Kind:             kind,
		Type:             w.Type,
		ID:               w.ID,
		Title:            w.Title,
		Details:          w.Details,
		ActivityType:     w.ActivityType,
		Start:            w.Start,
		End:              w.End,
		ResponsibleAgent: w.ResponsibleAgent,
		Machinery:        w.Machinery,
		AppliedAmount:    *w.AppliedAmount,
		OperatedOn:       w.OperatedOn,
	}
	switch kind {
	case KindIrrigation:
		op.IrrigationSystem = w.IrrigationSystem
	case KindFertilization:
		op.IrrigationSystem = w.IrrigationSystem
		op.ApplicationMethod = w.ApplicationMethod
		op.Fertilizer = w.Fertilizer
	case KindCropProtection:
		op.Pesticide = w.Pesticide
	}
	return op, nil
}

// EffectiveTime returns the merge-order timestamp: the start time. Dosed
// operations carry no phenomenon time.
func (o *Operation) EffectiveTime() *Timestamp {
	return o.Start
}

// Dose returns the numeric applied amount.
func (o *Operation) Dose() float64 {
	return o.AppliedAmount.Value
}

// ParseOperations validates raw records into typed operations of the given
// kind. The whole call fails on the first malformed record.
func ParseOperations(items []json.RawMessage, kind OperationKind) ([]Operation, error) {
	ops := make([]Operation, 0, len(items))
	for i, item := range items {
		var wire operationWire
		if err := json.Unmarshal(item, &wire); err != nil {
			return nil, NewValidationError(fmt.Sprintf("%s record %d is malformed", kind, i), err)
		}
		op, err := wire.toOperation(kind)
		if err != nil {
			return nil, NewValidationError(fmt.Sprintf("%s record %d is malformed", kind, i), err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}
