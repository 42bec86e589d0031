package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Type tags distinguishing merged calendar rows.
const (
	TypeIrrigationOperation = "IrrigationOperation"
	TypeCompostTurning      = "CompostTurningOperation"
	TypeAddRawMaterial      = "AddRawMaterialOperation"
	TypeObservation         = "Observation"
)

// CalendarOperation is the primary record of a composite farm-calendar
// report: a compost (or other calendar) operation that observations and
// material events hang off.
type CalendarOperation struct {
	Type             string     `json:"@type"`
	ID               string     `json:"@id"`
	Title            string     `json:"title"`
	Details          string     `json:"details"`
	ActivityType     *Ref       `json:"activityType"`
	Start            *Timestamp `json:"hasStartDatetime"`
	End              *Timestamp `json:"hasEndDatetime"`
	Phenomenon       *Timestamp `json:"phenomenonTime"`
	ResponsibleAgent string     `json:"responsibleAgent"`
	Machinery        []Ref      `json:"usesAgriculturalMachinery"`
	AgriParcel       *Ref       `json:"hasAgriParcel"`
	OperatedOn       *Ref       `json:"isOperatedOn"`
}

// EffectiveTime is the merge-order timestamp: start time when present, else
// phenomenon time.
func (c *CalendarOperation) EffectiveTime() *Timestamp {
	if c.Start != nil && !c.Start.IsZero() {
		return c.Start
	}
	return c.Phenomenon
}

// CropObservation is a measurement attached to a calendar activity.
type CropObservation struct {
	Type             string             `json:"@type"`
	ID               string             `json:"@id"`
	Details          string             `json:"details"`
	Start            *Timestamp         `json:"hasStartDatetime"`
	End              *Timestamp         `json:"hasEndDatetime"`
	Phenomenon       *Timestamp         `json:"phenomenonTime"`
	ObservedProperty string             `json:"observedProperty"`
	Result           *ObservationResult `json:"hasResult"`
}

// ObservationResult carries the observed value and its unit.
type ObservationResult struct {
	Value ScalarString `json:"hasValue"`
	Unit  string       `json:"unit"`
}

func (c *CropObservation) EffectiveTime() *Timestamp {
	if c.Start != nil && !c.Start.IsZero() {
		return c.Start
	}
	return c.Phenomenon
}

// MaterialEvent is any sub-resource merged into the composite data table
// beside observations: raw-material additions, irrigation sub-events and
// compost turnings, distinguished by Type.
type MaterialEvent struct {
	Type             string                `json:"@type"`
	ID               string                `json:"@id"`
	Title            string                `json:"title"`
	Details          string                `json:"details"`
	Start            *Timestamp            `json:"hasStartDatetime"`
	End              *Timestamp            `json:"hasEndDatetime"`
	Phenomenon       *Timestamp            `json:"phenomenonTime"`
	AppliedAmount    *QuantityValue        `json:"hasAppliedAmount"`
	CompostMaterials []RawMaterialLineItem `json:"hasCompostMaterial"`
}

// RawMaterialLineItem names one added material; the quantity is optional.
type RawMaterialLineItem struct {
	TypeName string         `json:"typeName"`
	Quantity *QuantityValue `json:"quantityValue"`
}

func (m *MaterialEvent) EffectiveTime() *Timestamp {
	if m.Start != nil && !m.Start.IsZero() {
		return m.Start
	}
	return m.Phenomenon
}

func hasEffectiveTime(t *Timestamp) bool {
	return t != nil && !t.IsZero()
}

// ParseCalendarOperations validates raw composite-report operations.
// Records must carry a start or phenomenon time; the merged chronological
// view has no defined position for timestamp-less items.
func ParseCalendarOperations(items []json.RawMessage) ([]CalendarOperation, error) {
	ops := make([]CalendarOperation, 0, len(items))
	for i, item := range items {
		var op CalendarOperation
		if err := json.Unmarshal(item, &op); err != nil {
			return nil, NewValidationError(fmt.Sprintf("calendar operation %d is malformed", i), err)
		}
		if !hasEffectiveTime(op.EffectiveTime()) {
			return nil, NewValidationError(fmt.Sprintf("calendar operation %d is malformed", i),
				errors.New("missing hasStartDatetime and phenomenonTime"))
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// ParseCropObservations validates raw observation records.
func ParseCropObservations(items []json.RawMessage) ([]CropObservation, error) {
	obs := make([]CropObservation, 0, len(items))
	for i, item := range items {
		var o CropObservation
		if err := json.Unmarshal(item, &o); err != nil {
			return nil, NewValidationError(fmt.Sprintf("observation %d is malformed", i), err)
		}
		if !hasEffectiveTime(o.EffectiveTime()) {
			return nil, NewValidationError(fmt.Sprintf("observation %d is malformed", i),
				errors.New("missing hasStartDatetime and phenomenonTime"))
		}
		obs = append(obs, o)
	}
	return obs, nil
}

// ParseMaterialEvents validates raw material/sub-event records.
func ParseMaterialEvents(items []json.RawMessage) ([]MaterialEvent, error) {
	events := make([]MaterialEvent, 0, len(items))
	for i, item := range items {
		var ev MaterialEvent
		if err := json.Unmarshal(item, &ev); err != nil {
			return nil, NewValidationError(fmt.Sprintf("material record %d is malformed", i), err)
		}
		if !hasEffectiveTime(ev.EffectiveTime()) {
			return nil, NewValidationError(fmt.Sprintf("material record %d is malformed", i),
				errors.New("missing hasStartDatetime and phenomenonTime"))
		}
		events = append(events, ev)
	}
	return events, nil
}
