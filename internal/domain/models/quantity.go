package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// QuantityValue is an applied amount. Both fields are required on the wire:
// a present hasAppliedAmount without a unit or a numeric value fails parsing.
type QuantityValue struct {
	Unit  string
	Value float64
}

func (q *QuantityValue) UnmarshalJSON(data []byte) error {
	var raw struct {
		Unit  *string  `json:"unit"`
		Value *float64 `json:"numericValue"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("quantity value: %w", err)
	}
	if raw.Unit == nil {
		return errors.New("quantity value missing unit")
	}
	if raw.Value == nil {
		return errors.New("quantity value missing numericValue")
	}
	q.Unit = *raw.Unit
	q.Value = *raw.Value
	return nil
}

func (q QuantityValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Unit  string  `json:"unit"`
		Value float64 `json:"numericValue"`
	}{Unit: q.Unit, Value: q.Value})
}

// FormatValue renders the numeric value without artificial precision,
// so 12.5 stays "12.5" and 10 stays "10".
func (q QuantityValue) FormatValue() string {
	return strconv.FormatFloat(q.Value, 'f', -1, 64)
}

// Display renders the amount as "12.5 (m3)".
func (q QuantityValue) Display() string {
	return fmt.Sprintf("%s (%s)", q.FormatValue(), q.Unit)
}

// ScalarString decodes a JSON scalar of any type into its string form.
// Observation result values arrive as numbers or strings depending on the
// observed property.
type ScalarString string

func (s *ScalarString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case nil:
		*s = ""
	case string:
		*s = ScalarString(val)
	case float64:
		*s = ScalarString(strconv.FormatFloat(val, 'f', -1, 64))
	case bool:
		*s = ScalarString(strconv.FormatBool(val))
	default:
		*s = ScalarString(string(data))
	}
	return nil
}

func (s ScalarString) String() string { return string(s) }
