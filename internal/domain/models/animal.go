package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// AnimalGroupRef points at the group an animal belongs to.
type AnimalGroupRef struct {
	ID   string `json:"@id"`
	Name string `json:"hasName"`
}

// AnimalRecord is a registered farm animal. It is not an operation: it has
// no applied amount, and its chronological key is the creation timestamp.
type AnimalRecord struct {
	Type          string          `json:"@type"`
	ID            string          `json:"@id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Species       string          `json:"species"`
	Sex           int             `json:"sex"`
	Castrated     bool            `json:"isCastrated"`
	Birthdate     *Timestamp      `json:"birthdate"`
	CreatedAt     *Timestamp      `json:"dateCreated"`
	InvalidatedAt *Timestamp      `json:"invalidatedAtTime"`
	AgriParcel    *Ref            `json:"hasAgriParcel"`
	Group         *AnimalGroupRef `json:"isMemberOfAnimalGroup"`
}

// SexLabel maps the wire encoding to its display form: 0 is Male, anything
// else Female.
func (a *AnimalRecord) SexLabel() string {
	if a.Sex == 0 {
		return "Male"
	}
	return "Female"
}

// ParseAnimalRecords validates raw animal records. The creation timestamp is
// mandatory: it orders the multi-record table.
func ParseAnimalRecords(items []json.RawMessage) ([]AnimalRecord, error) {
	animals := make([]AnimalRecord, 0, len(items))
	for i, item := range items {
		var a AnimalRecord
		if err := json.Unmarshal(item, &a); err != nil {
			return nil, NewValidationError(fmt.Sprintf("animal record %d is malformed", i), err)
		}
		if a.CreatedAt == nil || a.CreatedAt.IsZero() {
			return nil, NewValidationError(fmt.Sprintf("animal record %d is malformed", i),
				errors.New("missing dateCreated"))
		}
		animals = append(animals, a)
	}
	return animals, nil
}
