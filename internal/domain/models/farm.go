package models

import "fmt"

// FarmContext is the resolved owning-farm metadata; all fields default to
// empty strings when unresolved.
type FarmContext struct {
	Name          string
	Municipality  string
	Administrator string
	VATID         string
	Description   string
	ContactPerson string
}

// Display renders the farm line used in report rows.
func (f FarmContext) Display() string {
	return fmt.Sprintf("Name: %s | Municipality: %s", f.Name, f.Municipality)
}

// FarmPayload mirrors the remote farm record.
type FarmPayload struct {
	ID            string             `json:"@id"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	Administrator string             `json:"administrator"`
	VATID         string             `json:"vatID"`
	Address       *FarmAddress       `json:"address"`
	ContactPerson *FarmContactPerson `json:"contactPerson"`
}

// FarmAddress carries the administrative address of a farm.
type FarmAddress struct {
	Municipality string `json:"municipality"`
}

// FarmContactPerson carries the farm contact name parts.
type FarmContactPerson struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}
