package models

import "strings"

// Record identifiers arrive as URNs like
// "urn:openagri:irrigation:b2866547-24e7-4bd0-9d29-f2f0b8f4d6d9".

// LocalID returns the last colon-separated segment of a URN, the form the
// remote service expects in resource paths.
func LocalID(id string) string {
	if id == "" {
		return ""
	}
	parts := strings.Split(id, ":")
	return parts[len(parts)-1]
}

// DisplayID returns the fourth URN segment, the short form shown in report
// tables. Identifiers with fewer segments are returned unchanged.
func DisplayID(id string) string {
	parts := strings.Split(id, ":")
	if len(parts) >= 4 {
		return parts[3]
	}
	return id
}

// Ref is a linked-data reference carried inside a record.
type Ref struct {
	ID   string `json:"@id"`
	Name string `json:"name,omitempty"`
}

// LocalID is a convenience accessor tolerating nil receivers.
func (r *Ref) LocalID() string {
	if r == nil {
		return ""
	}
	return LocalID(r.ID)
}
