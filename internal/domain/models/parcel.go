package models

// ParcelContext is the resolved location of a parcel. Every field defaults
// to its zero value when a lookup degrades; callers branch on the values,
// never on an error.
type ParcelContext struct {
	Address    string
	Identifier string
	Area       float64 // square meters
	Lat        float64
	Long       float64
}

// AreaHectares converts the parcel area to whole hectares, truncating.
func (p ParcelContext) AreaHectares() int {
	if p.Area <= 0 {
		return 0
	}
	return int(p.Area / 10_000)
}

// HasCoordinates reports whether the parcel carries a usable position.
func (p ParcelContext) HasCoordinates() bool {
	return p.Lat != 0 || p.Long != 0
}

// FarmParcelPayload mirrors the remote parcel record.
type FarmParcelPayload struct {
	ID         string          `json:"@id"`
	Identifier string          `json:"identifier"`
	Area       float64         `json:"area"`
	Location   *ParcelLocation `json:"location"`
	Farm       *Ref            `json:"farm"`
}

// ParcelLocation carries the parcel geocoordinates.
type ParcelLocation struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// MachinePayload mirrors the remote agricultural-machine record; only the
// parcel link matters here.
type MachinePayload struct {
	ID         string `json:"@id"`
	AgriParcel *Ref   `json:"hasAgriParcel"`
}

// PesticidePayload mirrors the remote pesticide record consulted for the
// commercial name shown in crop-protection rows.
type PesticidePayload struct {
	ID             string `json:"@id"`
	CommercialName string `json:"hasCommercialName"`
}

// ActivityTypePayload mirrors the remote activity-type record.
type ActivityTypePayload struct {
	ID   string `json:"@id"`
	Name string `json:"name"`
}
