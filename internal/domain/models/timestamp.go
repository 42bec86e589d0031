package models

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayouts lists the datetime shapes seen across calendar payloads,
// most specific first.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DisplayDateLayout is the layout used for dates shown inside reports.
const DisplayDateLayout = "02/01/2006"

// QueryDateLayout is the layout used for date filters in remote query params.
const QueryDateLayout = "2006-01-02"

// Timestamp decodes the datetime dialects found in calendar records: RFC3339
// with or without zone or fraction, space-separated, or date-only.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		return nil
	}
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, raw)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized datetime %q", raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Time.Format(time.RFC3339) + `"`), nil
}

// DisplayDate renders the timestamp in the report date format.
func (t *Timestamp) DisplayDate() string {
	if t == nil || t.Time.IsZero() {
		return ""
	}
	return t.Time.Format(DisplayDateLayout)
}
