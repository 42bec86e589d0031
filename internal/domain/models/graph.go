package models

import (
	"bytes"
	"encoding/json"
)

// DecodeGraph extracts the record items from an uploaded linked-data
// document. The document is an object whose "@graph" key holds the item
// array; an empty or null document yields no records, anything else without
// the container is malformed input.
func DecodeGraph(data []byte) ([]json.RawMessage, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, NewValidationError("uploaded document is empty", nil)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, NewValidationError("uploaded document is not valid JSON", err)
	}
	if len(doc) == 0 {
		return nil, nil
	}

	raw, ok := doc["@graph"]
	if !ok {
		return nil, NewValidationError("uploaded document has no @graph container", nil)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, NewValidationError("@graph is not an array", err)
	}
	return items, nil
}
