package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeGraph(t *testing.T) {
	items, err := DecodeGraph([]byte(`{"@graph": [{"a": 1}, {"b": 2}]}`))
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestDecodeGraphEmptyDocument(t *testing.T) {
	for _, payload := range []string{`{}`, `null`} {
		items, err := DecodeGraph([]byte(payload))
		require.NoError(t, err, payload)
		assert.Empty(t, items, payload)
	}
}

func TestDecodeGraphErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty body", ``},
		{"not json", `{{`},
		{"missing container", `{"items": []}`},
		{"container not array", `{"@graph": {"a": 1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeGraph([]byte(tt.payload))
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestTimestampLayouts(t *testing.T) {
	docs := []string{
		`"2024-05-01T06:00:00Z"`,
		`"2024-05-01T06:00:00+03:00"`,
		`"2024-05-01T06:00:00.123Z"`,
		`"2024-05-01T06:00:00"`,
		`"2024-05-01 06:00:00"`,
		`"2024-05-01"`,
	}

	for _, payload := range docs {
		want := "01/05/2024"
		var ts Timestamp
		require.NoError(t, ts.UnmarshalJSON([]byte(payload)), payload)
		assert.Equal(t, want, ts.DisplayDate(), payload)
	}

	var bad Timestamp
	require.Error(t, bad.UnmarshalJSON([]byte(`"yesterday"`)))
}
