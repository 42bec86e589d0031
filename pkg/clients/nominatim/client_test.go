package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriflow/reporting/internal/config"
)

func TestReverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "45.243248", r.URL.Query().Get("lat"))
		assert.Equal(t, "19.837172", r.URL.Query().Get("lon"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"address":{"city":"Novi Sad","country":"Serbia","postcode":"21000"}}`))
	}))
	defer srv.Close()

	client := NewClient(config.GeocoderConfig{
		BaseURL:   srv.URL,
		UserAgent: "test-agent",
		Timeout:   5 * time.Second,
	})

	addr, err := client.Reverse(context.Background(), 45.243248, 19.837172)
	require.NoError(t, err)
	assert.Equal(t, "Country: Serbia | City: Novi Sad | Postcode: 21000", addr.Display())
}

func TestReverseServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(config.GeocoderConfig{BaseURL: srv.URL, UserAgent: "t", Timeout: time.Second})
	_, err := client.Reverse(context.Background(), 1, 2)
	require.Error(t, err)
}

func TestAddressDisplayKeepsLabels(t *testing.T) {
	assert.Equal(t, "Country:  | City:  | Postcode: ", Address{}.Display())
}
