package farmcalendar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriflow/reporting/internal/config"
	"github.com/agriflow/reporting/internal/domain/models"
)

func testConfig(baseURL string) config.FarmCalendarConfig {
	return config.FarmCalendarConfig{
		BaseURL:         baseURL,
		UsingGatekeeper: true,
		Timeout:         5 * time.Second,
		Paths: map[string]string{
			config.PathIrrigations:   "/IrrigationOperations/",
			config.PathOperations:    "/CompostOperations/",
			config.PathObservations:  "/Observations/",
			config.PathParcel:        "/FarmParcels/",
			config.PathPest:          "/Pesticides/",
			config.PathActivityTypes: "/FarmCalendarActivityTypes/",
		},
	}
}

func TestListPassesFiltersAndToken(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"@id":"urn:x:y:1"},{"@id":"urn:x:y:2"}]`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	items, err := client.List(context.Background(), "tok-123", config.PathIrrigations, map[string]string{
		"parcel":   "p1",
		"fromDate": "2024-01-01",
	})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	assert.Equal(t, "/IrrigationOperations/", gotPath)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "json", gotQuery["format"][0])
	assert.Equal(t, "p1", gotQuery["parcel"][0])
	assert.Equal(t, "2024-01-01", gotQuery["fromDate"][0])
}

func TestGetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.Get(context.Background(), "tok", config.PathIrrigations, "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestListNestedPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	_, err := client.ListNested(context.Background(), "tok", config.PathOperations, "op1", config.PathObservations, nil)
	require.NoError(t, err)
	assert.Equal(t, "/CompostOperations/op1/Observations/", gotPath)
}

func TestTypedGetters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/FarmParcels/p1/":
			w.Write([]byte(`{"@id":"urn:openagri:parcel:p1","identifier":"GR-042","area":20000,
				"location":{"lat":45.2,"long":19.8},"farm":{"@id":"urn:openagri:farm:f1"}}`))
		case "/Pesticides/x9/":
			w.Write([]byte(`{"@id":"urn:openagri:pesticide:x9","hasCommercialName":"AphidGone"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))

	parcel, err := client.Parcel(context.Background(), "tok", "p1")
	require.NoError(t, err)
	assert.Equal(t, "GR-042", parcel.Identifier)
	assert.Equal(t, 20000.0, parcel.Area)
	require.NotNil(t, parcel.Location)
	assert.Equal(t, 45.2, parcel.Location.Lat)
	assert.Equal(t, "f1", parcel.Farm.LocalID())

	pest, err := client.Pesticide(context.Background(), "tok", "x9")
	require.NoError(t, err)
	assert.Equal(t, "AphidGone", pest.CommercialName)
}

func TestActivityTypeByName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Compost", r.URL.Query().Get("name"))
		w.Write([]byte(`[{"@id":"urn:openagri:activitytype:at1","name":"Compost"}]`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	at, err := client.ActivityTypeByName(context.Background(), "tok", "Compost")
	require.NoError(t, err)
	assert.Equal(t, "at1", models.LocalID(at.ID))

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer empty.Close()

	client = NewClient(testConfig(empty.URL))
	_, err = client.ActivityTypeByName(context.Background(), "tok", "Compost")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}
