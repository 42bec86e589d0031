package nominatim

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/agriflow/reporting/internal/config"
)

// Client reverse-geocodes parcel coordinates. Lookups are best effort: the
// resolver swallows failures and falls back to an empty address.
type Client interface {
	Reverse(ctx context.Context, lat, long float64) (Address, error)
}

// Address is the subset of reverse-geocoding components shown in reports.
type Address struct {
	City     string
	Country  string
	Postcode string
}

// Display renders the address line used in report sections. Labels stay in
// place even when a component is missing.
func (a Address) Display() string {
	return fmt.Sprintf("Country: %s | City: %s | Postcode: %s", a.Country, a.City, a.Postcode)
}

// APIClient is a resty-backed implementation of Client against a
// Nominatim-compatible endpoint.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a reverse-geocoding client. The user agent is mandatory
// for the public Nominatim instance.
func NewClient(cfg config.GeocoderConfig) *APIClient {
	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("User-Agent", cfg.UserAgent).
		SetTimeout(cfg.Timeout)

	return &APIClient{httpClient: restyClient}
}

type reverseResponse struct {
	Address struct {
		City     string `json:"city"`
		Country  string `json:"country"`
		Postcode string `json:"postcode"`
	} `json:"address"`
}

// Reverse looks up the address components of a coordinate pair.
func (c *APIClient) Reverse(ctx context.Context, lat, long float64) (Address, error) {
	var result reverseResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"format": "json",
			"lat":    strconv.FormatFloat(lat, 'f', -1, 64),
			"lon":    strconv.FormatFloat(long, 'f', -1, 64),
		}).
		SetResult(&result).
		Get("/reverse")
	if err != nil {
		return Address{}, fmt.Errorf("reverse geocode: %w", err)
	}
	if resp.IsError() {
		return Address{}, fmt.Errorf("reverse geocode: status %d", resp.StatusCode())
	}

	return Address{
		City:     result.Address.City,
		Country:  result.Address.Country,
		Postcode: result.Address.Postcode,
	}, nil
}
