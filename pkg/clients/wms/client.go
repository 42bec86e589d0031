package wms

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/agriflow/reporting/internal/config"
)

// Satellite snapshot geometry: a small box centered on the parcel, rendered
// wide enough to read field boundaries.
const (
	sizeDegrees = 1.8
	imageWidth  = 1600
	imageHeight = 1200
)

// Client fetches a satellite snapshot of a coordinate via a WMS GetMap
// request. Reports embed the image when available and proceed without it on
// any failure.
type Client interface {
	Snapshot(ctx context.Context, lat, long float64) ([]byte, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	layer      string
}

// NewClient builds a WMS imagery client.
func NewClient(cfg config.ImageryConfig) *APIClient {
	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)

	return &APIClient{
		httpClient: restyClient,
		layer:      cfg.Layer,
	}
}

// Snapshot requests a PNG rendering of the box around (lat, long). A
// non-image response body is an error: WMS services report failures as XML
// documents with status 200.
func (c *APIClient) Snapshot(ctx context.Context, lat, long float64) ([]byte, error) {
	half := sizeDegrees / 200.0
	bbox := strings.Join([]string{
		formatCoord(lat - half),
		formatCoord(long - half),
		formatCoord(lat + half),
		formatCoord(long + half),
	}, ",")

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"SERVICE":     "WMS",
			"REQUEST":     "GetMap",
			"VERSION":     "1.3.0",
			"LAYERS":      c.layer,
			"STYLES":      "",
			"FORMAT":      "image/png",
			"TRANSPARENT": "true",
			"CRS":         "EPSG:4326",
			"BBOX":        bbox,
			"WIDTH":       strconv.Itoa(imageWidth),
			"HEIGHT":      strconv.Itoa(imageHeight),
		}).
		Get("")
	if err != nil {
		return nil, fmt.Errorf("wms getmap: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("wms getmap: status %d", resp.StatusCode())
	}
	if !strings.Contains(resp.Header().Get("Content-Type"), "image") {
		return nil, fmt.Errorf("wms getmap: no imagery returned: %s", resp.String())
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
