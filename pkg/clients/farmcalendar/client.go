package farmcalendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/agriflow/reporting/internal/config"
	"github.com/agriflow/reporting/internal/domain/models"
)

// Client exposes the read-only farm-calendar endpoints consumed while
// assembling reports. Every call carries the caller's bearer token; the
// service replies JSON when asked with format=json.
type Client interface {
	List(ctx context.Context, token, resource string, params map[string]string) ([]json.RawMessage, error)
	Get(ctx context.Context, token, resource, id string) (json.RawMessage, error)
	ListNested(ctx context.Context, token, parent, parentID, child string, params map[string]string) ([]json.RawMessage, error)

	Parcel(ctx context.Context, token, id string) (*models.FarmParcelPayload, error)
	Farm(ctx context.Context, token, id string) (*models.FarmPayload, error)
	Machine(ctx context.Context, token, id string) (*models.MachinePayload, error)
	Pesticide(ctx context.Context, token, id string) (*models.PesticidePayload, error)
	ActivityType(ctx context.Context, token, id string) (*models.ActivityTypePayload, error)
	ActivityTypeByName(ctx context.Context, token, name string) (*models.ActivityTypePayload, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	paths      map[string]string
}

// NewClient builds a farm-calendar API client from the configured base URL,
// timeout and resource path map.
func NewClient(cfg config.FarmCalendarConfig) *APIClient {
	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)

	return &APIClient{
		httpClient: restyClient,
		paths:      cfg.Paths,
	}
}

func (c *APIClient) request(ctx context.Context, token string, params map[string]string) *resty.Request {
	req := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("format", "json").
		SetQueryParams(params)
	if token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

func (c *APIClient) path(resource string) (string, error) {
	p, ok := c.paths[resource]
	if !ok {
		return "", fmt.Errorf("unknown farm calendar resource %q", resource)
	}
	return p, nil
}

// List fetches the full record collection of a resource, filtered by the
// given query parameters.
func (c *APIClient) List(ctx context.Context, token, resource string, params map[string]string) ([]json.RawMessage, error) {
	p, err := c.path(resource)
	if err != nil {
		return nil, err
	}
	return c.list(ctx, token, p, params)
}

// ListNested fetches a child collection scoped under one parent record, e.g.
// the observations of a single compost operation.
func (c *APIClient) ListNested(ctx context.Context, token, parent, parentID, child string, params map[string]string) ([]json.RawMessage, error) {
	parentPath, err := c.path(parent)
	if err != nil {
		return nil, err
	}
	childPath, err := c.path(child)
	if err != nil {
		return nil, err
	}
	return c.list(ctx, token, parentPath+parentID+childPath, params)
}

func (c *APIClient) list(ctx context.Context, token, path string, params map[string]string) ([]json.RawMessage, error) {
	resp, err := c.request(ctx, token, params).Get(path)
	if err != nil {
		return nil, fmt.Errorf("farm calendar get %s: %w", path, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("farm calendar get %s: %w", path, models.ErrNotFound)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("farm calendar get %s: status %d", path, resp.StatusCode())
	}

	var items []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &items); err != nil {
		return nil, fmt.Errorf("farm calendar get %s: decode: %w", path, err)
	}
	return items, nil
}

// Get fetches a single record by its local id.
func (c *APIClient) Get(ctx context.Context, token, resource, id string) (json.RawMessage, error) {
	p, err := c.path(resource)
	if err != nil {
		return nil, err
	}
	path := p + id + "/"

	resp, err := c.request(ctx, token, nil).Get(path)
	if err != nil {
		return nil, fmt.Errorf("farm calendar get %s: %w", path, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("farm calendar get %s: %w", path, models.ErrNotFound)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("farm calendar get %s: status %d", path, resp.StatusCode())
	}

	body := make(json.RawMessage, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}

func getTyped[T any](ctx context.Context, c *APIClient, token, resource, id string) (*T, error) {
	raw, err := c.Get(ctx, token, resource, id)
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("farm calendar decode %s/%s: %w", resource, id, err)
	}
	return out, nil
}

// Parcel fetches one farm parcel record.
func (c *APIClient) Parcel(ctx context.Context, token, id string) (*models.FarmParcelPayload, error) {
	return getTyped[models.FarmParcelPayload](ctx, c, token, config.PathParcel, id)
}

// Farm fetches one farm record.
func (c *APIClient) Farm(ctx context.Context, token, id string) (*models.FarmPayload, error) {
	return getTyped[models.FarmPayload](ctx, c, token, config.PathFarm, id)
}

// Machine fetches one agricultural-machine record.
func (c *APIClient) Machine(ctx context.Context, token, id string) (*models.MachinePayload, error) {
	return getTyped[models.MachinePayload](ctx, c, token, config.PathMachines, id)
}

// Pesticide fetches one pesticide record.
func (c *APIClient) Pesticide(ctx context.Context, token, id string) (*models.PesticidePayload, error) {
	return getTyped[models.PesticidePayload](ctx, c, token, config.PathPest, id)
}

// ActivityType fetches one activity-type record by id.
func (c *APIClient) ActivityType(ctx context.Context, token, id string) (*models.ActivityTypePayload, error) {
	return getTyped[models.ActivityTypePayload](ctx, c, token, config.PathActivityTypes, id)
}

// ActivityTypeByName looks an activity type up by its display name and
// returns the first match.
func (c *APIClient) ActivityTypeByName(ctx context.Context, token, name string) (*models.ActivityTypePayload, error) {
	items, err := c.List(ctx, token, config.PathActivityTypes, map[string]string{"name": name})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("activity type %q: %w", name, models.ErrNotFound)
	}
	out := new(models.ActivityTypePayload)
	if err := json.Unmarshal(items[0], out); err != nil {
		return nil, fmt.Errorf("activity type %q: decode: %w", name, err)
	}
	return out, nil
}
