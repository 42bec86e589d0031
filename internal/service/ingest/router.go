package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/agriflow/reporting/internal/config"
	"github.com/agriflow/reporting/internal/domain/models"
	"github.com/agriflow/reporting/pkg/clients/farmcalendar"
)

// Router obtains the raw records of a report invocation. Three modes, in
// priority order: single-id fetch, uploaded graph, filtered remote fetch.
// Remote failures degrade to empty collections; only malformed uploads and
// malformed records surface as errors.
type Router struct {
	calendar farmcalendar.Client
	enabled  bool
	logger   *zap.Logger
}

// NewRouter wires an ingestion router. When enabled is false remote modes
// yield empty collections without touching the network.
func NewRouter(calendar farmcalendar.Client, enabled bool, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		calendar: calendar,
		enabled:  enabled,
		logger:   logger,
	}
}

// CompositeBundle groups the collections a farm-calendar composite report
// merges into one chronological view.
type CompositeBundle struct {
	ActivityName string
	Operations   []models.CalendarOperation
	Observations []models.CropObservation
	Materials    []models.MaterialEvent
}

func operationRoute(kind models.ReportKind) (models.OperationKind, string, error) {
	switch kind {
	case models.ReportIrrigation:
		return models.KindIrrigation, config.PathIrrigations, nil
	case models.ReportFertilization:
		return models.KindFertilization, config.PathFertilization, nil
	case models.ReportPesticides:
		return models.KindCropProtection, config.PathPesticides, nil
	default:
		return "", "", fmt.Errorf("report kind %q has no dosed operations", kind)
	}
}

// Operations ingests the dosed operations of an irrigation, fertilization or
// crop-protection report.
func (r *Router) Operations(ctx context.Context, req models.ReportRequest) ([]models.Operation, error) {
	kind, resource, err := operationRoute(req.Kind)
	if err != nil {
		return nil, err
	}

	if req.OperationID != "" {
		raw := r.fetchOne(ctx, req.Token, resource, req.OperationID)
		if raw == nil {
			return nil, nil
		}
		return models.ParseOperations([]json.RawMessage{raw}, kind)
	}

	if len(req.Upload) > 0 {
		items, err := models.DecodeGraph(req.Upload)
		if err != nil {
			return nil, err
		}
		return models.ParseOperations(items, kind)
	}

	params := map[string]string{}
	if req.ParcelID != "" {
		params["parcel"] = req.ParcelID
	}
	addDateFilters(params, req.FromDate, req.ToDate)
	return models.ParseOperations(r.fetchList(ctx, req.Token, resource, params), kind)
}

// Animals ingests animal records, optionally narrowed by the remote group,
// name, parcel and status filters.
func (r *Router) Animals(ctx context.Context, req models.ReportRequest) ([]models.AnimalRecord, error) {
	if req.OperationID != "" {
		raw := r.fetchOne(ctx, req.Token, config.PathAnimals, req.OperationID)
		if raw == nil {
			return nil, nil
		}
		return models.ParseAnimalRecords([]json.RawMessage{raw})
	}

	if len(req.Upload) > 0 {
		items, err := models.DecodeGraph(req.Upload)
		if err != nil {
			return nil, err
		}
		return models.ParseAnimalRecords(items)
	}

	params := map[string]string{}
	if req.Animal.Group != "" {
		params["animal_group"] = req.Animal.Group
	}
	if req.Animal.Name != "" {
		params["name"] = req.Animal.Name
	}
	if req.Animal.Parcel != "" {
		params["parcel"] = req.Animal.Parcel
	}
	if req.Animal.Status != nil {
		params["status"] = strconv.Itoa(*req.Animal.Status)
	}
	if req.ParcelID != "" {
		params["parcel"] = req.ParcelID
	}
	addDateFilters(params, req.FromDate, req.ToDate)
	return models.ParseAnimalRecords(r.fetchList(ctx, req.Token, config.PathAnimals, params))
}

// Composite ingests a farm-calendar bundle: the parent operations plus the
// observation and material collections merged into the data table.
func (r *Router) Composite(ctx context.Context, req models.ReportRequest) (*CompositeBundle, error) {
	if req.OperationID != "" {
		return r.compositeByOperation(ctx, req)
	}
	if len(req.Upload) > 0 {
		return r.compositeFromUpload(req)
	}
	return r.compositeByActivityType(ctx, req)
}

func (r *Router) compositeFromUpload(req models.ReportRequest) (*CompositeBundle, error) {
	items, err := models.DecodeGraph(req.Upload)
	if err != nil {
		return nil, err
	}

	var obsRaws, matRaws []json.RawMessage
	for i, item := range items {
		var embedded struct {
			Measurements []json.RawMessage `json:"hasMeasurement"`
			Nested       []json.RawMessage `json:"hasNestedOperation"`
		}
		if err := json.Unmarshal(item, &embedded); err != nil {
			return nil, models.NewValidationError(fmt.Sprintf("graph item %d is malformed", i), err)
		}
		obsRaws = append(obsRaws, embedded.Measurements...)
		matRaws = append(matRaws, embedded.Nested...)
	}

	if unwrapped, ok := unwrapLegacyMeasurements(obsRaws); ok {
		obsRaws = unwrapped
	} else {
		r.logger.Info("Data is new format type, proceed as normal.")
	}

	return r.buildBundle(req.ActivityType, items, obsRaws, matRaws)
}

func (r *Router) compositeByOperation(ctx context.Context, req models.ReportRequest) (*CompositeBundle, error) {
	raw := r.fetchOne(ctx, req.Token, config.PathOperations, req.OperationID)
	if raw == nil {
		return &CompositeBundle{ActivityName: req.ActivityType}, nil
	}

	ops, err := models.ParseCalendarOperations([]json.RawMessage{raw})
	if err != nil {
		return nil, err
	}

	name := req.ActivityType
	if name == "" && ops[0].ActivityType != nil {
		if at, err := r.calendar.ActivityType(ctx, req.Token, ops[0].ActivityType.LocalID()); err != nil {
			r.logger.Warn("activity type lookup degraded",
				zap.String("activity_type_id", ops[0].ActivityType.ID), zap.Error(err))
		} else {
			name = at.Name
		}
	}

	params := map[string]string{}
	addDateFilters(params, req.FromDate, req.ToDate)
	obsRaws, matRaws := r.operationChildren(ctx, req.Token, req.OperationID, params)

	return r.parsedBundle(name, ops, obsRaws, matRaws)
}

func (r *Router) compositeByActivityType(ctx context.Context, req models.ReportRequest) (*CompositeBundle, error) {
	if req.ActivityType == "" {
		return &CompositeBundle{}, nil
	}

	at, err := r.activityTypeByName(ctx, req.Token, req.ActivityType)
	if err != nil {
		return &CompositeBundle{ActivityName: req.ActivityType}, nil
	}

	obsParams := map[string]string{"activity_type": models.DisplayID(at.ID)}
	addDateFilters(obsParams, req.FromDate, req.ToDate)
	obsRaws := r.fetchList(ctx, req.Token, config.PathObservations, obsParams)

	opParams := map[string]string{"activity_type": models.DisplayID(at.ID)}
	addDateFilters(opParams, req.FromDate, req.ToDate)
	if req.ParcelID != "" {
		opParams["parcel"] = req.ParcelID
	}
	opRaws := r.fetchList(ctx, req.Token, config.PathOperations, opParams)

	ops, err := models.ParseCalendarOperations(opRaws)
	if err != nil {
		return nil, err
	}

	childParams := map[string]string{}
	addDateFilters(childParams, req.FromDate, req.ToDate)
	if req.ParcelID != "" {
		childParams["parcel"] = req.ParcelID
	}
	var matRaws []json.RawMessage
	for _, op := range ops {
		childObs, childMats := r.operationChildren(ctx, req.Token, models.LocalID(op.ID), childParams)
		obsRaws = append(obsRaws, childObs...)
		matRaws = append(matRaws, childMats...)
	}

	return r.parsedBundle(req.ActivityType, ops, obsRaws, matRaws)
}

func (r *Router) activityTypeByName(ctx context.Context, token, name string) (*models.ActivityTypePayload, error) {
	if !r.enabled {
		return nil, fmt.Errorf("remote lookups disabled")
	}
	at, err := r.calendar.ActivityTypeByName(ctx, token, name)
	if err != nil {
		r.logger.Warn("activity type lookup degraded", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	return at, nil
}

// operationChildren fetches the four sub-resource collections of one parent
// operation. Each fetch is independent; a failed or empty fetch contributes
// nothing.
func (r *Router) operationChildren(ctx context.Context, token, opID string, params map[string]string) (obs, materials []json.RawMessage) {
	obs = r.fetchNested(ctx, token, opID, config.PathObservations, params)
	for _, child := range []string{config.PathMaterials, config.PathIrrigations, config.PathTurningOperations} {
		materials = append(materials, r.fetchNested(ctx, token, opID, child, params)...)
	}
	return obs, materials
}

func (r *Router) buildBundle(name string, opRaws, obsRaws, matRaws []json.RawMessage) (*CompositeBundle, error) {
	ops, err := models.ParseCalendarOperations(opRaws)
	if err != nil {
		return nil, err
	}
	return r.parsedBundle(name, ops, obsRaws, matRaws)
}

func (r *Router) parsedBundle(name string, ops []models.CalendarOperation, obsRaws, matRaws []json.RawMessage) (*CompositeBundle, error) {
	obs, err := models.ParseCropObservations(obsRaws)
	if err != nil {
		return nil, err
	}
	materials, err := models.ParseMaterialEvents(matRaws)
	if err != nil {
		return nil, err
	}
	return &CompositeBundle{
		ActivityName: name,
		Operations:   ops,
		Observations: obs,
		Materials:    materials,
	}, nil
}

// unwrapLegacyMeasurements unfolds the older graph dialect where each
// measurement nests its records one level deeper inside a hasMember list.
// The unwrap is all-or-nothing: a single record without the wrapper means
// the document already uses the current dialect.
func unwrapLegacyMeasurements(items []json.RawMessage) ([]json.RawMessage, bool) {
	unwrapped := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		var wrapper struct {
			Members []json.RawMessage `json:"hasMember"`
		}
		if err := json.Unmarshal(item, &wrapper); err != nil || wrapper.Members == nil {
			return nil, false
		}
		unwrapped = append(unwrapped, wrapper.Members...)
	}
	return unwrapped, true
}

func addDateFilters(params map[string]string, from, to *time.Time) {
	if from != nil {
		params["fromDate"] = from.Format(models.QueryDateLayout)
	}
	if to != nil {
		params["toDate"] = to.Format(models.QueryDateLayout)
	}
}

func (r *Router) fetchList(ctx context.Context, token, resource string, params map[string]string) []json.RawMessage {
	if !r.enabled {
		return nil
	}
	items, err := r.calendar.List(ctx, token, resource, params)
	if err != nil {
		r.logger.Warn("remote fetch degraded", zap.String("resource", resource), zap.Error(err))
		return nil
	}
	return items
}

func (r *Router) fetchOne(ctx context.Context, token, resource, id string) json.RawMessage {
	if !r.enabled {
		return nil
	}
	raw, err := r.calendar.Get(ctx, token, resource, id)
	if err != nil {
		r.logger.Warn("remote fetch degraded",
			zap.String("resource", resource), zap.String("id", id), zap.Error(err))
		return nil
	}
	return raw
}

func (r *Router) fetchNested(ctx context.Context, token, parentID, child string, params map[string]string) []json.RawMessage {
	if !r.enabled {
		return nil
	}
	items, err := r.calendar.ListNested(ctx, token, config.PathOperations, parentID, child, params)
	if err != nil {
		r.logger.Warn("nested fetch degraded",
			zap.String("operation_id", parentID), zap.String("child", child), zap.Error(err))
		return nil
	}
	return items
}
