package location

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/agriflow/reporting/internal/domain/models"
	"github.com/agriflow/reporting/pkg/clients/farmcalendar"
	"github.com/agriflow/reporting/pkg/clients/nominatim"
)

// Resolver enriches records with parcel and farm context. Every lookup
// degrades to zero values instead of failing: callers branch on the returned
// contexts, never on an error.
type Resolver struct {
	calendar farmcalendar.Client
	geocoder nominatim.Client
	enabled  bool
	logger   *zap.Logger
}

// NewResolver wires a context resolver. When enabled is false every
// resolution short-circuits to defaults without touching the network.
func NewResolver(calendar farmcalendar.Client, geocoder nominatim.Client, enabled bool, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		calendar: calendar,
		geocoder: geocoder,
		enabled:  enabled,
		logger:   logger,
	}
}

// ResolveParcel fetches a parcel record and derives its address, area and
// owning-farm metadata. The id may be a bare local id or a full URN.
func (r *Resolver) ResolveParcel(ctx context.Context, token, parcelID string) (models.ParcelContext, models.FarmContext) {
	var parcel models.ParcelContext
	var farm models.FarmContext

	if !r.enabled || parcelID == "" {
		return parcel, farm
	}

	payload, err := r.calendar.Parcel(ctx, token, models.LocalID(parcelID))
	if err != nil {
		r.logger.Warn("parcel lookup degraded", zap.String("parcel_id", parcelID), zap.Error(err))
		return parcel, farm
	}

	parcel.Identifier = payload.Identifier
	parcel.Area = payload.Area
	if payload.Location != nil {
		parcel.Lat = payload.Location.Lat
		parcel.Long = payload.Location.Long
		addr, err := r.geocoder.Reverse(ctx, payload.Location.Lat, payload.Location.Long)
		if err != nil {
			r.logger.Warn("reverse geocode degraded", zap.String("parcel_id", parcelID), zap.Error(err))
		} else {
			parcel.Address = addr.Display()
		}
	}

	farmID := payload.Farm.LocalID()
	if farmID == "" {
		return parcel, farm
	}

	farmPayload, err := r.calendar.Farm(ctx, token, farmID)
	if err != nil {
		r.logger.Warn("farm lookup degraded", zap.String("farm_id", farmID), zap.Error(err))
		return parcel, farm
	}

	farm.Name = farmPayload.Name
	farm.Description = farmPayload.Description
	farm.Administrator = farmPayload.Administrator
	farm.VATID = farmPayload.VATID
	if farmPayload.Address != nil {
		farm.Municipality = farmPayload.Address.Municipality
	}
	if farmPayload.ContactPerson != nil {
		farm.ContactPerson = strings.TrimSpace(
			farmPayload.ContactPerson.Firstname + " " + farmPayload.ContactPerson.Lastname)
	}
	return parcel, farm
}

// ResolveByMachine resolves the parcel a machine operates on, then the
// parcel context itself. Used by composite reports whose operations carry
// machinery references instead of parcel links.
func (r *Resolver) ResolveByMachine(ctx context.Context, token, machineID string) (models.ParcelContext, models.FarmContext) {
	if !r.enabled || machineID == "" {
		return models.ParcelContext{}, models.FarmContext{}
	}

	machine, err := r.calendar.Machine(ctx, token, models.LocalID(machineID))
	if err != nil {
		r.logger.Warn("machine lookup degraded", zap.String("machine_id", machineID), zap.Error(err))
		return models.ParcelContext{}, models.FarmContext{}
	}
	if machine.AgriParcel == nil || machine.AgriParcel.ID == "" {
		return models.ParcelContext{}, models.FarmContext{}
	}
	return r.ResolveParcel(ctx, token, machine.AgriParcel.ID)
}

// PesticideName resolves the commercial name shown in crop-protection rows.
// Unknown pesticides degrade to an empty name.
func (r *Resolver) PesticideName(ctx context.Context, token string, ref *models.Ref) string {
	if !r.enabled || ref == nil || ref.ID == "" {
		return ""
	}
	payload, err := r.calendar.Pesticide(ctx, token, ref.LocalID())
	if err != nil {
		r.logger.Warn("pesticide lookup degraded", zap.String("pesticide_id", ref.ID), zap.Error(err))
		return ""
	}
	return payload.CommercialName
}
