package reporting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/agriflow/reporting/internal/domain/models"
	"github.com/agriflow/reporting/internal/render"
	"github.com/agriflow/reporting/internal/service/ingest"
)

const (
	satelliteImageWidth = 100
	chartImageWidth     = 180
)

// Source feeds report assembly with parsed records, whatever origin the
// request selected: a single remote record, an uploaded graph or a filtered
// remote listing.
type Source interface {
	Operations(ctx context.Context, req models.ReportRequest) ([]models.Operation, error)
	Composite(ctx context.Context, req models.ReportRequest) (*ingest.CompositeBundle, error)
	Animals(ctx context.Context, req models.ReportRequest) ([]models.AnimalRecord, error)
}

// ContextSource resolves parcel, farm and pesticide display context on
// demand. Lookups degrade to zero values rather than failing the report.
type ContextSource interface {
	ResolveParcel(ctx context.Context, token, parcelID string) (models.ParcelContext, models.FarmContext)
	ResolveByMachine(ctx context.Context, token, machineID string) (models.ParcelContext, models.FarmContext)
	PesticideName(ctx context.Context, token string, ref *models.Ref) string
}

// Imagery fetches the satellite snapshot shown under a resolved parcel.
type Imagery interface {
	Snapshot(ctx context.Context, lat, long float64) ([]byte, error)
}

// Service assembles report documents. It pulls records through the source,
// decorates them with resolved context and lays out the sections each report
// family expects. Rendering and storage belong to the caller.
type Service struct {
	source   Source
	resolver ContextSource
	imagery  Imagery
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new report assembly service.
func NewService(source Source, resolver ContextSource, imagery Imagery, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source:   source,
		resolver: resolver,
		imagery:  imagery,
		logger:   logger,
		now:      time.Now,
	}
}

// Generate assembles the document for one report request.
func (s *Service) Generate(ctx context.Context, req models.ReportRequest) (*render.Document, error) {
	s.logger.Debug("assembling report",
		zap.String("report_id", req.ReportID),
		zap.String("kind", string(req.Kind)))

	switch req.Kind {
	case models.ReportIrrigation, models.ReportFertilization, models.ReportPesticides:
		return s.operationsReport(ctx, req)
	case models.ReportCompost:
		return s.compositeReport(ctx, req)
	case models.ReportAnimals:
		return s.animalsReport(ctx, req)
	default:
		return nil, fmt.Errorf("unsupported report kind %q", req.Kind)
	}
}

// noData fills a report whose source yielded nothing; the single detail
// section is the whole body.
func noData(doc *render.Document) *render.Document {
	doc.AddSection(render.DetailList{Rows: []render.Detail{
		{Label: "No data:", Value: "No records matched this report."},
	}})
	return doc
}

// reportingPeriod renders the covered interval. An absent start defaults to
// the generation date; an absent end stays blank.
func (s *Service) reportingPeriod(req models.ReportRequest) string {
	from := s.now().Format(models.DisplayDateLayout)
	if req.FromDate != nil {
		from = req.FromDate.Format(models.QueryDateLayout)
	}
	to := ""
	if req.ToDate != nil {
		to = req.ToDate.Format(models.QueryDateLayout)
	}
	return fmt.Sprintf("%s / %s", from, to)
}

// appendSnapshot adds the parcel satellite image; fetch failures only skip
// the section.
func (s *Service) appendSnapshot(ctx context.Context, doc *render.Document, parcel models.ParcelContext) {
	if !parcel.HasCoordinates() {
		return
	}
	png, err := s.imagery.Snapshot(ctx, parcel.Lat, parcel.Long)
	if err != nil {
		s.logger.Info("Satellite image issue happened, continue without image.", zap.Error(err))
		return
	}
	doc.AddSection(render.Image{PNG: png, Width: satelliteImageWidth})
}
