package reporting

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/agriflow/reporting/internal/domain/models"
	"github.com/agriflow/reporting/internal/render"
	"github.com/agriflow/reporting/internal/service/aggregate"
)

// operationsReport assembles the irrigation, fertilization and
// crop-protection reports. The layout grows with the record count: one
// operation becomes a detail block, several become a table. Irrigation
// tables over a resolved parcel with nonzero area additionally get the dose
// graphs and aggregate figures; crop-protection tables get per-pesticide
// totals.
func (s *Service) operationsReport(ctx context.Context, req models.ReportRequest) (*render.Document, error) {
	ops, err := s.source.Operations(ctx, req)
	if err != nil {
		return nil, err
	}

	kind := operationKind(req.Kind)
	doc := &render.Document{
		Title:       kind.Title() + " Operation Report",
		GeneratedAt: s.now(),
	}
	if len(ops) == 0 {
		return noData(doc), nil
	}

	doc.AddSection(render.Heading{Text: "1. Farm Details"})
	details := []render.Detail{{Label: "Reporting Period", Value: s.reportingPeriod(req)}}

	var parcel models.ParcelContext
	var farm models.FarmContext
	parcelDefined := req.ParcelID != ""
	if parcelDefined {
		parcel, farm = s.resolver.ResolveParcel(ctx, req.Token, req.ParcelID)
		details = append(details, farmDetails(parcel, farm)...)
	}
	doc.AddSection(render.DetailList{Rows: details})
	if parcelDefined {
		s.appendSnapshot(ctx, doc, parcel)
	}

	if len(ops) == 1 {
		s.appendSingleOperation(ctx, doc, req, &ops[0], parcel, farm, parcelDefined)
		return doc, nil
	}

	if err := sortByStart(ops); err != nil {
		return nil, err
	}
	s.appendOperationsTable(ctx, doc, req, kind, ops, parcelDefined)

	switch {
	case kind == models.KindIrrigation && parcelDefined && parcel.Area > 0:
		if err := s.appendIrrigationAggregates(doc, ops, parcel); err != nil {
			return nil, err
		}
	case kind == models.KindCropProtection:
		s.appendPesticideTotals(ctx, doc, req, ops)
	}
	return doc, nil
}

func operationKind(kind models.ReportKind) models.OperationKind {
	switch kind {
	case models.ReportFertilization:
		return models.KindFertilization
	case models.ReportPesticides:
		return models.KindCropProtection
	default:
		return models.KindIrrigation
	}
}

// sortByStart orders dosed operations chronologically. A record without a
// start time has no defined position, which fails the whole report.
func sortByStart(ops []models.Operation) error {
	for i := range ops {
		if ops[i].Start == nil || ops[i].Start.IsZero() {
			return fmt.Errorf("operation %s has no start datetime to sort on", ops[i].ID)
		}
	}
	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].Start.Time.Before(ops[j].Start.Time)
	})
	return nil
}

// farmDetails expands the resolved parcel and owning farm into the labelled
// rows of the farm-details block.
func farmDetails(parcel models.ParcelContext, farm models.FarmContext) []render.Detail {
	return []render.Detail{
		{Label: "Parcel Location:", Value: parcel.Address},
		{Label: "Parcel Identifier:", Value: parcel.Identifier},
		{Label: "Area (ha):", Value: strconv.Itoa(parcel.AreaHectares())},
		{Label: "Farm Location:", Value: farm.Display()},
		{Label: "Administrator:", Value: farm.Administrator},
		{Label: "Contact Person:", Value: farm.ContactPerson},
		{Label: "Farm vat:", Value: farm.VATID},
		{Label: "Farm Description:", Value: farm.Description},
	}
}

// appendSingleOperation writes the one-record narrative block. Without a
// report-level parcel the context comes from the record's own parcel link.
func (s *Service) appendSingleOperation(ctx context.Context, doc *render.Document, req models.ReportRequest, op *models.Operation, parcel models.ParcelContext, farm models.FarmContext, parcelDefined bool) {
	if !parcelDefined && op.OperatedOn != nil && op.OperatedOn.ID != "" {
		parcel, farm = s.resolver.ResolveParcel(ctx, req.Token, op.OperatedOn.ID)
	}
	doc.AddSection(render.DetailList{Rows: []render.Detail{
		{Label: "Start-End:", Value: op.Start.DisplayDate() + "-" + op.End.DisplayDate()},
		{Label: "Parcel Location:", Value: parcel.Address},
		{Label: "Parcel Identifier:", Value: parcel.Identifier},
		{Label: "Farm Location:", Value: farm.Display()},
		{Label: "Administrator:", Value: farm.Administrator},
		{Label: "Contact Person:", Value: farm.ContactPerson},
		{Label: "Farm vat:", Value: farm.VATID},
		{Label: "Farm Description:", Value: farm.Description},
		{Label: "Value info:", Value: op.AppliedAmount.Display()},
	}})
}

// appendOperationsTable writes the multi-record table. The parcel columns
// appear only when no report-level parcel narrowed the request; each row then
// resolves its own parcel link.
func (s *Service) appendOperationsTable(ctx context.Context, doc *render.Document, req models.ReportRequest, kind models.OperationKind, ops []models.Operation, parcelDefined bool) {
	header := []string{"Start - End"}
	if !parcelDefined {
		header = append(header, "Parcel", "Parcel Identifier", "Farm")
	}
	header = append(header, "Dose", "Unit")
	switch kind {
	case models.KindIrrigation:
		header = append(header, "Irrigation System")
	case models.KindFertilization:
		header = append(header, "Fertilizer", "Application Method")
	default:
		header = append(header, "Pesticide")
	}

	rows := make([][]string, 0, len(ops))
	for i := range ops {
		op := &ops[i]
		row := []string{fmt.Sprintf("%s - %s", op.Start.DisplayDate(), op.End.DisplayDate())}
		if !parcelDefined {
			var parcel models.ParcelContext
			var farm models.FarmContext
			if op.OperatedOn != nil && op.OperatedOn.ID != "" {
				parcel, farm = s.resolver.ResolveParcel(ctx, req.Token, op.OperatedOn.ID)
			}
			row = append(row, parcel.Address, parcel.Identifier, farm.Display())
		}
		row = append(row, op.AppliedAmount.FormatValue(), op.AppliedAmount.Unit)
		switch kind {
		case models.KindIrrigation:
			row = append(row, op.IrrigationSystem.String())
		case models.KindFertilization:
			fertilized := "No"
			if op.Fertilizer != nil {
				fertilized = "Yes"
			}
			row = append(row, fertilized, op.ApplicationMethod)
		default:
			row = append(row, s.resolver.PesticideName(ctx, req.Token, op.Pesticide))
		}
		rows = append(rows, row)
	}

	doc.AddSection(render.Table{
		Title:  fmt.Sprintf("2. %ss", kind.Title()),
		Header: header,
		Rows:   rows,
	})
}

// appendIrrigationAggregates draws the per-activity dose graphs and the
// aggregate table derived from the volume series.
func (s *Service) appendIrrigationAggregates(doc *render.Document, ops []models.Operation, parcel models.ParcelContext) error {
	points := aggregate.DoseSeries(ops, parcel.AreaHectares())
	dates := make([]time.Time, len(points))
	for i, p := range points {
		dates[i] = p.Date
	}
	doses := aggregate.Doses(points)
	volumes := aggregate.Volumes(points)

	volumeChart := render.TimeSeriesChart{
		Title:  "Total Volume of applied water per irrigation activity",
		YLabel: "Total Volume (m3)",
		Color:  render.SeriesOlive,
		Dates:  dates,
		Values: volumes,
	}
	volumePNG, err := volumeChart.Render()
	if err != nil {
		return fmt.Errorf("total volume graph: %w", err)
	}

	doseChart := render.TimeSeriesChart{
		Title:  "Applied amount of water per hectare",
		YLabel: "Dose (m3/Ha)",
		Color:  render.SeriesGrey,
		Dates:  dates,
		Values: doses,
	}
	dosePNG, err := doseChart.Render()
	if err != nil {
		return fmt.Errorf("amount per hectare graph: %w", err)
	}

	doc.AddSection(render.Heading{Text: "3. Graphs:"})
	doc.AddSection(render.Image{PNG: volumePNG, Width: chartImageWidth, Caption: "Graph 1:"})
	doc.AddSection(render.Image{PNG: dosePNG, Width: chartImageWidth, Caption: "Graph 2:"})

	doseStats := aggregate.Summarize(doses)
	volumeStats := aggregate.Summarize(volumes)
	doc.AddSection(render.Table{
		Title:  "4. Aggregates:",
		Header: []string{"Data", "Per hectare (m3)", "Total volume (m3)"},
		Rows: [][]string{
			{"Volume of applied water", formatStat(doseStats.Sum), formatStat(volumeStats.Sum)},
			{"Average dose", formatStat(doseStats.Mean), formatStat(volumeStats.Mean)},
			{"Maximum Dose", formatStat(doseStats.Max), formatStat(volumeStats.Max)},
			{"Minimum Dose", formatStat(doseStats.Min), formatStat(volumeStats.Min)},
		},
	})
	return nil
}

// appendPesticideTotals sums doses per pesticide and unit across the report.
func (s *Service) appendPesticideTotals(ctx context.Context, doc *render.Document, req models.ReportRequest, ops []models.Operation) {
	doses := make([]aggregate.CategoryDose, 0, len(ops))
	for i := range ops {
		doses = append(doses, aggregate.CategoryDose{
			Name: s.resolver.PesticideName(ctx, req.Token, ops[i].Pesticide),
			Unit: ops[i].AppliedAmount.Unit,
			Dose: ops[i].AppliedAmount.Value,
		})
	}

	totals := aggregate.TotalsByCategory(doses)
	rows := make([][]string, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []string{t.Name, fmt.Sprintf("%.2f %s", t.Total, t.Unit)})
	}
	doc.AddSection(render.Table{
		Title:  "3. Final report:",
		Header: []string{"Pesticide", "Total"},
		Rows:   rows,
	})
}

func formatStat(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
