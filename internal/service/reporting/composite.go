package reporting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/agriflow/reporting/internal/domain/models"
	"github.com/agriflow/reporting/internal/render"
)

// compositeReport assembles the compost (farm-calendar) report: the parent
// operations first, then the chronologically merged observation and material
// rows in one shared data table.
func (s *Service) compositeReport(ctx context.Context, req models.ReportRequest) (*render.Document, error) {
	bundle, err := s.source.Composite(ctx, req)
	if err != nil {
		return nil, err
	}

	doc := &render.Document{Title: "Compost Operation Report", GeneratedAt: s.now()}
	if len(bundle.Operations) == 0 && len(bundle.Observations) == 0 && len(bundle.Materials) == 0 {
		return noData(doc), nil
	}

	switch {
	case len(bundle.Operations) == 1:
		s.appendSingleCalendarOperation(ctx, doc, req, &bundle.Operations[0], bundle.Materials)
	case len(bundle.Operations) > 1:
		s.appendCalendarOperationsTable(ctx, doc, req, bundle.Operations)
	}

	if rows := mergedDataRows(bundle.Observations, bundle.Materials); len(rows) > 0 {
		doc.AddSection(render.Table{
			Title:  "Data Table",
			Header: []string{"Start - End", "Is Irrigated", "Is Turned", "Values info", "Property", "Details"},
			Rows:   rows,
		})
	}
	return doc, nil
}

// appendSingleCalendarOperation writes the one-operation narrative block plus
// the initial-materials table. The parcel context comes from the operation's
// own parcel link, falling back to its first machine.
func (s *Service) appendSingleCalendarOperation(ctx context.Context, doc *render.Document, req models.ReportRequest, op *models.CalendarOperation, materials []models.MaterialEvent) {
	var parcel models.ParcelContext
	var farm models.FarmContext
	switch {
	case op.AgriParcel != nil && op.AgriParcel.ID != "":
		parcel, farm = s.resolver.ResolveParcel(ctx, req.Token, op.AgriParcel.ID)
	case len(op.Machinery) > 0:
		parcel, farm = s.resolver.ResolveByMachine(ctx, req.Token, op.Machinery[0].ID)
	}

	start := op.Start.DisplayDate()
	if start == "" {
		start = op.Phenomenon.DisplayDate()
	}
	end := op.End.DisplayDate()
	if end == "" {
		end = "N/A"
	}
	pile := "N/A"
	if op.OperatedOn != nil && op.OperatedOn.ID != "" {
		pile = models.LocalID(op.OperatedOn.ID)
	}

	doc.AddSection(render.DetailList{Rows: []render.Detail{
		{Label: "Parcel Location:", Value: parcel.Address},
		{Label: "Farm information:", Value: farm.Display()},
		{Label: "Details:", Value: op.Details},
		{Label: "Starting Date:", Value: start},
		{Label: "Ending Date:", Value: end},
		{Label: "Compost Pile:", Value: pile},
		{Label: "Responsible Agent:", Value: op.ResponsibleAgent},
	}})

	if len(materials) == 0 {
		return
	}
	name, unit, amount := "N/A", "N/A", "N/A"
	if len(materials[0].CompostMaterials) > 0 {
		item := materials[0].CompostMaterials[0]
		name = item.TypeName
		if item.Quantity != nil {
			unit = item.Quantity.Unit
			amount = item.Quantity.FormatValue()
		}
	}
	doc.AddSection(render.Table{
		Title:  "Initial Materials",
		Header: []string{"Name", "Unit", "Numeric value"},
		Rows:   [][]string{{name, unit, amount}},
	})
}

// appendCalendarOperationsTable writes the multi-operation table, one row per
// operation ordered by effective time. Row parcel context resolves through
// the first machine of each operation.
func (s *Service) appendCalendarOperationsTable(ctx context.Context, doc *render.Document, req models.ReportRequest, ops []models.CalendarOperation) {
	sort.SliceStable(ops, func(i, j int) bool {
		return ops[i].EffectiveTime().Time.Before(ops[j].EffectiveTime().Time)
	})

	rows := make([][]string, 0, len(ops))
	for i := range ops {
		op := &ops[i]

		machineryIDs := make([]string, 0, len(op.Machinery))
		for _, m := range op.Machinery {
			machineryIDs = append(machineryIDs, models.DisplayID(m.ID))
		}

		var parcel models.ParcelContext
		var farm models.FarmContext
		if len(op.Machinery) > 0 {
			parcel, farm = s.resolver.ResolveByMachine(ctx, req.Token, op.Machinery[0].ID)
		}

		pile := "Empty Pile Value"
		if op.OperatedOn != nil && op.OperatedOn.ID != "" {
			pile = models.DisplayID(op.OperatedOn.ID)
		}

		rows = append(rows, []string{
			op.Title,
			op.Details,
			displayOrNA(op.Start),
			displayOrNA(op.End),
			op.ResponsibleAgent,
			strings.Join(machineryIDs, ", "),
			parcel.Address,
			farm.Display(),
			pile,
			op.ResponsibleAgent,
		})
	}

	doc.AddSection(render.Table{
		Title:  "Operations",
		Header: []string{"Title", "Details", "Start", "End", "Agent", "Machinery IDs", "Parcel", "Farm", "Compost Pile", "Responsible Agent"},
		Rows:   rows,
	})
}

// timelineEntry pairs one merged row source with its chronological key.
type timelineEntry struct {
	when time.Time
	obs  *models.CropObservation
	mat  *models.MaterialEvent
}

// mergedDataRows flattens observations and material events into the shared
// data-table rows, ordered by effective time. The sort is stable, so records
// sharing a timestamp keep observations ahead of materials. Raw-material
// additions expand into one row per line item, repeating the timestamp pair.
func mergedDataRows(observations []models.CropObservation, materials []models.MaterialEvent) [][]string {
	entries := make([]timelineEntry, 0, len(observations)+len(materials))
	for i := range observations {
		entries = append(entries, timelineEntry{when: observations[i].EffectiveTime().Time, obs: &observations[i]})
	}
	for i := range materials {
		entries = append(entries, timelineEntry{when: materials[i].EffectiveTime().Time, mat: &materials[i]})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].when.Before(entries[j].when) })

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		if e.obs != nil {
			rows = append(rows, observationRow(e.obs))
			continue
		}
		rows = append(rows, materialRows(e.mat)...)
	}
	return rows
}

func observationRow(o *models.CropObservation) []string {
	value := ""
	if o.Result != nil {
		value = fmt.Sprintf("%s (%s)", o.Result.Value, o.Result.Unit)
	}
	return []string{mergedRange(o.Start, o.End, o.Phenomenon), "", "", value, o.ObservedProperty, o.Details}
}

func materialRows(m *models.MaterialEvent) [][]string {
	span := mergedRange(m.Start, m.End, m.Phenomenon)
	switch m.Type {
	case models.TypeIrrigationOperation:
		value := ""
		if m.AppliedAmount != nil {
			value = m.AppliedAmount.Display()
		}
		return [][]string{{span, "Yes", "", value, "", m.Details}}
	case models.TypeCompostTurning:
		return [][]string{{span, "", "Yes", "", "", m.Details}}
	case models.TypeAddRawMaterial:
		if len(m.CompostMaterials) == 0 {
			return [][]string{{span, "", "", "", "", m.Details}}
		}
		rows := make([][]string, 0, len(m.CompostMaterials))
		for _, item := range m.CompostMaterials {
			value := ""
			if item.Quantity != nil {
				value = item.Quantity.Display()
			}
			rows = append(rows, []string{span, "", "", value, item.TypeName, m.Details})
		}
		return rows
	default:
		return [][]string{{span, "", "", "", "", m.Details}}
	}
}

// mergedRange renders "start - end" with the phenomenon time standing in for
// a missing start.
func mergedRange(start, end, phenomenon *models.Timestamp) string {
	from := start.DisplayDate()
	if from == "" {
		from = phenomenon.DisplayDate()
	}
	return fmt.Sprintf("%s - %s", from, end.DisplayDate())
}

func displayOrNA(t *models.Timestamp) string {
	if s := t.DisplayDate(); s != "" {
		return s
	}
	return "N/A"
}
