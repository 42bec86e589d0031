package reporting

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agriflow/reporting/internal/domain/models"
	"github.com/agriflow/reporting/internal/render"
)

func TestOperationsReportSingleRecord(t *testing.T) {
	op := irrigationOp(2, 12.5, "urn:openagri:parcel:par1")
	res := &fakeResolver{
		parcels: map[string]models.ParcelContext{
			"urn:openagri:parcel:par1": {Address: "Via Roma 1, Bologna", Identifier: "PRC-7"},
		},
		farms: map[string]models.FarmContext{
			"urn:openagri:parcel:par1": {Name: "Green Acres", Municipality: "Bologna", VATID: "IT999"},
		},
	}
	svc := newTestService(&fakeSource{ops: []models.Operation{op}}, res, nil)

	doc, err := svc.Generate(context.Background(), models.ReportRequest{Kind: models.ReportIrrigation, Token: "tok"})

	require.NoError(t, err)
	assert.Equal(t, "Irrigation Operation Report", doc.Title)
	assert.Equal(t, "12.5 (m3)", detailValue(t, doc, "Value info:"))
	assert.Equal(t, "02/05/2024-03/05/2024", detailValue(t, doc, "Start-End:"))
	assert.Equal(t, "Via Roma 1, Bologna", detailValue(t, doc, "Parcel Location:"))
	assert.Equal(t, "Name: Green Acres | Municipality: Bologna", detailValue(t, doc, "Farm Location:"))
	assert.Equal(t, "IT999", detailValue(t, doc, "Farm vat:"))
	assert.Equal(t, 1, res.parcelCalls)
}

func TestOperationsReportSingleWithoutParcelLinkLeavesContextBlank(t *testing.T) {
	op := irrigationOp(2, 4, "")
	res := &fakeResolver{}
	svc := newTestService(&fakeSource{ops: []models.Operation{op}}, res, nil)

	doc, err := svc.Generate(context.Background(), models.ReportRequest{Kind: models.ReportIrrigation})

	require.NoError(t, err)
	assert.Equal(t, "", detailValue(t, doc, "Parcel Location:"))
	assert.Equal(t, "Name:  | Municipality: ", detailValue(t, doc, "Farm Location:"))
	assert.Zero(t, res.parcelCalls)
}

func TestOperationsReportSortsTableRows(t *testing.T) {
	ops := []models.Operation{
		irrigationOp(15, 3, ""),
		irrigationOp(5, 1, ""),
		irrigationOp(10, 2, ""),
	}
	svc := newTestService(&fakeSource{ops: ops}, nil, nil)

	doc, err := svc.Generate(context.Background(), models.ReportRequest{Kind: models.ReportIrrigation})

	require.NoError(t, err)
	table := findTable(t, doc, "2. Irrigations")
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "05/05/2024 - 06/05/2024", table.Rows[0][0])
	assert.Equal(t, "10/05/2024 - 11/05/2024", table.Rows[1][0])
	assert.Equal(t, "15/05/2024 - 16/05/2024", table.Rows[2][0])
}

func TestOperationsReportRejectsRecordWithoutStart(t *testing.T) {
	broken := irrigationOp(5, 1, "")
	broken.Start = nil
	svc := newTestService(&fakeSource{ops: []models.Operation{irrigationOp(2, 1, ""), broken}}, nil, nil)

	_, err := svc.Generate(context.Background(), models.ReportRequest{Kind: models.ReportIrrigation})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no start datetime")
}

func TestOperationsReportParcelColumnsFollowRequest(t *testing.T) {
	ops := []models.Operation{
		irrigationOp(5, 1, "urn:openagri:parcel:parA"),
		irrigationOp(10, 2, "urn:openagri:parcel:parB"),
	}
	res := &fakeResolver{
		parcels: map[string]models.ParcelContext{
			"urn:openagri:parcel:parA": {Address: "Field A", Identifier: "A-1"},
			"urn:openagri:parcel:parB": {Address: "Field B", Identifier: "B-1"},
		},
		farms: map[string]models.FarmContext{
			"urn:openagri:parcel:parA": {Name: "North", Municipality: "Trento"},
			"urn:openagri:parcel:parB": {Name: "South", Municipality: "Arco"},
		},
	}
	svc := newTestService(&fakeSource{ops: ops}, res, nil)

	doc, err := svc.Generate(context.Background(), models.ReportRequest{Kind: models.ReportIrrigation})

	require.NoError(t, err)
	table := findTable(t, doc, "2. Irrigations")
	assert.Equal(t, []string{"Start - End", "Parcel", "Parcel Identifier", "Farm", "Dose", "Unit", "Irrigation System"}, table.Header)
	assert.Equal(t, "Field A", table.Rows[0][1])
	assert.Equal(t, "A-1", table.Rows[0][2])
	assert.Equal(t, "Name: South | Municipality: Arco", table.Rows[1][3])
	assert.Equal(t, 2, res.parcelCalls)
}

func TestOperationsReportSharedParcelDropsRowColumns(t *testing.T) {
	ops := []models.Operation{
		irrigationOp(5, 1, "urn:openagri:parcel:parA"),
		irrigationOp(10, 2, "urn:openagri:parcel:parB"),
	}
	res := &fakeResolver{
		parcels: map[string]models.ParcelContext{"p1": {Address: "Shared field"}},
		farms:   map[string]models.FarmContext{"p1": {Name: "Shared", Municipality: "Bolzano"}},
	}
	svc := newTestService(&fakeSource{ops: ops}, res, nil)

	doc, err := svc.Generate(context.Background(), models.ReportRequest{Kind: models.ReportIrrigation, ParcelID: "p1"})

	require.NoError(t, err)
	table := findTable(t, doc, "2. Irrigations")
	assert.Equal(t, []string{"Start - End", "Dose", "Unit", "Irrigation System"}, table.Header)
	assert.Equal(t, "Shared field", detailValue(t, doc, "Parcel Location:"))
	assert.Equal(t, 1, res.parcelCalls, "rows must not re-resolve a shared parcel")
}

func TestIrrigationReportChartsAndAggregates(t *testing.T) {
	ops := []models.Operation{
		irrigationOp(5, 10, ""),
		irrigationOp(10, 20, ""),
		irrigationOp(15, 30, ""),
	}
	res := &fakeResolver{
		parcels: map[string]models.ParcelContext{
			"p1": {Address: "Irrigated field", Area: 25_000, Lat: 44.49, Long: 11.34},
		},
		farms: map[string]models.FarmContext{"p1": {Name: "Delta", Municipality: "Ferrara"}},
	}
	img := &fakeImagery{png: []byte("sat")}
	svc := newTestService(&fakeSource{ops: ops}, res, img)

	doc, err := svc.Generate(context.Background(), models.ReportRequest{Kind: models.ReportIrrigation, ParcelID: "p1"})

	require.NoError(t, err)
	assert.True(t, hasHeading(doc, "3. Graphs:"))
	assert.Equal(t, 3, imageCount(doc), "satellite snapshot plus two graphs")
	assert.Equal(t, 1, img.calls)

	aggregates := findTable(t, doc, "4. Aggregates:")
	assert.Equal(t, []string{"Data", "Per hectare (m3)", "Total volume (m3)"}, aggregates.Header)
	assert.Equal(t, [][]string{
		{"Volume of applied water", "60.00", "120.00"},
		{"Average dose", "20.00", "40.00"},
		{"Maximum Dose", "30.00", "60.00"},
		{"Minimum Dose", "10.00", "20.00"},
	}, aggregates.Rows)

	var captions []string
	for _, sec := range doc.Sections {
		if image, ok := sec.(render.Image); ok && image.Caption != "" {
			captions = append(captions, image.Caption)
			assert.NotEmpty(t, image.PNG)
		}
	}
	assert.Equal(t, []string{"Graph 1:", "Graph 2:"}, captions)
}

func TestIrrigationReportSkipsChartsWithoutUsableParcel(t *testing.T) {
	ops := []models.Operation{
		irrigationOp(5, 10, ""),
		irrigationOp(10, 20, ""),
	}

	t.Run("no parcel requested", func(t *testing.T) {
		svc := newTestService(&fakeSource{ops: ops}, nil, nil)
		doc, err := svc.Generate(context.Background(), models.ReportRequest{Kind: models.ReportIrrigation})
		require.NoError(t, err)
		assert.False(t, hasHeading(doc, "3. Graphs:"))
		assert.False(t, hasTable(doc, "4. Aggregates:"))
	})

	t.Run("parcel without area", func(t *testing.T) {
		res := &fakeResolver{parcels: map[string]models.ParcelContext{"p1": {Address: "No area"}}}
		svc := newTestService(&fakeSource{ops: ops}, res, nil)
		doc, err := svc.Generate(context.Background(), models.ReportRequest{Kind: models.ReportIrrigation, ParcelID: "p1"})
		require.NoError(t, err)
		assert.False(t, hasHeading(doc, "3. Graphs:"))
		assert.False(t, hasTable(doc, "4. Aggregates:"))
	})
}

func TestOperationsReportSnapshotFailureSkipsImage(t *testing.T) {
	ops := []models.Operation{irrigationOp(5, 10, ""), irrigationOp(10, 20, "")}
	res := &fakeResolver{parcels: map[string]models.ParcelContext{"p1": {Address: "Field", Lat: 44, Long: 11}}}
	img := &fakeImagery{err: errors.New("wms down")}
	svc := newTestService(&fakeSource{ops: ops}, res, img)

	doc, err := svc.Generate(context.Background(), models.ReportRequest{Kind: models.ReportIrrigation, ParcelID: "p1"})

	require.NoError(t, err)
	assert.Equal(t, 1, img.calls)
	assert.Zero(t, imageCount(doc))
}

func TestFertilizationReportColumns(t *testing.T) {
	withFertilizer := models.Operation{
		Kind:              models.KindFertilization,
		Type:              "FertilizationOperation",
		ID:                "urn:openagri:fertilization:f1",
		Start:             ts(3),
		End:               ts(4),
		AppliedAmount:     models.QuantityValue{Unit: "kg", Value: 40},
		Fertilizer:        &models.Ref{ID: "urn:openagri:fertilizer:n1"},
		ApplicationMethod: "broadcast",
	}
	without := models.Operation{
		Kind:          models.KindFertilization,
		Type:          "FertilizationOperation",
		ID:            "urn:openagri:fertilization:f2",
		Start:         ts(8),
		End:           ts(9),
		AppliedAmount: models.QuantityValue{Unit: "kg", Value: 12},
	}
	svc := newTestService(&fakeSource{ops: []models.Operation{withFertilizer, without}}, nil, nil)

	doc, err := svc.Generate(context.Background(), models.ReportRequest{Kind: models.ReportFertilization, ParcelID: "p1"})

	require.NoError(t, err)
	assert.Equal(t, "Fertilization Operation Report", doc.Title)
	table := findTable(t, doc, "2. Fertilizations")
	assert.Equal(t, []string{"Start - End", "Dose", "Unit", "Fertilizer", "Application Method"}, table.Header)
	assert.Equal(t, []string{"03/05/2024 - 04/05/2024", "40", "kg", "Yes", "broadcast"}, table.Rows[0])
	assert.Equal(t, []string{"08/05/2024 - 09/05/2024", "12", "kg", "No", ""}, table.Rows[1])
}

func TestPesticideReportTotalsPerProductAndUnit(t *testing.T) {
	pest := func(day int, dose float64, unit, ref string) models.Operation {
		return models.Operation{
			Kind:          models.KindCropProtection,
			Type:          "CropProtectionOperation",
			ID:            "urn:openagri:pesticides:" + ref,
			Start:         ts(day),
			End:           ts(day + 1),
			AppliedAmount: models.QuantityValue{Unit: unit, Value: dose},
			Pesticide:     &models.Ref{ID: "urn:openagri:pesticide:" + ref},
		}
	}
	res := &fakeResolver{pesticides: map[string]string{
		"urn:openagri:pesticide:pa": "AphidGone",
		"urn:openagri:pesticide:pb": "BeetleX",
	}}
	ops := []models.Operation{
		pest(5, 2.5, "l", "pa"),
		pest(10, 1, "kg", "pb"),
		pest(15, 3, "l", "pa"),
	}
	svc := newTestService(&fakeSource{ops: ops}, res, nil)

	// No parcel on the request: the totals table must still appear.
	doc, err := svc.Generate(context.Background(), models.ReportRequest{Kind: models.ReportPesticides})

	require.NoError(t, err)
	table := findTable(t, doc, "2. Pesticides")
	assert.Equal(t, "AphidGone", table.Rows[0][len(table.Rows[0])-1])

	totals := findTable(t, doc, "3. Final report:")
	assert.Equal(t, []string{"Pesticide", "Total"}, totals.Header)
	assert.Equal(t, [][]string{
		{"AphidGone", "5.50 l"},
		{"BeetleX", "1.00 kg"},
	}, totals.Rows)
}

func TestReportingPeriodDefaults(t *testing.T) {
	svc := newTestService(&fakeSource{ops: []models.Operation{irrigationOp(2, 1, "")}}, nil, nil)

	doc, err := svc.Generate(context.Background(), models.ReportRequest{Kind: models.ReportIrrigation})
	require.NoError(t, err)
	assert.Equal(t, "01/06/2024 / ", detailValue(t, doc, "Reporting Period"))

	from := ts(2).Time
	to := ts(20).Time
	doc, err = svc.Generate(context.Background(), models.ReportRequest{
		Kind:     models.ReportIrrigation,
		FromDate: &from,
		ToDate:   &to,
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-02 / 2024-05-20", detailValue(t, doc, "Reporting Period"))
}
