package reporting

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/agriflow/reporting/internal/domain/models"
	"github.com/agriflow/reporting/internal/render"
)

// animalsReport assembles the animal registry report: a detail block for a
// single record, a chronological table for several.
func (s *Service) animalsReport(ctx context.Context, req models.ReportRequest) (*render.Document, error) {
	animals, err := s.source.Animals(ctx, req)
	if err != nil {
		return nil, err
	}

	doc := &render.Document{Title: "Animal Data Report", GeneratedAt: s.now()}
	if len(animals) == 0 {
		return noData(doc), nil
	}
	if len(animals) == 1 {
		s.appendSingleAnimal(ctx, doc, req, &animals[0])
		return doc, nil
	}

	sort.SliceStable(animals, func(i, j int) bool {
		return animals[i].CreatedAt.Time.Before(animals[j].CreatedAt.Time)
	})
	s.appendAnimalsTable(ctx, doc, req, animals)
	return doc, nil
}

func (s *Service) appendSingleAnimal(ctx context.Context, doc *render.Document, req models.ReportRequest, an *models.AnimalRecord) {
	var parcel models.ParcelContext
	var farm models.FarmContext
	if an.AgriParcel != nil && an.AgriParcel.ID != "" {
		parcel, farm = s.resolver.ResolveParcel(ctx, req.Token, an.AgriParcel.ID)
	}

	invalidated := "No"
	if d := an.InvalidatedAt.DisplayDate(); d != "" {
		invalidated = d
	}
	group := "No"
	if an.Group != nil {
		group = an.Group.Name
	}

	doc.AddSection(render.DetailList{Rows: []render.Detail{
		{Label: "Created:", Value: an.CreatedAt.DisplayDate()},
		{Label: "Parcel Location:", Value: parcel.Address},
		{Label: "Parcel Identifier:", Value: parcel.Identifier},
		{Label: "Farm information:", Value: farm.Display()},
		{Label: "Animal:", Value: fmt.Sprintf("Name: %s, Sex: %d, Birthdate %s", an.Name, an.Sex, an.Birthdate.DisplayDate())},
		{Label: "Species:", Value: an.Species},
		{Label: "Castrated:", Value: strconv.FormatBool(an.Castrated)},
		{Label: "Invalidated:", Value: invalidated},
		{Label: "Group Member:", Value: group},
	}})
}

func (s *Service) appendAnimalsTable(ctx context.Context, doc *render.Document, req models.ReportRequest, animals []models.AnimalRecord) {
	rows := make([][]string, 0, len(animals))
	for i := range animals {
		an := &animals[i]

		var parcel models.ParcelContext
		if an.AgriParcel != nil && an.AgriParcel.ID != "" {
			parcel, _ = s.resolver.ResolveParcel(ctx, req.Token, an.AgriParcel.ID)
		}

		invalidated := "N/A"
		if d := an.InvalidatedAt.DisplayDate(); d != "" {
			invalidated = d
		}
		group := "N/A"
		if an.Group != nil {
			group = an.Group.Name
		}

		rows = append(rows, []string{
			an.CreatedAt.DisplayDate(),
			an.Name,
			an.Description,
			parcel.Address,
			parcel.Identifier,
			an.Species,
			fmt.Sprintf("%s | Castrated: %t", an.SexLabel(), an.Castrated),
			an.Birthdate.DisplayDate(),
			invalidated,
			group,
		})
	}

	doc.AddSection(render.Table{
		Title:  "Animals",
		Header: []string{"Date", "Animal", "Description", "Parcel", "Parcel Identifier", "Species", "Sex", "Birthdate", "Invalidated", "Group Member"},
		Rows:   rows,
	})
}
