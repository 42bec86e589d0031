package aggregate

import (
	"sort"
	"time"

	"github.com/agriflow/reporting/internal/domain/models"
)

// Summary holds the order statistics of one numeric series.
type Summary struct {
	Sum   float64
	Mean  float64
	Max   float64
	Min   float64
	Count int
}

// Summarize computes sum, mean, max and min over the series in one pass.
// An empty series yields the zero Summary with Count 0, never an error.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	s := Summary{
		Max:   values[0],
		Min:   values[0],
		Count: len(values),
	}
	for _, v := range values {
		s.Sum += v
		if v > s.Max {
			s.Max = v
		}
		if v < s.Min {
			s.Min = v
		}
	}
	s.Mean = s.Sum / float64(s.Count)
	return s
}

// DosePoint pairs one operation's start date with its dose and the derived
// total volume (dose × parcel hectares).
type DosePoint struct {
	Date   time.Time
	Dose   float64
	Volume float64
}

// DoseSeries derives the chart series of an irrigation report: one point per
// operation in input order. Operations without a start date contribute a
// zero-time point; callers sort before charting.
func DoseSeries(ops []models.Operation, hectares int) []DosePoint {
	points := make([]DosePoint, 0, len(ops))
	for _, op := range ops {
		p := DosePoint{Dose: op.Dose()}
		p.Volume = p.Dose * float64(hectares)
		if op.Start != nil {
			p.Date = op.Start.Time
		}
		points = append(points, p)
	}
	return points
}

// Doses extracts the dose column of a point series.
func Doses(points []DosePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Dose
	}
	return out
}

// Volumes extracts the total-volume column of a point series.
func Volumes(points []DosePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Volume
	}
	return out
}

// CategoryDose is one dose contribution attributed to a named category,
// e.g. a commercial pesticide name.
type CategoryDose struct {
	Name string
	Unit string
	Dose float64
}

// CategoryTotal is the accumulated dose of one (category, unit) pair.
type CategoryTotal struct {
	Name  string
	Unit  string
	Total float64
}

// TotalsByCategory groups dose contributions by the (name, unit) pair;
// distinct units of the same category are never combined. Output is ordered
// by name, then unit.
func TotalsByCategory(doses []CategoryDose) []CategoryTotal {
	type key struct {
		name string
		unit string
	}
	sums := make(map[key]float64, len(doses))
	for _, d := range doses {
		sums[key{d.Name, d.Unit}] += d.Dose
	}

	totals := make([]CategoryTotal, 0, len(sums))
	for k, total := range sums {
		totals = append(totals, CategoryTotal{Name: k.name, Unit: k.unit, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Name != totals[j].Name {
			return totals[i].Name < totals[j].Name
		}
		return totals[i].Unit < totals[j].Unit
	})
	return totals
}
