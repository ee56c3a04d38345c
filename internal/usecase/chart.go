package usecase

import (
	"slices"

	"github.com/naka-gawa/stargazers/internal/domain"
)

const (
	chartID            = "stargazers"
	tooltipDateFormat  = "dd MMM yyyy"
	tooltipLayout      = "02 Jan 2006"
	xAxisTypeTimestamp = "datetime"
)

// Aggregate builds the chart for the given records. It is a pure function
// of its input.
//
// With a single record the y-axis is fitted to that series. With more than
// one, auto-scaling is off and every series shares one fixed range so the
// lines can be compared.
func Aggregate(records []domain.RepositoryRecord) domain.ChartSpec {
	spec := domain.ChartSpec{
		ID:      chartID,
		Series:  make([]domain.ChartSeries, 0, len(records)),
		XAxis:   domain.XAxis{Type: xAxisTypeTimestamp},
		YAxis:   domain.YAxis{AutoScale: len(records) <= 1},
		Tooltip: domain.Tooltip{DateFormat: tooltipDateFormat, Layout: tooltipLayout},
		Colors:  make([]string, 0, len(records)),
	}

	seen := false
	for _, r := range records {
		spec.Series = append(spec.Series, domain.ChartSeries{
			Name:  r.ID.String(),
			Color: r.Color,
			Data:  slices.Clone(r.Series),
		})
		spec.Colors = append(spec.Colors, r.Color)

		lo, hi, ok := r.Series.Bounds()
		if !ok {
			continue
		}
		if !seen {
			spec.YAxis.Min, spec.YAxis.Max = lo, hi
			seen = true
			continue
		}
		spec.YAxis.Min = min(spec.YAxis.Min, lo)
		spec.YAxis.Max = max(spec.YAxis.Max, hi)
	}
	return spec
}
