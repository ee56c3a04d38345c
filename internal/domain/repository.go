// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"sort"
	"strings"
	"time"
)

// RepositoryIdentifier names a GitHub repository. The (Owner, Name) pair is
// its identity key and is compared case-sensitively.
type RepositoryIdentifier struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// ParseIdentifier splits an "owner/name" string. It never fails: missing
// parts are left empty so that validation can report them.
func ParseIdentifier(s string) RepositoryIdentifier {
	owner, name, _ := strings.Cut(strings.TrimSpace(s), "/")
	return RepositoryIdentifier{
		Owner: strings.TrimSpace(owner),
		Name:  strings.TrimSpace(name),
	}
}

// String returns the "owner/name" form used for chart series names.
func (id RepositoryIdentifier) String() string {
	return id.Owner + "/" + id.Name
}

// Normalize trims surrounding whitespace from both parts.
func (id RepositoryIdentifier) Normalize() RepositoryIdentifier {
	return RepositoryIdentifier{
		Owner: strings.TrimSpace(id.Owner),
		Name:  strings.TrimSpace(id.Name),
	}
}

// DataPoint is a single (timestamp, cumulative count) sample.
type DataPoint struct {
	Timestamp time.Time `json:"x"`
	Count     int       `json:"y"`
}

// Series is a chronologically ordered run of cumulative star counts.
type Series []DataPoint

// Bounds returns the smallest and largest count in the series.
// ok is false for an empty series.
func (s Series) Bounds() (lo, hi int, ok bool) {
	if len(s) == 0 {
		return 0, 0, false
	}
	lo, hi = s[0].Count, s[0].Count
	for _, p := range s[1:] {
		lo = min(lo, p.Count)
		hi = max(hi, p.Count)
	}
	return lo, hi, true
}

// CumulativeSeries turns raw starred-at timestamps into one point per UTC day
// holding the running total at the end of that day.
func CumulativeSeries(starredAt []time.Time) Series {
	sorted := make([]time.Time, len(starredAt))
	copy(sorted, starredAt)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	series := make(Series, 0)
	for i, t := range sorted {
		day := t.UTC().Truncate(24 * time.Hour)
		if n := len(series); n > 0 && series[n-1].Timestamp.Equal(day) {
			series[n-1].Count = i + 1
			continue
		}
		series = append(series, DataPoint{Timestamp: day, Count: i + 1})
	}
	return series
}

// RepositoryRecord is a successfully loaded repository. It is never mutated
// after it enters the collection.
type RepositoryRecord struct {
	ID     RepositoryIdentifier `json:"id"`
	Series Series               `json:"series"`
	Color  string               `json:"color"`
}
