package usecase

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/stargazers/internal/domain"
)

// Summarize computes the statistics table for the loaded repositories, in
// collection order.
func Summarize(records []domain.RepositoryRecord) ([]domain.RepoSummary, error) {
	summaries := make([]domain.RepoSummary, 0, len(records))
	for _, r := range records {
		summary, err := summarize(r)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize %s: %w", r.ID, err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func summarize(r domain.RepositoryRecord) (domain.RepoSummary, error) {
	summary := domain.RepoSummary{Name: r.ID.String()}
	if len(r.Series) == 0 {
		return summary, nil
	}

	first, last := r.Series[0], r.Series[len(r.Series)-1]
	summary.Stars = last.Count
	summary.FirstStar = first.Timestamp
	summary.LastStar = last.Timestamp
	summary.Days = int(last.Timestamp.Sub(first.Timestamp).Hours()/24) + 1
	summary.AvgPerDay = round2(float64(last.Count) / float64(summary.Days))

	// Gains per recorded day; days without new stars are not in the series.
	gains := make(stats.Float64Data, 0, len(r.Series))
	prev := 0
	for _, p := range r.Series {
		gains = append(gains, float64(p.Count-prev))
		prev = p.Count
	}

	median, err := stats.Median(gains)
	if err != nil {
		return summary, err
	}
	maxGain, err := stats.Max(gains)
	if err != nil {
		return summary, err
	}
	summary.MedianDailyGain = round2(median)
	summary.MaxDailyGain = maxGain
	return summary, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
