package domain

import "time"

// RepoSummary holds the headline numbers for a single loaded repository.
// It backs the statistics table shown under the chart.
type RepoSummary struct {
	Name            string    `json:"name"`
	Stars           int       `json:"stars"`
	FirstStar       time.Time `json:"first_star,omitempty"`
	LastStar        time.Time `json:"last_star,omitempty"`
	Days            int       `json:"days"`
	AvgPerDay       float64   `json:"avg_per_day"`
	MedianDailyGain float64   `json:"median_daily_gain"`
	MaxDailyGain    float64   `json:"max_daily_gain"`
}
