package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/naka-gawa/stargazers/internal/domain"
)

const progressWidth = 30

var (
	alertStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#FF4560")).Padding(0, 1)
	alertTitleStyle = lipgloss.NewStyle().Bold(true)
	badgeStyle      = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#FFFFFF"))
	headerStyle     = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle       = lipgloss.NewStyle().Padding(0, 1)
	doneStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#00E396"))
)

// Alert renders the visible alert as a box, or "" when none is visible.
func Alert(a domain.Alert) string {
	if !a.Visible {
		return ""
	}
	return alertStyle.Render(alertTitleStyle.Render(a.Title) + "\n" + a.Message)
}

// Badges renders one colored badge per loaded repository.
func Badges(records []domain.RepositoryRecord) string {
	badges := make([]string, 0, len(records))
	for _, r := range records {
		badges = append(badges, badgeStyle.Background(lipgloss.Color(r.Color)).Render(r.ID.String()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, badges...)
}

// Progress renders the loading indicator, or "" when idle. Values outside
// 0..100 are drawn clamped but printed as reported.
func Progress(l domain.Loading) string {
	if !l.IsLoading {
		return ""
	}
	filled := min(max(l.Progress, 0), 100) * progressWidth / 100
	bar := doneStyle.Render(strings.Repeat("█", filled)) + strings.Repeat("░", progressWidth-filled)
	return fmt.Sprintf("%s %s %3d%%", l.Target, bar, l.Progress)
}

// SummaryTable renders the per-repository statistics.
func SummaryTable(summaries []domain.RepoSummary) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Repository", "Stars", "First star", "Days", "Avg/day", "Median gain", "Max gain").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, s := range summaries {
		first := "-"
		if !s.FirstStar.IsZero() {
			first = s.FirstStar.Format("02 Jan 2006")
		}
		t.Row(
			s.Name,
			fmt.Sprint(s.Stars),
			first,
			fmt.Sprint(s.Days),
			fmt.Sprintf("%.2f", s.AvgPerDay),
			fmt.Sprintf("%.2f", s.MedianDailyGain),
			fmt.Sprintf("%.0f", s.MaxDailyGain),
		)
	}
	return t.String()
}
