package domain

// Alert is the single-slot notification shown to the user.
type Alert struct {
	Visible bool   `json:"visible"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Loading is the loading indicator for the active session, if any.
type Loading struct {
	IsLoading bool   `json:"is_loading"`
	Progress  int    `json:"progress"`
	Target    string `json:"target,omitempty"`
}

// ChartSpec is the derived, render-ready description of the stargazer chart.
type ChartSpec struct {
	ID      string        `json:"id"`
	Series  []ChartSeries `json:"series"`
	XAxis   XAxis         `json:"xaxis"`
	YAxis   YAxis         `json:"yaxis"`
	Tooltip Tooltip       `json:"tooltip"`
	Colors  []string      `json:"colors"`
}

// ChartSeries is one repository's line on the chart.
type ChartSeries struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Data  Series `json:"data"`
}

// XAxis is always a shared time axis.
type XAxis struct {
	Type string `json:"type"`
}

// YAxis describes the count axis. Min and Max are the range the renderer must
// use; AutoScale marks whether that range was fitted to a single series.
type YAxis struct {
	AutoScale bool `json:"auto_scale"`
	Min       int  `json:"min"`
	Max       int  `json:"max"`
}

// Tooltip carries the date format in both display notation and Go layout.
type Tooltip struct {
	DateFormat string `json:"date_format"`
	Layout     string `json:"-"`
}

// State is an observable snapshot of the whole application.
type State struct {
	Alert   Alert              `json:"alert"`
	Loading Loading            `json:"loading"`
	Repos   []RepositoryRecord `json:"repos"`
	Chart   ChartSpec          `json:"chart"`
}
