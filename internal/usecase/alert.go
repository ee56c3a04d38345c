package usecase

import "github.com/naka-gawa/stargazers/internal/domain"

// AlertChannel holds at most one visible alert. A new alert replaces the
// current one.
type AlertChannel struct {
	current domain.Alert
}

// Show makes alert the visible one.
func (a *AlertChannel) Show(title, message string) {
	a.current = domain.Alert{Visible: true, Title: title, Message: message}
}

// Set replaces the slot with alert as given.
func (a *AlertChannel) Set(alert domain.Alert) {
	a.current = alert
}

// Dismiss clears the slot.
func (a *AlertChannel) Dismiss() {
	a.current = domain.Alert{}
}

// Current returns the alert state.
func (a *AlertChannel) Current() domain.Alert {
	return a.current
}
