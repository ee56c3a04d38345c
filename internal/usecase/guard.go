package usecase

import (
	"fmt"

	"github.com/naka-gawa/stargazers/internal/domain"
)

// Validate checks a load request against the current collection. Checks run
// in order and stop at the first failure: missing details, duplicate,
// capacity. It has no side effects.
func Validate(id domain.RepositoryIdentifier, records []domain.RepositoryRecord, maxRepos int) error {
	id = id.Normalize()
	if id.Owner == "" || id.Name == "" {
		return domain.NewValidationError(domain.KindMissingDetails, id, "both owner and repository name are required")
	}
	for _, r := range records {
		if r.ID == id {
			return domain.NewValidationError(domain.KindDuplicate, id, "repository %s is already loaded", id)
		}
	}
	if len(records)+1 > maxRepos {
		return domain.NewValidationError(domain.KindCapacityExceeded, id, "at most %d repositories can be shown at once", maxRepos)
	}
	return nil
}

// AlertFor maps a rejection to the title and message shown to the user.
func AlertFor(err *domain.ValidationError, maxRepos int) domain.Alert {
	alert := domain.Alert{Visible: true}
	switch err.Kind {
	case domain.KindMissingDetails:
		alert.Title = "Missing details"
		alert.Message = "Please provide both Username and Repo name"
	case domain.KindDuplicate:
		alert.Title = "Repo exists"
		alert.Message = "Repo already exists"
	case domain.KindCapacityExceeded:
		alert.Title = "Reached max number of repos allowed"
		alert.Message = fmt.Sprintf("Maximum repos that can be shown at the same time is %d", maxRepos)
	case domain.KindBusy:
		alert.Title = "Load in progress"
		alert.Message = "Wait for the current load to finish or stop it"
	default:
		alert.Title = "Invalid request"
		alert.Message = err.Message
	}
	return alert
}
