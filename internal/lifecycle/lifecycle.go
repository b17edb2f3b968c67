// Package lifecycle holds the status rules of projects and participations.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/samkraft/samkraft-api/internal/models"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("forbidden")
)

// next is the linear lifecycle every project follows.
var next = map[models.ProjectStatus]models.ProjectStatus{
	models.ProjectStatusDraft:         models.ProjectStatusPendingReview,
	models.ProjectStatusPendingReview: models.ProjectStatusInDevelopment,
	models.ProjectStatusInDevelopment: models.ProjectStatusActive,
	models.ProjectStatusActive:        models.ProjectStatusCompleted,
	models.ProjectStatusCompleted:     models.ProjectStatusArchived,
}

// adminJumps are the extra moves municipality administrators may make.
var adminJumps = map[models.ProjectStatus][]models.ProjectStatus{
	models.ProjectStatusInDevelopment: {models.ProjectStatusActive, models.ProjectStatusCompleted},
	models.ProjectStatusActive:        {models.ProjectStatusInDevelopment, models.ProjectStatusCompleted},
}

// InitialStatus returns the status of a newly created project.
func InitialStatus(creator models.Profile, draft bool) models.ProjectStatus {
	switch {
	case creator.IsMunicipalityAdmin():
		return models.ProjectStatusActive
	case draft:
		return models.ProjectStatusDraft
	default:
		return models.ProjectStatusPendingReview
	}
}

// CanManage reports whether actor may change project p. Only the creator and
// administrators of the project's municipality qualify.
func CanManage(actor models.Profile, p models.Project) bool {
	if actor.ID != "" && actor.ID == p.CreatedByID {
		return true
	}
	return actor.AdministersMunicipality(p.Municipality)
}

// Allowed returns the statuses actor may move a project in status from to.
func Allowed(from models.ProjectStatus, actor models.Profile) []models.ProjectStatus {
	var out []models.ProjectStatus
	if to, ok := next[from]; ok {
		if from != models.ProjectStatusPendingReview || actor.IsMunicipalityAdmin() {
			out = append(out, to)
		}
	}
	if actor.IsMunicipalityAdmin() {
		for _, to := range adminJumps[from] {
			if !contains(out, to) {
				out = append(out, to)
			}
		}
	}
	return out
}

// Completion is the result data recorded when a project is completed.
type Completion struct {
	ResultSummary string
	ResultPhotos  []string
}

func (c *Completion) empty() bool {
	return c == nil || (c.ResultSummary == "" && len(c.ResultPhotos) == 0)
}

// Change is the outcome of a valid transition.
type Change struct {
	From        models.ProjectStatus
	To          models.ProjectStatus
	CompletedAt *time.Time
	Completion  *Completion
}

// Transition validates moving p to status to on behalf of actor.
func Transition(p models.Project, to models.ProjectStatus, actor models.Profile, completion *Completion, now time.Time) (Change, error) {
	if !to.Valid() {
		return Change{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	if !CanManage(actor, p) {
		return Change{}, fmt.Errorf("%w: user %s may not manage project %s", ErrForbidden, actor.ID, p.ID)
	}

	if p.Status == models.ProjectStatusPendingReview && !actor.IsMunicipalityAdmin() && next[p.Status] == to {
		return Change{}, fmt.Errorf("%w: approving a project requires a municipality administrator", ErrForbidden)
	}
	if !contains(Allowed(p.Status, actor), to) {
		return Change{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, to)
	}

	change := Change{From: p.Status, To: to}
	if to != models.ProjectStatusCompleted {
		if !completion.empty() {
			return Change{}, fmt.Errorf("%w: result data is only accepted when completing a project", ErrInvalidTransition)
		}
		return change, nil
	}

	if p.CompletedAt == nil {
		stamp := now.UTC()
		change.CompletedAt = &stamp
	}
	if !completion.empty() {
		change.Completion = completion
	}
	return change, nil
}

// ParticipantTransition validates a participation status change. Hours are
// only accepted when completing and must not be negative.
func ParticipantTransition(from, to models.ParticipantStatus, hours *float64) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown participant status %q", ErrInvalidTransition, to)
	}

	switch {
	case from == models.ParticipantStatusPending && (to == models.ParticipantStatusAccepted || to == models.ParticipantStatusRejected):
	case from == models.ParticipantStatusAccepted && to == models.ParticipantStatusCompleted:
	default:
		return fmt.Errorf("%w: participant %s -> %s", ErrInvalidTransition, from, to)
	}

	if hours == nil {
		return nil
	}
	if to != models.ParticipantStatusCompleted {
		return fmt.Errorf("%w: hours are only accepted when completing", ErrInvalidTransition)
	}
	if *hours < 0 {
		return fmt.Errorf("%w: hours must not be negative", ErrInvalidTransition)
	}
	return nil
}

func contains(list []models.ProjectStatus, s models.ProjectStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
