// Package applications records and decides applications of users to projects.
package applications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/samkraft/samkraft-api/internal/lifecycle"
	"github.com/samkraft/samkraft-api/internal/logger"
	"github.com/samkraft/samkraft-api/internal/models"
	"github.com/samkraft/samkraft-api/internal/store"
)

var (
	ErrDuplicateApplication = errors.New("duplicate application")
	// ErrProjectFull is returned when accepting an application to a project without free places.
	ErrProjectFull = errors.New("project is full")
)

// DuplicatePolicy decides whether a user may apply to the same project again.
type DuplicatePolicy string

const (
	// AllowDuplicates records every application.
	AllowDuplicates DuplicatePolicy = "allow"
	// RejectOpen rejects a new application while a pending or accepted one exists.
	RejectOpen DuplicatePolicy = "reject-open"
	// RejectAny allows a single application per user and project.
	RejectAny DuplicatePolicy = "reject-any"
)

func ParseDuplicatePolicy(value string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.TrimSpace(value)); p {
	case "":
		return AllowDuplicates, nil
	case AllowDuplicates, RejectOpen, RejectAny:
		return p, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q", value)
	}
}

// Store is the persistence the recorder needs.
type Store interface {
	store.Projects
	store.Participants
}

type Recorder struct {
	store  Store
	policy DuplicatePolicy
	logger *zap.Logger
	now    func() time.Time
}

func NewRecorder(s Store, policy DuplicatePolicy, l *zap.Logger) *Recorder {
	if policy == "" {
		policy = AllowDuplicates
	}
	return &Recorder{
		store:  s,
		policy: policy,
		logger: logger.WithFields(l).Named("applications"),
		now:    time.Now,
	}
}

func (r *Recorder) Policy() DuplicatePolicy {
	return r.policy
}

// Apply records a pending application of userID to projectID.
// Storage failures are returned unchanged.
func (r *Recorder) Apply(ctx context.Context, projectID, userID, role string) (models.Participant, error) {
	if r.policy != AllowDuplicates {
		existing, err := r.store.ListParticipants(ctx, store.ParticipantQuery{ProjectID: projectID, UserID: userID})
		if err != nil {
			return models.Participant{}, err
		}
		for _, p := range existing {
			if r.policy == RejectAny || p.Status.Open() {
				return models.Participant{}, fmt.Errorf("%w: user %s already applied to project %s (status %s)",
					ErrDuplicateApplication, userID, projectID, p.Status)
			}
		}
	}

	participant, err := r.store.CreateParticipant(ctx, models.Participant{
		ProjectID:      projectID,
		UserID:         userID,
		Role:           role,
		Status:         models.ParticipantStatusPending,
		HoursCompleted: 0,
	})
	if err != nil {
		return models.Participant{}, err
	}

	r.logger.Info("application recorded", logger.StringFields(
		logger.StringField{Key: logger.FieldApplicationID, Value: participant.ID},
		logger.StringField{Key: logger.FieldProjectID, Value: projectID},
		logger.StringField{Key: logger.FieldUserID, Value: userID},
	)...)

	return participant, nil
}

// Decide accepts or rejects a pending application on behalf of actor.
// Accepting is refused while the project is full. The participant count itself
// is maintained by the backend.
func (r *Recorder) Decide(ctx context.Context, actor models.Profile, id string, accept bool) (models.Participant, error) {
	to := models.ParticipantStatusRejected
	if accept {
		to = models.ParticipantStatusAccepted
	}

	participant, project, err := r.authorize(ctx, actor, id)
	if err != nil {
		return models.Participant{}, err
	}
	if err := lifecycle.ParticipantTransition(participant.Status, to, nil); err != nil {
		return models.Participant{}, err
	}
	if accept && project.IsFull() {
		return models.Participant{}, fmt.Errorf("%w: project %s has %d of %d places taken",
			ErrProjectFull, project.ID, project.CurrentParticipants, project.MaxParticipants)
	}

	updated, err := r.store.UpdateParticipant(ctx, id, store.ParticipantPatch{Status: &to})
	if err != nil {
		return models.Participant{}, err
	}

	r.logger.Info("application decided",
		zap.String(logger.FieldApplicationID, id),
		zap.String(logger.FieldProjectID, project.ID),
		zap.String("status", string(to)),
	)
	return updated, nil
}

// Complete finalizes an accepted participation with the contributed hours.
func (r *Recorder) Complete(ctx context.Context, actor models.Profile, id string, hours float64) (models.Participant, error) {
	participant, _, err := r.authorize(ctx, actor, id)
	if err != nil {
		return models.Participant{}, err
	}

	to := models.ParticipantStatusCompleted
	if err := lifecycle.ParticipantTransition(participant.Status, to, &hours); err != nil {
		return models.Participant{}, err
	}

	completedAt := r.now().UTC()
	updated, err := r.store.UpdateParticipant(ctx, id, store.ParticipantPatch{
		Status:         &to,
		HoursCompleted: &hours,
		CompletedAt:    &completedAt,
	})
	if err != nil {
		return models.Participant{}, err
	}

	r.logger.Info("participation completed",
		zap.String(logger.FieldApplicationID, id),
		zap.Float64("hours", hours),
	)
	return updated, nil
}

// ListForUser returns the applications of a user with their projects, newest first.
func (r *Recorder) ListForUser(ctx context.Context, userID string) ([]models.Participant, error) {
	return r.store.ListParticipants(ctx, store.ParticipantQuery{UserID: userID, WithProject: true})
}

// Get returns an application together with its project for an actor allowed to manage it.
func (r *Recorder) Get(ctx context.Context, actor models.Profile, id string) (models.Participant, models.Project, error) {
	return r.authorize(ctx, actor, id)
}

func (r *Recorder) authorize(ctx context.Context, actor models.Profile, id string) (models.Participant, models.Project, error) {
	participant, err := r.store.GetParticipant(ctx, id)
	if err != nil {
		return models.Participant{}, models.Project{}, err
	}
	project, err := r.store.GetProject(ctx, participant.ProjectID)
	if err != nil {
		return models.Participant{}, models.Project{}, err
	}
	if !lifecycle.CanManage(actor, project) {
		return models.Participant{}, models.Project{}, fmt.Errorf("%w: user %s may not manage applications of project %s",
			lifecycle.ErrForbidden, actor.ID, project.ID)
	}
	return participant, project, nil
}
