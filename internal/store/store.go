// Package store defines the persistence contract used by the services.
// Implementations return records already normalized into internal/models types.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/samkraft/samkraft-api/internal/models"
)

// ErrNotFound is returned when a single requested record does not exist.
var ErrNotFound = errors.New("not found")

// DefaultListLimit caps project listings when the caller does not set a limit.
const DefaultListLimit = 50

type ProjectQuery struct {
	Status       string
	Municipality string
	Category     string
	CreatedByID  string
	Visibility   string
	// Limit of zero means no limit.
	Limit int
}

type ProjectPatch struct {
	Status        *models.ProjectStatus
	ResultSummary *string
	ResultPhotos  []string
	CompletedAt   *time.Time
}

type ParticipantQuery struct {
	ProjectID string
	UserID    string
	Status    models.ParticipantStatus
	// WithProject embeds the project of every participation.
	WithProject bool
}

type ParticipantPatch struct {
	Status         *models.ParticipantStatus
	HoursCompleted *float64
	CompletedAt    *time.Time
}

type Projects interface {
	ListProjects(ctx context.Context, q ProjectQuery) ([]models.Project, error)
	GetProject(ctx context.Context, id string) (models.Project, error)
	CreateProject(ctx context.Context, p models.Project) (models.Project, error)
	UpdateProject(ctx context.Context, id string, patch ProjectPatch) (models.Project, error)
	// ListProjectRoles returns the roles of a project, oldest first.
	ListProjectRoles(ctx context.Context, projectID string) ([]models.ProjectRole, error)
}

type Participants interface {
	CreateParticipant(ctx context.Context, p models.Participant) (models.Participant, error)
	GetParticipant(ctx context.Context, id string) (models.Participant, error)
	ListParticipants(ctx context.Context, q ParticipantQuery) ([]models.Participant, error)
	UpdateParticipant(ctx context.Context, id string, patch ParticipantPatch) (models.Participant, error)
}

type Users interface {
	GetProfile(ctx context.Context, id string) (models.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (models.Profile, error)
	ListUserSkills(ctx context.Context, userID string) ([]models.UserSkill, error)
}

type Catalog interface {
	// ListMunicipalities returns active municipalities ordered by name.
	ListMunicipalities(ctx context.Context) ([]models.Municipality, error)
	// ListSkills returns skills ordered by name, optionally of one category.
	ListSkills(ctx context.Context, category string) ([]models.Skill, error)
}

type Certificates interface {
	CreateCertificate(ctx context.Context, c models.Certificate) (models.Certificate, error)
	GetCertificateByHash(ctx context.Context, hash string) (models.Certificate, error)
	// ListCertificates returns the non-revoked certificates of a user, newest first.
	ListCertificates(ctx context.Context, userID string) ([]models.Certificate, error)
}

// Store is the full backend used by the API server.
type Store interface {
	Projects
	Participants
	Users
	Catalog
	Certificates

	Ping(ctx context.Context) error
}
