package models

import "time"

type ParticipantStatus string

const (
	ParticipantStatusPending   ParticipantStatus = "pending"
	ParticipantStatusAccepted  ParticipantStatus = "accepted"
	ParticipantStatusCompleted ParticipantStatus = "completed"
	ParticipantStatusRejected  ParticipantStatus = "rejected"
)

func (s ParticipantStatus) Valid() bool {
	switch s {
	case ParticipantStatusPending, ParticipantStatusAccepted, ParticipantStatusCompleted, ParticipantStatusRejected:
		return true
	default:
		return false
	}
}

// Open reports whether the application still occupies the applicant's slot.
func (s ParticipantStatus) Open() bool {
	return s == ParticipantStatusPending || s == ParticipantStatusAccepted
}

// Participant is an application of a user to a project.
type Participant struct {
	ID             string            `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID      string            `json:"project_id" gorm:"type:uuid;not null;index"`
	UserID         string            `json:"user_id" gorm:"type:uuid;not null;index"`
	Role           string            `json:"role"`
	HoursCompleted float64           `json:"hours_completed" gorm:"not null;default:0"`
	Status         ParticipantStatus `json:"status" gorm:"type:text;not null;default:pending"`
	CreatedAt      time.Time         `json:"created_at"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`

	Project *Project `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
}

func (Participant) TableName() string {
	return "project_participants"
}
