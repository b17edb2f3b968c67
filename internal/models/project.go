package models

import (
	"time"
)

type ProjectStatus string

const (
	ProjectStatusDraft         ProjectStatus = "draft"
	ProjectStatusPendingReview ProjectStatus = "pending_review"
	ProjectStatusInDevelopment ProjectStatus = "in_development"
	ProjectStatusActive        ProjectStatus = "active"
	ProjectStatusCompleted     ProjectStatus = "completed"
	ProjectStatusArchived      ProjectStatus = "archived"
)

// ProjectStatuses lists every project status in lifecycle order.
var ProjectStatuses = []ProjectStatus{
	ProjectStatusDraft,
	ProjectStatusPendingReview,
	ProjectStatusInDevelopment,
	ProjectStatusActive,
	ProjectStatusCompleted,
	ProjectStatusArchived,
}

func (s ProjectStatus) Valid() bool {
	for _, known := range ProjectStatuses {
		if s == known {
			return true
		}
	}
	return false
}

const VisibilityPublic = "public"

// Project is the canonical project record. Raw backend rows are converted into
// it by NormalizeProject only.
type Project struct {
	ID                  string        `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title               string        `json:"title" gorm:"not null"`
	DescriptionShort    string        `json:"description_short"`
	CategoryPrimary     string        `json:"category_primary" gorm:"index"`
	Status              ProjectStatus `json:"status" gorm:"type:text;not null;index"`
	Visibility          string        `json:"visibility" gorm:"type:text;default:public"`
	CreatedByID         string        `json:"created_by_id" gorm:"type:uuid;index"`
	Municipality        string        `json:"location_municipality" gorm:"column:location_municipality;index"`
	CreatedAt           time.Time     `json:"created_at"`
	MaxParticipants     int           `json:"max_participants" gorm:"not null;default:0"`
	CurrentParticipants int           `json:"current_participants" gorm:"not null;default:0"`
	SkillsRequired      []string      `json:"skills_required" gorm:"serializer:json;type:jsonb"`

	BudgetAllocated *float64 `json:"budget_allocated,omitempty"`
	BudgetSpent     *float64 `json:"budget_spent,omitempty"`
	ExternalLink    string   `json:"external_link,omitempty"`
	AttachmentURL   string   `json:"attachment_url,omitempty"`

	ResultSummary string     `json:"result_summary,omitempty"`
	ResultPhotos  []string   `json:"result_photos,omitempty" gorm:"serializer:json;type:jsonb"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

func (Project) TableName() string {
	return "projects"
}

// ProjectRole is a named position a project is looking to fill.
type ProjectRole struct {
	ID             string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID      string    `json:"project_id" gorm:"type:uuid;not null;index"`
	RoleName       string    `json:"role_name" gorm:"not null"`
	Description    string    `json:"description,omitempty"`
	SkillsRequired []string  `json:"skills_required" gorm:"serializer:json;type:jsonb"`
	SlotsTotal     int       `json:"slots_total" gorm:"not null;default:1"`
	SlotsFilled    int       `json:"slots_filled" gorm:"not null;default:0"`
	CreatedAt      time.Time `json:"created_at"`
}

func (ProjectRole) TableName() string {
	return "project_roles"
}

// Capacity returns the number of free places. A project is full when it is <= 0.
func (p Project) Capacity() int {
	return p.MaxParticipants - p.CurrentParticipants
}

func (p Project) IsFull() bool {
	return p.Capacity() <= 0
}
