package models

import "time"

type Certificate struct {
	ID                 string     `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID             string     `json:"user_id" gorm:"type:uuid;not null;index"`
	ProjectID          string     `json:"project_id" gorm:"type:uuid;not null"`
	MentorID           string     `json:"mentor_id,omitempty" gorm:"type:uuid"`
	CertificateHash    string     `json:"certificate_hash" gorm:"not null;uniqueIndex"`
	SkillsValidated    []string   `json:"skills_validated" gorm:"serializer:json;type:jsonb"`
	HoursContributed   float64    `json:"hours_contributed"`
	OutcomeDescription string     `json:"outcome_description,omitempty"`
	IssuedAt           time.Time  `json:"issued_at"`
	RevokedAt          *time.Time `json:"revoked_at,omitempty"`

	ProjectTitle string   `json:"project_title,omitempty" gorm:"-"`
	Holder       *Profile `json:"holder,omitempty" gorm:"-"`
	Mentor       *Profile `json:"mentor,omitempty" gorm:"-"`
}

func (Certificate) TableName() string {
	return "certificates"
}

func (c Certificate) Revoked() bool {
	return c.RevokedAt != nil
}
