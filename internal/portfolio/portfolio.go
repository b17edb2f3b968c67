// Package portfolio assembles the public record of a user's contributions.
package portfolio

import (
	"context"
	"fmt"
	"time"

	"github.com/samkraft/samkraft-api/internal/models"
	"github.com/samkraft/samkraft-api/internal/store"
)

type Store interface {
	store.Users
	store.Participants
	store.Certificates
}

type PublicProfile struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	FullName     string      `json:"full_name"`
	AvatarURL    string      `json:"avatar_url,omitempty"`
	Bio          string      `json:"bio,omitempty"`
	Municipality string      `json:"municipality,omitempty"`
	Role         models.Role `json:"role"`
	CreatedAt    time.Time   `json:"created_at"`
}

type ProjectEntry struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	CategoryPrimary string     `json:"category_primary"`
	Municipality    string     `json:"location_municipality"`
	HoursCompleted  float64    `json:"hours_completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

type CertificateEntry struct {
	ID               string    `json:"id"`
	CertificateHash  string    `json:"certificate_hash"`
	SkillsValidated  []string  `json:"skills_validated"`
	HoursContributed float64   `json:"hours_contributed"`
	IssuedAt         time.Time `json:"issued_at"`
	ProjectTitle     string    `json:"project_title,omitempty"`
}

type SkillEntry struct {
	Name        string     `json:"name"`
	Category    string     `json:"category,omitempty"`
	Proficiency int        `json:"proficiency"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
}

type Stats struct {
	TotalProjects     int     `json:"total_projects"`
	TotalCertificates int     `json:"total_certificates"`
	TotalSkills       int     `json:"total_skills"`
	ImpactScore       float64 `json:"impact_score"`
}

type Portfolio struct {
	User         PublicProfile      `json:"user"`
	Projects     []ProjectEntry     `json:"projects"`
	Certificates []CertificateEntry `json:"certificates"`
	Skills       []SkillEntry       `json:"skills"`
	Stats        Stats              `json:"stats"`
}

// Build returns the portfolio of the user with the given username (or id).
// Private profiles are reported as store.ErrNotFound.
func Build(ctx context.Context, s Store, username string) (Portfolio, error) {
	profile, err := s.GetProfileByUsername(ctx, username)
	if err != nil {
		return Portfolio{}, err
	}
	if profile.Visibility != "" && profile.Visibility != models.VisibilityPublic {
		return Portfolio{}, fmt.Errorf("profile %q is private: %w", username, store.ErrNotFound)
	}

	participations, err := s.ListParticipants(ctx, store.ParticipantQuery{
		UserID:      profile.ID,
		Status:      models.ParticipantStatusCompleted,
		WithProject: true,
	})
	if err != nil {
		return Portfolio{}, err
	}
	certs, err := s.ListCertificates(ctx, profile.ID)
	if err != nil {
		return Portfolio{}, err
	}
	userSkills, err := s.ListUserSkills(ctx, profile.ID)
	if err != nil {
		return Portfolio{}, err
	}

	p := Portfolio{
		User: PublicProfile{
			ID:           profile.ID,
			Username:     profile.Username,
			FullName:     profile.FullName,
			AvatarURL:    profile.AvatarURL,
			Bio:          profile.Bio,
			Municipality: profile.Municipality,
			Role:         profile.Role,
			CreatedAt:    profile.CreatedAt,
		},
		Projects:     make([]ProjectEntry, 0, len(participations)),
		Certificates: make([]CertificateEntry, 0, len(certs)),
		Skills:       make([]SkillEntry, 0, len(userSkills)),
	}

	for _, part := range participations {
		entry := ProjectEntry{
			ID:             part.ProjectID,
			HoursCompleted: part.HoursCompleted,
			CompletedAt:    part.CompletedAt,
		}
		if part.Project != nil {
			entry.Title = part.Project.Title
			entry.CategoryPrimary = part.Project.CategoryPrimary
			entry.Municipality = part.Project.Municipality
		}
		p.Projects = append(p.Projects, entry)
		p.Stats.ImpactScore += part.HoursCompleted
	}

	for _, c := range certs {
		if c.Revoked() {
			continue
		}
		p.Certificates = append(p.Certificates, CertificateEntry{
			ID:               c.ID,
			CertificateHash:  c.CertificateHash,
			SkillsValidated:  c.SkillsValidated,
			HoursContributed: c.HoursContributed,
			IssuedAt:         c.IssuedAt,
			ProjectTitle:     c.ProjectTitle,
		})
	}

	for _, us := range userSkills {
		if us.Skill == nil {
			continue
		}
		p.Skills = append(p.Skills, SkillEntry{
			Name:        us.Skill.Name,
			Category:    us.Skill.Category,
			Proficiency: us.ProficiencyLevel,
			ValidatedAt: us.ValidatedAt,
		})
	}

	p.Stats.TotalProjects = len(p.Projects)
	p.Stats.TotalCertificates = len(p.Certificates)
	p.Stats.TotalSkills = len(p.Skills)

	return p, nil
}
