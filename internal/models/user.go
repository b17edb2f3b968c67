package models

import (
	"strings"
	"time"

	"github.com/gosimple/slug"
)

type Role string

const (
	RoleMigrant           Role = "migrant"
	RoleVolunteer         Role = "volunteer"
	RoleMentor            Role = "mentor"
	RoleMunicipalityAdmin Role = "municipality_admin"
)

// ParseRole maps unknown or empty roles to volunteer.
func ParseRole(role string) Role {
	switch r := Role(strings.TrimSpace(role)); r {
	case RoleMigrant, RoleVolunteer, RoleMentor, RoleMunicipalityAdmin:
		return r
	default:
		return RoleVolunteer
	}
}

type Profile struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string    `json:"email,omitempty" gorm:"uniqueIndex"`
	FullName     string    `json:"full_name"`
	Role         Role      `json:"role" gorm:"type:text;not null;default:volunteer"`
	Municipality string    `json:"municipality"`
	Bio          string    `json:"bio,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Username     string    `json:"username" gorm:"uniqueIndex"`
	Visibility   string    `json:"profile_visibility,omitempty" gorm:"column:profile_visibility;default:public"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Profile) TableName() string {
	return "users"
}

func (p Profile) IsMunicipalityAdmin() bool {
	return p.Role == RoleMunicipalityAdmin
}

// AdministersMunicipality reports whether the profile is an administrator of the given municipality.
func (p Profile) AdministersMunicipality(municipality string) bool {
	return p.IsMunicipalityAdmin() && p.Municipality != "" && p.Municipality == municipality
}

// UsernameFromEmail derives a username from the local part of an email address.
func UsernameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	return slug.Make(local)
}

type UserSkill struct {
	ID               string     `json:"id,omitempty" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID           string     `json:"user_id" gorm:"type:uuid;not null;index"`
	SkillID          string     `json:"skill_id" gorm:"type:uuid;not null"`
	ProficiencyLevel int        `json:"proficiency_level"`
	ValidatedAt      *time.Time `json:"validated_at,omitempty"`
	Skill            *Skill     `json:"skill,omitempty" gorm:"foreignKey:SkillID"`
}

func (UserSkill) TableName() string {
	return "user_skills"
}

// SkillNames returns the distinct skill names of the given user skills in input order.
func SkillNames(skills []UserSkill) []string {
	seen := make(map[string]struct{}, len(skills))
	names := make([]string, 0, len(skills))
	for _, s := range skills {
		if s.Skill == nil || s.Skill.Name == "" {
			continue
		}
		if _, ok := seen[s.Skill.Name]; ok {
			continue
		}
		seen[s.Skill.Name] = struct{}{}
		names = append(names, s.Skill.Name)
	}
	return names
}
