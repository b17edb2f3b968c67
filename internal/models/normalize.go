package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Record is a loosely typed row as it arrives from the backend.
type Record map[string]any

type rawProject struct {
	ID                   string   `mapstructure:"id"`
	Title                *string  `mapstructure:"title"`
	DescriptionShort     *string  `mapstructure:"description_short"`
	DescriptionLong      *string  `mapstructure:"description_long"`
	CategoryPrimary      *string  `mapstructure:"category_primary"`
	Status               *string  `mapstructure:"status"`
	Visibility           *string  `mapstructure:"visibility"`
	CreatedByID          *string  `mapstructure:"created_by_id"`
	CreatorID            *string  `mapstructure:"creator_id"`
	LocationMunicipality *string  `mapstructure:"location_municipality"`
	Municipality         *string  `mapstructure:"municipality"`
	CreatedAt            *string  `mapstructure:"created_at"`
	MaxParticipants      *int     `mapstructure:"max_participants"`
	CurrentParticipants  *int     `mapstructure:"current_participants"`
	SkillsRequired       []string `mapstructure:"skills_required"`
	BudgetAllocated      *float64 `mapstructure:"budget_allocated"`
	BudgetSpent          *float64 `mapstructure:"budget_spent"`
	ExternalLink         *string  `mapstructure:"external_link"`
	AttachmentURL        *string  `mapstructure:"attachment_url"`
	ResultSummary        *string  `mapstructure:"result_summary"`
	ResultPhotos         []string `mapstructure:"result_photos"`
	CompletedAt          *string  `mapstructure:"completed_at"`
}

type rawProjectRole struct {
	ID             string   `mapstructure:"id"`
	ProjectID      *string  `mapstructure:"project_id"`
	RoleName       *string  `mapstructure:"role_name"`
	Name           *string  `mapstructure:"name"`
	Description    *string  `mapstructure:"description"`
	SkillsRequired []string `mapstructure:"skills_required"`
	SlotsTotal     *int     `mapstructure:"slots_total"`
	SlotsFilled    *int     `mapstructure:"slots_filled"`
	CreatedAt      *string  `mapstructure:"created_at"`
}

type rawProfile struct {
	ID                   string  `mapstructure:"id"`
	Email                *string `mapstructure:"email"`
	FullName             *string `mapstructure:"full_name"`
	FirstName            *string `mapstructure:"first_name"`
	Role                 *string `mapstructure:"role"`
	Municipality         *string `mapstructure:"municipality"`
	LocationMunicipality *string `mapstructure:"location_municipality"`
	Bio                  *string `mapstructure:"bio"`
	AvatarURL            *string `mapstructure:"avatar_url"`
	ProfilePhotoURL      *string `mapstructure:"profile_photo_url"`
	Username             *string `mapstructure:"username"`
	Visibility           *string `mapstructure:"profile_visibility"`
	CreatedAt            *string `mapstructure:"created_at"`
}

type rawParticipant struct {
	ID             string   `mapstructure:"id"`
	ProjectID      *string  `mapstructure:"project_id"`
	UserID         *string  `mapstructure:"user_id"`
	Role           *string  `mapstructure:"role"`
	HoursCompleted *float64 `mapstructure:"hours_completed"`
	Status         *string  `mapstructure:"status"`
	CreatedAt      *string  `mapstructure:"created_at"`
	JoinedAt       *string  `mapstructure:"joined_at"`
	CompletedAt    *string  `mapstructure:"completed_at"`
	Project        any      `mapstructure:"projects"`
}

type rawUserSkill struct {
	ID               string  `mapstructure:"id"`
	UserID           *string `mapstructure:"user_id"`
	SkillID          *string `mapstructure:"skill_id"`
	ProficiencyLevel *int    `mapstructure:"proficiency_level"`
	ValidatedAt      *string `mapstructure:"validated_at"`
	Skill            any     `mapstructure:"skills"`
}

type rawCertificate struct {
	ID                 string   `mapstructure:"id"`
	UserID             *string  `mapstructure:"user_id"`
	ProjectID          *string  `mapstructure:"project_id"`
	MentorID           *string  `mapstructure:"mentor_id"`
	CertificateHash    *string  `mapstructure:"certificate_hash"`
	SkillsValidated    []string `mapstructure:"skills_validated"`
	HoursContributed   *float64 `mapstructure:"hours_contributed"`
	OutcomeDescription *string  `mapstructure:"outcome_description"`
	IssuedAt           *string  `mapstructure:"issued_at"`
	RevokedAt          *string  `mapstructure:"revoked_at"`
	Project            any      `mapstructure:"projects"`
	Holder             any      `mapstructure:"holder"`
	Mentor             any      `mapstructure:"mentor"`
}

type rawNamed struct {
	ID              string   `mapstructure:"id"`
	Name            *string  `mapstructure:"name"`
	Category        *string  `mapstructure:"category"`
	BudgetAllocated *float64 `mapstructure:"budget_allocated"`
	BudgetSpent     *float64 `mapstructure:"budget_spent"`
	Active          *bool    `mapstructure:"active"`
}

func decode(input any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	return decoder.Decode(input)
}

// NormalizeProject converts a raw project row into the canonical shape.
// Missing optional fields degrade to zero values; a row without id is rejected.
func NormalizeProject(rec Record) (Project, error) {
	var raw rawProject
	if err := decode(map[string]any(rec), &raw); err != nil {
		return Project{}, fmt.Errorf("decoding project: %w", err)
	}
	if raw.ID == "" {
		return Project{}, fmt.Errorf("project record without id")
	}

	project := Project{
		ID:                  raw.ID,
		Title:               deref(raw.Title),
		DescriptionShort:    coalesce(raw.DescriptionShort, raw.DescriptionLong),
		CategoryPrimary:     deref(raw.CategoryPrimary),
		Status:              ProjectStatus(deref(raw.Status)),
		Visibility:          deref(raw.Visibility),
		CreatedByID:         coalesce(raw.CreatedByID, raw.CreatorID),
		Municipality:        coalesce(raw.LocationMunicipality, raw.Municipality),
		CreatedAt:           parseTime(deref(raw.CreatedAt)),
		MaxParticipants:     derefInt(raw.MaxParticipants),
		CurrentParticipants: derefInt(raw.CurrentParticipants),
		SkillsRequired:      nonNil(raw.SkillsRequired),
		BudgetAllocated:     raw.BudgetAllocated,
		BudgetSpent:         raw.BudgetSpent,
		ExternalLink:        deref(raw.ExternalLink),
		AttachmentURL:       deref(raw.AttachmentURL),
		ResultSummary:       deref(raw.ResultSummary),
		ResultPhotos:        raw.ResultPhotos,
		CompletedAt:         parseOptionalTime(deref(raw.CompletedAt)),
	}

	return project, nil
}

// NormalizeProjects normalizes a list of rows, failing on the first bad one.
func NormalizeProjects(recs []Record) ([]Project, error) {
	projects := make([]Project, 0, len(recs))
	for i, rec := range recs {
		p, err := NormalizeProject(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		projects = append(projects, p)
	}
	return projects, nil
}

func NormalizeProjectRole(rec Record) (ProjectRole, error) {
	var raw rawProjectRole
	if err := decode(map[string]any(rec), &raw); err != nil {
		return ProjectRole{}, fmt.Errorf("decoding project role: %w", err)
	}
	if raw.ID == "" {
		return ProjectRole{}, fmt.Errorf("project role record without id")
	}

	role := ProjectRole{
		ID:             raw.ID,
		ProjectID:      deref(raw.ProjectID),
		RoleName:       coalesce(raw.RoleName, raw.Name),
		Description:    deref(raw.Description),
		SkillsRequired: nonNil(raw.SkillsRequired),
		SlotsTotal:     1,
		SlotsFilled:    derefInt(raw.SlotsFilled),
		CreatedAt:      parseTime(deref(raw.CreatedAt)),
	}
	if raw.SlotsTotal != nil {
		role.SlotsTotal = *raw.SlotsTotal
	}
	return role, nil
}

func NormalizeProfile(rec Record) (Profile, error) {
	var raw rawProfile
	if err := decode(map[string]any(rec), &raw); err != nil {
		return Profile{}, fmt.Errorf("decoding profile: %w", err)
	}
	if raw.ID == "" {
		return Profile{}, fmt.Errorf("profile record without id")
	}

	profile := Profile{
		ID:           raw.ID,
		Email:        deref(raw.Email),
		FullName:     coalesce(raw.FullName, raw.FirstName),
		Role:         ParseRole(deref(raw.Role)),
		Municipality: coalesce(raw.Municipality, raw.LocationMunicipality),
		Bio:          deref(raw.Bio),
		AvatarURL:    coalesce(raw.AvatarURL, raw.ProfilePhotoURL),
		Username:     deref(raw.Username),
		Visibility:   deref(raw.Visibility),
		CreatedAt:    parseTime(deref(raw.CreatedAt)),
	}
	if profile.Username == "" && profile.Email != "" {
		profile.Username = UsernameFromEmail(profile.Email)
	}

	return profile, nil
}

func NormalizeParticipant(rec Record) (Participant, error) {
	var raw rawParticipant
	if err := decode(map[string]any(rec), &raw); err != nil {
		return Participant{}, fmt.Errorf("decoding participant: %w", err)
	}
	if raw.ID == "" {
		return Participant{}, fmt.Errorf("participant record without id")
	}

	participant := Participant{
		ID:          raw.ID,
		ProjectID:   deref(raw.ProjectID),
		UserID:      deref(raw.UserID),
		Role:        deref(raw.Role),
		Status:      ParticipantStatus(deref(raw.Status)),
		CreatedAt:   parseTime(coalesce(raw.CreatedAt, raw.JoinedAt)),
		CompletedAt: parseOptionalTime(deref(raw.CompletedAt)),
	}
	if raw.HoursCompleted != nil {
		participant.HoursCompleted = *raw.HoursCompleted
	}
	if participant.Status == "" {
		participant.Status = ParticipantStatusPending
	}

	if embedded, ok := embeddedRecord(raw.Project); ok {
		project, err := NormalizeProject(embedded)
		if err != nil {
			return Participant{}, fmt.Errorf("participant %s: %w", raw.ID, err)
		}
		participant.Project = &project
	}

	return participant, nil
}

func NormalizeUserSkill(rec Record) (UserSkill, error) {
	var raw rawUserSkill
	if err := decode(map[string]any(rec), &raw); err != nil {
		return UserSkill{}, fmt.Errorf("decoding user skill: %w", err)
	}

	us := UserSkill{
		ID:               raw.ID,
		UserID:           deref(raw.UserID),
		SkillID:          deref(raw.SkillID),
		ProficiencyLevel: derefInt(raw.ProficiencyLevel),
		ValidatedAt:      parseOptionalTime(deref(raw.ValidatedAt)),
	}

	if embedded, ok := embeddedRecord(raw.Skill); ok {
		skill, err := NormalizeSkill(embedded)
		if err != nil {
			return UserSkill{}, err
		}
		us.Skill = &skill
		if us.SkillID == "" {
			us.SkillID = skill.ID
		}
	}

	return us, nil
}

func NormalizeSkill(rec Record) (Skill, error) {
	var raw rawNamed
	if err := decode(map[string]any(rec), &raw); err != nil {
		return Skill{}, fmt.Errorf("decoding skill: %w", err)
	}
	return Skill{
		ID:       raw.ID,
		Name:     deref(raw.Name),
		Category: deref(raw.Category),
	}, nil
}

func NormalizeMunicipality(rec Record) (Municipality, error) {
	var raw rawNamed
	if err := decode(map[string]any(rec), &raw); err != nil {
		return Municipality{}, fmt.Errorf("decoding municipality: %w", err)
	}
	m := Municipality{
		ID:              raw.ID,
		Name:            deref(raw.Name),
		BudgetAllocated: raw.BudgetAllocated,
		BudgetSpent:     raw.BudgetSpent,
		Active:          true,
	}
	if raw.Active != nil {
		m.Active = *raw.Active
	}
	return m, nil
}

func NormalizeCertificate(rec Record) (Certificate, error) {
	var raw rawCertificate
	if err := decode(map[string]any(rec), &raw); err != nil {
		return Certificate{}, fmt.Errorf("decoding certificate: %w", err)
	}
	if raw.ID == "" {
		return Certificate{}, fmt.Errorf("certificate record without id")
	}

	cert := Certificate{
		ID:                 raw.ID,
		UserID:             deref(raw.UserID),
		ProjectID:          deref(raw.ProjectID),
		MentorID:           deref(raw.MentorID),
		CertificateHash:    deref(raw.CertificateHash),
		SkillsValidated:    nonNil(raw.SkillsValidated),
		OutcomeDescription: deref(raw.OutcomeDescription),
		IssuedAt:           parseTime(deref(raw.IssuedAt)),
		RevokedAt:          parseOptionalTime(deref(raw.RevokedAt)),
	}
	if raw.HoursContributed != nil {
		cert.HoursContributed = *raw.HoursContributed
	}

	if embedded, ok := embeddedRecord(raw.Project); ok {
		if title, ok := embedded["title"].(string); ok {
			cert.ProjectTitle = title
		}
	}
	holder, err := embeddedProfile(raw.Holder)
	if err != nil {
		return Certificate{}, fmt.Errorf("certificate %s holder: %w", raw.ID, err)
	}
	mentor, err := embeddedProfile(raw.Mentor)
	if err != nil {
		return Certificate{}, fmt.Errorf("certificate %s mentor: %w", raw.ID, err)
	}
	cert.Holder, cert.Mentor = holder, mentor

	return cert, nil
}

func embeddedProfile(v any) (*Profile, error) {
	embedded, ok := embeddedRecord(v)
	if !ok {
		return nil, nil
	}
	if _, hasID := embedded["id"]; !hasID {
		return nil, nil
	}
	profile, err := NormalizeProfile(embedded)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// embeddedRecord unwraps an embedded resource that may arrive either as an
// object or as a one-element array.
func embeddedRecord(v any) (Record, bool) {
	switch value := v.(type) {
	case map[string]any:
		return Record(value), true
	case Record:
		return value, true
	case []any:
		if len(value) == 0 {
			return nil, false
		}
		return embeddedRecord(value[0])
	case []map[string]any:
		if len(value) == 0 {
			return nil, false
		}
		return Record(value[0]), true
	default:
		return nil, false
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// parseTime returns the zero time for empty or unparseable input.
func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func parseOptionalTime(value string) *time.Time {
	t := parseTime(value)
	if t.IsZero() {
		return nil
	}
	return &t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

// coalesce returns the first non-nil value.
func coalesce(values ...*string) string {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return ""
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
