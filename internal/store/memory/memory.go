// Package memory is an in-process store used for local development and tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samkraft/samkraft-api/internal/models"
	"github.com/samkraft/samkraft-api/internal/store"
)

type Store struct {
	mu sync.RWMutex

	projects       []models.Project
	roles          []models.ProjectRole
	participants   []models.Participant
	profiles       []models.Profile
	skills         []models.Skill
	userSkills     []models.UserSkill
	municipalities []models.Municipality
	certificates   []models.Certificate

	now func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{now: time.Now}
}

// WithClock replaces the clock used to stamp created records.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) AddProject(p models.Project) models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.projects = append(s.projects, p)
	return p
}

func (s *Store) AddProjectRole(r models.ProjectRole) models.ProjectRole {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.roles = append(s.roles, r)
	return r
}

func (s *Store) AddProfile(p models.Profile) models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.profiles = append(s.profiles, p)
	return p
}

func (s *Store) AddSkill(sk models.Skill) models.Skill {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addSkillLocked(sk)
}

func (s *Store) addSkillLocked(sk models.Skill) models.Skill {
	if sk.ID == "" {
		sk.ID = uuid.NewString()
	}
	s.skills = append(s.skills, sk)
	return sk
}

// AddUserSkill links a user to a skill by name, creating the skill when unknown.
func (s *Store) AddUserSkill(userID, skillName string, level int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var skill models.Skill
	if idx := slices.IndexFunc(s.skills, func(sk models.Skill) bool { return sk.Name == skillName }); idx >= 0 {
		skill = s.skills[idx]
	} else {
		skill = s.addSkillLocked(models.Skill{Name: skillName})
	}

	s.userSkills = append(s.userSkills, models.UserSkill{
		ID:               uuid.NewString(),
		UserID:           userID,
		SkillID:          skill.ID,
		ProficiencyLevel: level,
	})
}

func (s *Store) AddMunicipality(m models.Municipality) models.Municipality {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	s.municipalities = append(s.municipalities, m)
	return m
}

func (s *Store) AddCertificate(c models.Certificate) models.Certificate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.certificates = append(s.certificates, c)
	return c
}

func (s *Store) ListProjects(_ context.Context, q store.ProjectQuery) ([]models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if q.Status != "" && string(p.Status) != q.Status {
			continue
		}
		if q.Municipality != "" && p.Municipality != q.Municipality {
			continue
		}
		if q.Category != "" && p.CategoryPrimary != q.Category {
			continue
		}
		if q.CreatedByID != "" && p.CreatedByID != q.CreatedByID {
			continue
		}
		if q.Visibility != "" && visibilityOf(p) != q.Visibility {
			continue
		}
		out = append(out, cloneProject(p))
	}

	slices.SortStableFunc(out, func(a, b models.Project) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func visibilityOf(p models.Project) string {
	if p.Visibility == "" {
		return models.VisibilityPublic
	}
	return p.Visibility
}

func (s *Store) GetProject(_ context.Context, id string) (models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.projects {
		if p.ID == id {
			return cloneProject(p), nil
		}
	}
	return models.Project{}, fmt.Errorf("project %s: %w", id, store.ErrNotFound)
}

func (s *Store) CreateProject(_ context.Context, p models.Project) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = uuid.NewString()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	if p.SkillsRequired == nil {
		p.SkillsRequired = []string{}
	}
	s.projects = append(s.projects, p)
	return cloneProject(p), nil
}

func (s *Store) ListProjectRoles(_ context.Context, projectID string) ([]models.ProjectRole, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ProjectRole, 0)
	for _, r := range s.roles {
		if r.ProjectID == projectID {
			r.SkillsRequired = slices.Clone(r.SkillsRequired)
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b models.ProjectRole) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (s *Store) UpdateProject(_ context.Context, id string, patch store.ProjectPatch) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.projects {
		if s.projects[i].ID != id {
			continue
		}
		p := &s.projects[i]
		if patch.Status != nil {
			p.Status = *patch.Status
		}
		if patch.ResultSummary != nil {
			p.ResultSummary = *patch.ResultSummary
		}
		if patch.ResultPhotos != nil {
			p.ResultPhotos = slices.Clone(patch.ResultPhotos)
		}
		if patch.CompletedAt != nil {
			p.CompletedAt = patch.CompletedAt
		}
		return cloneProject(*p), nil
	}
	return models.Project{}, fmt.Errorf("project %s: %w", id, store.ErrNotFound)
}

func (s *Store) CreateParticipant(_ context.Context, p models.Participant) (models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = uuid.NewString()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	p.Project = nil
	s.participants = append(s.participants, p)
	return p, nil
}

func (s *Store) GetParticipant(_ context.Context, id string) (models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.participants {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Participant{}, fmt.Errorf("participant %s: %w", id, store.ErrNotFound)
}

func (s *Store) ListParticipants(_ context.Context, q store.ParticipantQuery) ([]models.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Participant, 0)
	for _, p := range s.participants {
		if q.ProjectID != "" && p.ProjectID != q.ProjectID {
			continue
		}
		if q.UserID != "" && p.UserID != q.UserID {
			continue
		}
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		if q.WithProject {
			for _, project := range s.projects {
				if project.ID == p.ProjectID {
					embedded := cloneProject(project)
					p.Project = &embedded
					break
				}
			}
		}
		out = append(out, p)
	}

	slices.SortStableFunc(out, func(a, b models.Participant) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (s *Store) UpdateParticipant(_ context.Context, id string, patch store.ParticipantPatch) (models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.participants {
		if s.participants[i].ID != id {
			continue
		}
		p := &s.participants[i]
		if patch.Status != nil {
			p.Status = *patch.Status
		}
		if patch.HoursCompleted != nil {
			p.HoursCompleted = *patch.HoursCompleted
		}
		if patch.CompletedAt != nil {
			p.CompletedAt = patch.CompletedAt
		}
		return *p, nil
	}
	return models.Participant{}, fmt.Errorf("participant %s: %w", id, store.ErrNotFound)
}

func (s *Store) GetProfile(_ context.Context, id string) (models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Profile{}, fmt.Errorf("profile %s: %w", id, store.ErrNotFound)
}

func (s *Store) GetProfileByUsername(_ context.Context, username string) (models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.profiles {
		if p.Username == username {
			return p, nil
		}
	}
	return models.Profile{}, fmt.Errorf("profile %q: %w", username, store.ErrNotFound)
}

func (s *Store) ListUserSkills(_ context.Context, userID string) ([]models.UserSkill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.UserSkill, 0)
	for _, us := range s.userSkills {
		if us.UserID != userID {
			continue
		}
		for _, sk := range s.skills {
			if sk.ID == us.SkillID {
				skill := sk
				us.Skill = &skill
				break
			}
		}
		out = append(out, us)
	}
	return out, nil
}

func (s *Store) ListMunicipalities(context.Context) ([]models.Municipality, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Municipality, 0, len(s.municipalities))
	for _, m := range s.municipalities {
		if m.Active {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Municipality) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *Store) ListSkills(_ context.Context, category string) ([]models.Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Skill, 0, len(s.skills))
	for _, sk := range s.skills {
		if category == "" || sk.Category == category {
			out = append(out, sk)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Skill) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *Store) CreateCertificate(_ context.Context, c models.Certificate) (models.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.NewString()
	if c.IssuedAt.IsZero() {
		c.IssuedAt = s.now().UTC()
	}
	s.certificates = append(s.certificates, c)
	return c, nil
}

// GetCertificateByHash returns a non-revoked certificate.
func (s *Store) GetCertificateByHash(_ context.Context, hash string) (models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.certificates {
		if c.CertificateHash != hash || c.Revoked() {
			continue
		}
		if c.ProjectTitle == "" {
			for _, p := range s.projects {
				if p.ID == c.ProjectID {
					c.ProjectTitle = p.Title
					break
				}
			}
		}
		for _, p := range s.profiles {
			profile := p
			if p.ID == c.UserID {
				c.Holder = &profile
			}
			if c.MentorID != "" && p.ID == c.MentorID {
				c.Mentor = &profile
			}
		}
		return c, nil
	}
	return models.Certificate{}, fmt.Errorf("certificate: %w", store.ErrNotFound)
}

func (s *Store) ListCertificates(_ context.Context, userID string) ([]models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Certificate, 0)
	for _, c := range s.certificates {
		if c.UserID == userID && !c.Revoked() {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Certificate) int { return b.IssuedAt.Compare(a.IssuedAt) })
	return out, nil
}

func cloneProject(p models.Project) models.Project {
	p.SkillsRequired = slices.Clone(p.SkillsRequired)
	p.ResultPhotos = slices.Clone(p.ResultPhotos)
	return p
}
