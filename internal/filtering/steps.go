package filtering

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/samkraft/samkraft-api/internal/models"
)

// Names of the built-in steps.
const (
	StatusFilterName       = "status"
	MunicipalityFilterName = "municipality"
	CategoryFilterName     = "category"
	SkillsFilterName       = "skills"
	ExcludeFullFilterName  = "exclude_full"
)

type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

// fieldFilter retains projects whose field equals the requested value exactly.
type fieldFilter struct {
	toggle
	name  string
	pick  func(*Spec) string
	field func(models.Project) string
}

// NewStatus creates a filter that keeps projects with exactly the requested status.
func NewStatus() Filter {
	return &fieldFilter{
		name:  StatusFilterName,
		pick:  func(s *Spec) string { return s.Status },
		field: func(p models.Project) string { return string(p.Status) },
	}
}

// NewMunicipality creates a filter that keeps projects located in the requested municipality.
func NewMunicipality() Filter {
	return &fieldFilter{
		name:  MunicipalityFilterName,
		pick:  func(s *Spec) string { return s.Municipality },
		field: func(p models.Project) string { return p.Municipality },
	}
}

// NewCategory creates a filter that keeps projects of the requested primary category.
func NewCategory() Filter {
	return &fieldFilter{
		name:  CategoryFilterName,
		pick:  func(s *Spec) string { return s.Category },
		field: func(p models.Project) string { return p.CategoryPrimary },
	}
}

func (f *fieldFilter) Name() string { return f.name }

func (f *fieldFilter) Validate(*Spec) error { return nil }

func (f *fieldFilter) value(spec *Spec) string {
	if spec == nil {
		return ""
	}
	return f.pick(spec)
}

func (f *fieldFilter) Apply(_ context.Context, _ Deps, spec *Spec, projects []models.Project) ([]models.Project, Step, error) {
	value := f.value(spec)
	if value == "" {
		out, step := retain(projects, func(models.Project) bool { return true })
		return out, step, nil
	}

	out, step := retain(projects, func(p models.Project) bool { return f.field(p) == value })
	return out, step, nil
}

func (f *fieldFilter) Status(spec *Spec) Status {
	details := map[string]string{}
	if value := f.value(spec); value != "" {
		details["value"] = value
	}
	return Status{Name: f.name, Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type skillsFilter struct {
	toggle
}

// NewSkills creates a filter that keeps projects sharing at least one skill with the requested set.
func NewSkills() Filter {
	return &skillsFilter{}
}

func (f *skillsFilter) Name() string { return SkillsFilterName }

func (f *skillsFilter) Validate(spec *Spec) error {
	if spec == nil {
		return nil
	}
	_, err := ParseSkillMode(string(spec.SkillMode))
	return err
}

// request resolves the requested skill set and match mode from spec.
func (f *skillsFilter) request(spec *Spec) (map[string]struct{}, SkillMode) {
	if spec == nil {
		return nil, SkillModeStrict
	}

	mode, err := ParseSkillMode(string(spec.SkillMode))
	if err != nil {
		mode = SkillModeStrict
	}

	var skills map[string]struct{}
	for _, s := range spec.Skills {
		if s == "" {
			continue
		}
		if skills == nil {
			skills = make(map[string]struct{}, len(spec.Skills))
		}
		skills[s] = struct{}{}
	}
	return skills, mode
}

func (f *skillsFilter) Apply(_ context.Context, _ Deps, spec *Spec, projects []models.Project) ([]models.Project, Step, error) {
	skills, mode := f.request(spec)
	if len(skills) == 0 {
		out, step := retain(projects, func(models.Project) bool { return true })
		return out, step, nil
	}

	out, step := retain(projects, func(p models.Project) bool {
		if len(p.SkillsRequired) == 0 {
			return mode == SkillModeLenient
		}
		for _, s := range p.SkillsRequired {
			if _, ok := skills[s]; ok {
				return true
			}
		}
		return false
	})
	return out, step, nil
}

func (f *skillsFilter) Status(spec *Spec) Status {
	skills, mode := f.request(spec)
	details := map[string]string{"mode": string(mode)}
	if len(skills) > 0 {
		names := make([]string, 0, len(skills))
		for s := range skills {
			names = append(names, s)
		}
		slices.Sort(names)
		details["skills"] = strings.Join(names, ",")
	}
	return Status{Name: SkillsFilterName, Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type excludeFullFilter struct {
	toggle
}

// NewExcludeFull creates the opt-in filter that hides projects without free places.
// It is not part of DefaultSteps; callers prepend it when full projects must stay invisible.
func NewExcludeFull() Filter {
	return &excludeFullFilter{}
}

func (f *excludeFullFilter) Name() string { return ExcludeFullFilterName }

func (f *excludeFullFilter) Validate(*Spec) error { return nil }

func (f *excludeFullFilter) Apply(_ context.Context, deps Deps, _ *Spec, projects []models.Project) ([]models.Project, Step, error) {
	out, step := retain(projects, func(p models.Project) bool { return !p.IsFull() })
	if deps.Logger != nil && step.Dropped > 0 {
		deps.Logger.Debug("excluding full projects", zap.Int("projects_left", step.Left))
	}
	return out, step, nil
}

// ExcludeFull returns the projects that still have free places.
func ExcludeFull(projects []models.Project) []models.Project {
	out, _ := retain(projects, func(p models.Project) bool { return !p.IsFull() })
	return out
}

// DefaultSteps returns the shared pipeline stages in their fixed order.
func DefaultSteps() []Filter {
	return []Filter{
		NewStatus(),
		NewMunicipality(),
		NewCategory(),
		NewSkills(),
	}
}
