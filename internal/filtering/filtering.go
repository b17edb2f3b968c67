package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/samkraft/samkraft-api/internal/models"
)

// Filter represents a single filtering step applied to projects.
// Filters read their parameters from the spec passed to each call and keep
// no per-run state, so one set of steps may serve concurrent runs.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(spec *Spec) error
	Apply(ctx context.Context, deps Deps, spec *Spec, projects []models.Project) ([]models.Project, Step, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger *zap.Logger
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status(spec *Spec) Status
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially and returns the surviving projects.
// The input slice is never modified.
func Run(ctx context.Context, spec *Spec, deps Deps, steps []Filter, projects []models.Project) ([]models.Project, error) {
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(spec); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			if deps.Logger != nil {
				deps.Logger.Debug("filter disabled", zap.String("name", step.Name()))
			}
			continue
		}

		next, info, err := step.Apply(ctx, deps, spec, projects)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if deps.Logger != nil {
			deps.Logger.Debug("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		projects = next
	}

	return projects, nil
}

// Describe returns status entries for the provided filters as configured by spec.
func Describe(steps []Filter, spec *Spec) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status(spec))
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

// retain copies the projects accepted by keep into a new slice.
func retain(projects []models.Project, keep func(models.Project) bool) ([]models.Project, Step) {
	out := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out, Step{Initial: len(projects), Dropped: len(projects) - len(out), Left: len(out)}
}
