package filtering

import (
	"cmp"
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/samkraft/samkraft-api/internal/matching"
	"github.com/samkraft/samkraft-api/internal/models"
)

// Scored is a project copy with the match score computed for the viewer.
type Scored struct {
	Project    models.Project `json:"project"`
	MatchScore int            `json:"match_score"`
}

// Pipeline runs optional caller pre-filters followed by the shared stages,
// scores the survivors and sorts them.
type Pipeline struct {
	Logger *zap.Logger
	// Pre filters run before the shared stages, e.g. NewExcludeFull.
	Pre []Filter
}

func (p *Pipeline) Run(ctx context.Context, projects []models.Project, spec Spec, viewer matching.Viewer) ([]Scored, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	steps := make([]Filter, 0, len(p.Pre)+4)
	steps = append(steps, p.Pre...)
	steps = append(steps, DefaultSteps()...)

	filtered, err := Run(ctx, &spec, Deps{Logger: p.Logger}, steps, projects)
	if err != nil {
		return nil, err
	}
	if p.Logger != nil {
		p.Logger.Debug("filters applied", zap.Any("filters", Describe(steps, &spec)))
	}

	scored := ScoreAll(filtered, viewer)
	SortScored(scored, spec.sortPolicy())
	return scored, nil
}

// FilterAndSort runs the shared pipeline without pre-filters.
func FilterAndSort(projects []models.Project, spec Spec, viewer matching.Viewer) ([]Scored, error) {
	return (&Pipeline{}).Run(context.Background(), projects, spec, viewer)
}

// ScoreAll attaches a match score to a copy of every project.
func ScoreAll(projects []models.Project, viewer matching.Viewer) []Scored {
	scored := make([]Scored, 0, len(projects))
	for _, p := range projects {
		p.SkillsRequired = slices.Clone(p.SkillsRequired)
		p.ResultPhotos = slices.Clone(p.ResultPhotos)
		scored = append(scored, Scored{Project: p, MatchScore: matching.Score(p, viewer)})
	}
	return scored
}

// SortScored sorts in place, descending by the policy key. Ties keep input order.
func SortScored(scored []Scored, policy SortPolicy) {
	switch policy {
	case SortNewest:
		slices.SortStableFunc(scored, func(a, b Scored) int {
			return b.Project.CreatedAt.Compare(a.Project.CreatedAt)
		})
	case SortPopular:
		slices.SortStableFunc(scored, func(a, b Scored) int {
			return cmp.Compare(b.Project.CurrentParticipants, a.Project.CurrentParticipants)
		})
	default:
		slices.SortStableFunc(scored, func(a, b Scored) int {
			return cmp.Compare(b.MatchScore, a.MatchScore)
		})
	}
}
