// Package projects implements project discovery, creation and status changes.
package projects

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/samkraft/samkraft-api/internal/filtering"
	"github.com/samkraft/samkraft-api/internal/lifecycle"
	"github.com/samkraft/samkraft-api/internal/logger"
	"github.com/samkraft/samkraft-api/internal/matching"
	"github.com/samkraft/samkraft-api/internal/models"
	"github.com/samkraft/samkraft-api/internal/store"
)

type Store interface {
	store.Projects
	store.Users
}

// Options are the matching settings of the service.
type Options struct {
	// ExcludeFull hides projects without free places from match results by default.
	ExcludeFull bool
	// SkillMode is the default skill filter mode.
	SkillMode filtering.SkillMode
}

type Service struct {
	store  Store
	logger *zap.Logger
	opts   Options
	now    func() time.Time
}

func NewService(s Store, l *zap.Logger, opts Options) *Service {
	return &Service{
		store:  s,
		logger: logger.WithFields(l).Named("projects"),
		opts:   opts,
		now:    time.Now,
	}
}

func (s *Service) Options() Options {
	return s.opts
}

// List returns public projects, newest first. An empty status means active.
func (s *Service) List(ctx context.Context, q store.ProjectQuery) ([]models.Project, error) {
	if q.Status == "" {
		q.Status = string(models.ProjectStatusActive)
	}
	if q.Limit <= 0 {
		q.Limit = store.DefaultListLimit
	}
	// filtered by the store so the limit counts public rows only
	q.Visibility = models.VisibilityPublic

	return s.store.ListProjects(ctx, q)
}

func (s *Service) Get(ctx context.Context, id string) (models.Project, error) {
	return s.store.GetProject(ctx, id)
}

// Detail is a project together with its roles.
type Detail struct {
	models.Project
	Roles []models.ProjectRole `json:"roles"`
}

// Detail loads a project and its roles. A failing role lookup leaves Roles empty.
func (s *Service) Detail(ctx context.Context, id string) (Detail, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return Detail{}, err
	}

	roles, err := s.store.ListProjectRoles(ctx, id)
	if err != nil {
		s.logger.Warn("listing project roles failed", zap.String("project_id", id), zap.Error(err))
		roles = nil
	}
	if roles == nil {
		roles = []models.ProjectRole{}
	}
	return Detail{Project: project, Roles: roles}, nil
}

// Viewer loads the skills and municipality of a user for ranking.
func (s *Service) Viewer(ctx context.Context, profile models.Profile) (matching.Viewer, error) {
	skills, err := s.store.ListUserSkills(ctx, profile.ID)
	if err != nil {
		return matching.Viewer{}, err
	}
	return matching.NewViewer(models.SkillNames(skills), profile.Municipality), nil
}

// MatchRequest describes a ranked listing. A nil ExcludeFull falls back to Options.
type MatchRequest struct {
	Spec        filtering.Spec
	ExcludeFull *bool
}

// Matches ranks projects for the given user.
func (s *Service) Matches(ctx context.Context, profile models.Profile, req MatchRequest) ([]filtering.Scored, error) {
	viewer, err := s.Viewer(ctx, profile)
	if err != nil {
		return nil, err
	}

	spec := req.Spec
	if spec.Status == "" {
		spec.Status = string(models.ProjectStatusActive)
	}
	if spec.SkillMode == "" {
		spec.SkillMode = s.opts.SkillMode
	}

	candidates, err := s.store.ListProjects(ctx, store.ProjectQuery{
		Status:     spec.Status,
		Visibility: models.VisibilityPublic,
	})
	if err != nil {
		return nil, err
	}

	excludeFull := s.opts.ExcludeFull
	if req.ExcludeFull != nil {
		excludeFull = *req.ExcludeFull
	}

	pipeline := &filtering.Pipeline{Logger: s.logger}
	if excludeFull {
		pipeline.Pre = append(pipeline.Pre, filtering.NewExcludeFull())
	}

	return pipeline.Run(ctx, candidates, spec, viewer)
}

type CreateInput struct {
	Title            string
	DescriptionShort string
	Category         string
	Municipality     string
	MaxParticipants  int
	SkillsRequired   []string
	BudgetAllocated  *float64
	ExternalLink     string
	AttachmentURL    string
	// Draft keeps a non-administrator project out of review.
	Draft bool
}

// Create stores a new project owned by creator. Required fields are checked by the caller.
func (s *Service) Create(ctx context.Context, creator models.Profile, in CreateInput) (models.Project, error) {
	project := models.Project{
		Title:            in.Title,
		DescriptionShort: in.DescriptionShort,
		CategoryPrimary:  in.Category,
		Status:           lifecycle.InitialStatus(creator, in.Draft),
		Visibility:       models.VisibilityPublic,
		CreatedByID:      creator.ID,
		Municipality:     in.Municipality,
		MaxParticipants:  in.MaxParticipants,
		SkillsRequired:   in.SkillsRequired,
		BudgetAllocated:  in.BudgetAllocated,
		ExternalLink:     in.ExternalLink,
		AttachmentURL:    in.AttachmentURL,
	}

	created, err := s.store.CreateProject(ctx, project)
	if err != nil {
		return models.Project{}, err
	}

	s.logger.Info("project created",
		zap.String(logger.FieldProjectID, created.ID),
		zap.String(logger.FieldUserID, creator.ID),
		zap.String("status", string(created.Status)),
	)
	return created, nil
}

// ChangeStatus moves a project to status to on behalf of actor.
func (s *Service) ChangeStatus(ctx context.Context, actor models.Profile, id string, to models.ProjectStatus, completion *lifecycle.Completion) (models.Project, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return models.Project{}, err
	}

	change, err := lifecycle.Transition(project, to, actor, completion, s.now())
	if err != nil {
		return models.Project{}, err
	}

	patch := store.ProjectPatch{Status: &change.To, CompletedAt: change.CompletedAt}
	if change.Completion != nil {
		patch.ResultSummary = &change.Completion.ResultSummary
		patch.ResultPhotos = change.Completion.ResultPhotos
	}

	updated, err := s.store.UpdateProject(ctx, id, patch)
	if err != nil {
		return models.Project{}, err
	}

	s.logger.Info("project status changed",
		zap.String(logger.FieldProjectID, id),
		zap.String(logger.FieldUserID, actor.ID),
		zap.String("from", string(change.From)),
		zap.String("to", string(change.To)),
	)
	return updated, nil
}
