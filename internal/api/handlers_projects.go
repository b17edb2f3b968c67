package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/samkraft/samkraft-api/internal/auth"
	"github.com/samkraft/samkraft-api/internal/filtering"
	"github.com/samkraft/samkraft-api/internal/lifecycle"
	"github.com/samkraft/samkraft-api/internal/models"
	"github.com/samkraft/samkraft-api/internal/projects"
	"github.com/samkraft/samkraft-api/internal/store"
)

func (s *Server) listProjects(c echo.Context) error {
	status := c.QueryParam("status")
	if status != "" && !models.ProjectStatus(status).Valid() {
		return fail(c, http.StatusBadRequest, "unknown status "+strconv.Quote(status))
	}

	items, err := s.deps.Projects.List(c.Request().Context(), store.ProjectQuery{
		Status:       status,
		Municipality: c.QueryParam("municipality"),
		Category:     c.QueryParam("category"),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to fetch projects").WithInternal(err)
	}
	return list(c, items)
}

func (s *Server) getProject(c echo.Context) error {
	detail, err := s.deps.Projects.Detail(c.Request().Context(), c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			return fail(c, http.StatusNotFound, "project not found")
		}
		return err
	}
	return ok(c, detail)
}

func (s *Server) matchProjects(c echo.Context) error {
	viewer, _ := auth.Viewer(c)

	sort, err := filtering.ParseSortPolicy(c.QueryParam("sort"))
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	var mode filtering.SkillMode
	if raw := c.QueryParam("skill_mode"); raw != "" {
		if mode, err = filtering.ParseSkillMode(raw); err != nil {
			return fail(c, http.StatusBadRequest, err.Error())
		}
	}
	status := c.QueryParam("status")
	if status != "" && !models.ProjectStatus(status).Valid() {
		return fail(c, http.StatusBadRequest, "unknown status "+strconv.Quote(status))
	}

	req := projects.MatchRequest{
		Spec: filtering.Spec{
			Status:       status,
			Municipality: c.QueryParam("municipality"),
			Category:     c.QueryParam("category"),
			Skills:       splitList(c.QueryParam("skills")),
			Sort:         sort,
			SkillMode:    mode,
		},
	}
	if raw := c.QueryParam("exclude_full"); raw != "" {
		excludeFull, err := strconv.ParseBool(raw)
		if err != nil {
			return fail(c, http.StatusBadRequest, "exclude_full must be a boolean")
		}
		req.ExcludeFull = &excludeFull
	}

	scored, err := s.deps.Projects.Matches(c.Request().Context(), viewer, req)
	if err != nil {
		return err
	}
	return list(c, scored)
}

type createProjectRequest struct {
	Title            string   `json:"title" validate:"required"`
	DescriptionShort string   `json:"description_short"`
	Category         string   `json:"category_primary" validate:"required"`
	Municipality     string   `json:"location_municipality" validate:"required"`
	MaxParticipants  int      `json:"max_participants" validate:"gte=0"`
	SkillsRequired   []string `json:"skills_required" validate:"dive,required"`
	BudgetAllocated  *float64 `json:"budget_allocated" validate:"omitempty,gte=0"`
	ExternalLink     string   `json:"external_link" validate:"omitempty,url"`
	AttachmentURL    string   `json:"attachment_url" validate:"omitempty,url"`
	Draft            bool     `json:"draft"`
}

func (r *createProjectRequest) trim() {
	r.Title = strings.TrimSpace(r.Title)
	r.Category = strings.TrimSpace(r.Category)
	r.Municipality = strings.TrimSpace(r.Municipality)
	r.DescriptionShort = strings.TrimSpace(r.DescriptionShort)
	for i := range r.SkillsRequired {
		r.SkillsRequired[i] = strings.TrimSpace(r.SkillsRequired[i])
	}
}

func (s *Server) createProject(c echo.Context) error {
	viewer, _ := auth.Viewer(c)

	var req createProjectRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	req.trim()
	if err := V.Struct(req); err != nil {
		return err
	}

	project, err := s.deps.Projects.Create(c.Request().Context(), viewer, projects.CreateInput{
		Title:            req.Title,
		DescriptionShort: req.DescriptionShort,
		Category:         req.Category,
		Municipality:     req.Municipality,
		MaxParticipants:  req.MaxParticipants,
		SkillsRequired:   req.SkillsRequired,
		BudgetAllocated:  req.BudgetAllocated,
		ExternalLink:     req.ExternalLink,
		AttachmentURL:    req.AttachmentURL,
		Draft:            req.Draft,
	})
	if err != nil {
		return err
	}
	return created(c, project)
}

type statusRequest struct {
	Status        string   `json:"status" validate:"required"`
	ResultSummary string   `json:"result_summary"`
	ResultPhotos  []string `json:"result_photos" validate:"dive,required"`
}

func (s *Server) changeProjectStatus(c echo.Context) error {
	viewer, _ := auth.Viewer(c)

	var req statusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	var completion *lifecycle.Completion
	if req.ResultSummary != "" || len(req.ResultPhotos) > 0 {
		completion = &lifecycle.Completion{ResultSummary: req.ResultSummary, ResultPhotos: req.ResultPhotos}
	}

	project, err := s.deps.Projects.ChangeStatus(c.Request().Context(), viewer, c.Param("id"), models.ProjectStatus(req.Status), completion)
	if err != nil {
		return err
	}
	return ok(c, project)
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
