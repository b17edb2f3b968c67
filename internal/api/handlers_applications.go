package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/samkraft/samkraft-api/internal/auth"
	"github.com/samkraft/samkraft-api/internal/certificates"
	"github.com/samkraft/samkraft-api/internal/models"
)

type applyRequest struct {
	Role string `json:"role" validate:"omitempty,oneof=migrant volunteer mentor municipality_admin"`
}

func (s *Server) applyToProject(c echo.Context) error {
	viewer, _ := auth.Viewer(c)
	ctx := c.Request().Context()

	var req applyRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	role := req.Role
	if role == "" {
		role = string(viewer.Role)
	}

	project, err := s.deps.Projects.Get(ctx, c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			return fail(c, http.StatusNotFound, "project not found")
		}
		return err
	}
	if project.Status != models.ProjectStatusActive {
		return fail(c, http.StatusConflict, "project is not accepting applications")
	}

	participant, err := s.deps.Recorder.Apply(ctx, project.ID, viewer.ID, role)
	if err != nil {
		return err
	}
	return created(c, participant)
}

func (s *Server) myApplications(c echo.Context) error {
	viewer, _ := auth.Viewer(c)

	items, err := s.deps.Recorder.ListForUser(c.Request().Context(), viewer.ID)
	if err != nil {
		return err
	}
	return list(c, items)
}

type decisionRequest struct {
	Action string   `json:"action" validate:"required,oneof=accept reject complete"`
	Hours  *float64 `json:"hours_completed" validate:"omitempty,gte=0"`
}

func (s *Server) decideApplication(c echo.Context) error {
	viewer, _ := auth.Viewer(c)
	ctx := c.Request().Context()

	var req decisionRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	var (
		participant models.Participant
		err         error
	)
	switch req.Action {
	case "accept", "reject":
		participant, err = s.deps.Recorder.Decide(ctx, viewer, c.Param("id"), req.Action == "accept")
	case "complete":
		hours := 0.0
		if req.Hours != nil {
			hours = *req.Hours
		}
		participant, err = s.deps.Recorder.Complete(ctx, viewer, c.Param("id"), hours)
	}
	if err != nil {
		return err
	}
	return ok(c, participant)
}

type certificateRequest struct {
	SkillsValidated    []string `json:"skills_validated" validate:"dive,required"`
	OutcomeDescription string   `json:"outcome_description" validate:"max=2000"`
}

func (s *Server) issueCertificate(c echo.Context) error {
	viewer, _ := auth.Viewer(c)

	var req certificateRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	cert, err := s.deps.Issuer.Issue(c.Request().Context(), viewer, c.Param("id"), certificates.IssueInput{
		SkillsValidated:    req.SkillsValidated,
		OutcomeDescription: req.OutcomeDescription,
	})
	if err != nil {
		return err
	}
	return created(c, cert)
}
