package postgrest

import (
	"context"
	"errors"
	"fmt"

	"github.com/samkraft/samkraft-api/internal/models"
	"github.com/samkraft/samkraft-api/internal/store"
)

const (
	projectsTable     = "projects"
	projectRolesTable = "project_roles"
)

func (c *Client) ListProjects(ctx context.Context, q store.ProjectQuery) ([]models.Project, error) {
	query := newQuery().
		Select("*").
		Eq("status", q.Status).
		Eq("location_municipality", q.Municipality).
		Eq("category_primary", q.Category).
		Eq("created_by_id", q.CreatedByID).
		Order("created_at", true)

	// rows written before the visibility column existed count as public
	if q.Visibility == models.VisibilityPublic {
		query.Or("visibility.eq."+models.VisibilityPublic, "visibility.is.null")
	} else {
		query.Eq("visibility", q.Visibility)
	}

	rows, err := c.GetItems(ctx, projectsTable, query.Values(), q.Limit)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	return models.NormalizeProjects(rows)
}

func (c *Client) GetProject(ctx context.Context, id string) (models.Project, error) {
	row, err := c.getOne(ctx, projectsTable, newQuery().Select("*").Eq("id", id).Values())
	if err != nil {
		return models.Project{}, fmt.Errorf("getting project %s: %w", id, err)
	}

	return models.NormalizeProject(row)
}

func (c *Client) CreateProject(ctx context.Context, p models.Project) (models.Project, error) {
	body := map[string]any{
		"title":                 p.Title,
		"description_short":     p.DescriptionShort,
		"category_primary":      p.CategoryPrimary,
		"status":                p.Status,
		"created_by_id":         p.CreatedByID,
		"location_municipality": p.Municipality,
		"max_participants":      p.MaxParticipants,
		"current_participants":  p.CurrentParticipants,
		"skills_required":       nonNil(p.SkillsRequired),
	}
	if p.Visibility != "" {
		body["visibility"] = p.Visibility
	}
	if p.BudgetAllocated != nil {
		body["budget_allocated"] = *p.BudgetAllocated
	}
	if p.ExternalLink != "" {
		body["external_link"] = p.ExternalLink
	}
	if p.AttachmentURL != "" {
		body["attachment_url"] = p.AttachmentURL
	}

	row, err := c.insert(ctx, projectsTable, body, nil)
	if err != nil {
		return models.Project{}, fmt.Errorf("creating project: %w", err)
	}

	return models.NormalizeProject(row)
}

func (c *Client) UpdateProject(ctx context.Context, id string, patch store.ProjectPatch) (models.Project, error) {
	body := map[string]any{}
	if patch.Status != nil {
		body["status"] = *patch.Status
	}
	if patch.ResultSummary != nil {
		body["result_summary"] = *patch.ResultSummary
	}
	if patch.ResultPhotos != nil {
		body["result_photos"] = patch.ResultPhotos
	}
	if patch.CompletedAt != nil {
		body["completed_at"] = patch.CompletedAt.UTC()
	}
	if len(body) == 0 {
		return c.GetProject(ctx, id)
	}

	row, err := c.update(ctx, projectsTable, body, newQuery().Eq("id", id).Values())
	if err != nil {
		return models.Project{}, fmt.Errorf("updating project %s: %w", id, err)
	}

	return models.NormalizeProject(row)
}

func (c *Client) ListProjectRoles(ctx context.Context, projectID string) ([]models.ProjectRole, error) {
	query := newQuery().
		Select("*").
		Eq("project_id", projectID).
		Order("created_at", false)

	rows, err := c.GetItems(ctx, projectRolesTable, query.Values(), 0)
	if err != nil {
		return nil, fmt.Errorf("listing roles of project %s: %w", projectID, err)
	}

	roles := make([]models.ProjectRole, 0, len(rows))
	for _, row := range rows {
		role, err := models.NormalizeProjectRole(row)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
