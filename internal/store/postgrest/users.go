package postgrest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/samkraft/samkraft-api/internal/models"
)

const (
	usersTable      = "users"
	userSkillsTable = "user_skills"
)

func (c *Client) GetProfile(ctx context.Context, id string) (models.Profile, error) {
	row, err := c.getOne(ctx, usersTable, newQuery().Select("*").Eq("id", id).Values())
	if err != nil {
		return models.Profile{}, fmt.Errorf("getting profile %s: %w", id, err)
	}

	return models.NormalizeProfile(row)
}

// GetProfileByUsername looks a profile up by username. Values that parse as a
// UUID fall back to an id lookup when no username matches.
func (c *Client) GetProfileByUsername(ctx context.Context, username string) (models.Profile, error) {
	row, err := c.getOne(ctx, usersTable, newQuery().Select("*").Eq("username", username).Values())
	if isNotFound(err) {
		if _, parseErr := uuid.Parse(username); parseErr == nil {
			return c.GetProfile(ctx, username)
		}
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("getting profile %q: %w", username, err)
	}

	return models.NormalizeProfile(row)
}

func (c *Client) ListUserSkills(ctx context.Context, userID string) ([]models.UserSkill, error) {
	query := newQuery().
		Select("id,user_id,skill_id,proficiency_level,validated_at,skills(id,name,category)").
		Eq("user_id", userID)

	rows, err := c.GetItems(ctx, userSkillsTable, query.Values(), 0)
	if err != nil {
		return nil, fmt.Errorf("listing skills of user %s: %w", userID, err)
	}

	skills := make([]models.UserSkill, 0, len(rows))
	for _, row := range rows {
		us, err := models.NormalizeUserSkill(row)
		if err != nil {
			return nil, err
		}
		skills = append(skills, us)
	}
	return skills, nil
}
