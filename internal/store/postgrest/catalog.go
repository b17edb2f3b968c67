package postgrest

import (
	"context"
	"fmt"

	"github.com/samkraft/samkraft-api/internal/models"
)

func (c *Client) ListMunicipalities(ctx context.Context) ([]models.Municipality, error) {
	query := newQuery().Select("*").Eq("active", "true").Order("name", false)

	rows, err := c.GetItems(ctx, "municipalities", query.Values(), 0)
	if err != nil {
		return nil, fmt.Errorf("listing municipalities: %w", err)
	}

	out := make([]models.Municipality, 0, len(rows))
	for _, row := range rows {
		m, err := models.NormalizeMunicipality(row)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (c *Client) ListSkills(ctx context.Context, category string) ([]models.Skill, error) {
	query := newQuery().Select("*").Eq("category", category).Order("name", false)

	rows, err := c.GetItems(ctx, "skills", query.Values(), 0)
	if err != nil {
		return nil, fmt.Errorf("listing skills: %w", err)
	}

	out := make([]models.Skill, 0, len(rows))
	for _, row := range rows {
		s, err := models.NormalizeSkill(row)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
