package postgrest

import (
	"context"
	"fmt"

	"github.com/samkraft/samkraft-api/internal/models"
	"github.com/samkraft/samkraft-api/internal/store"
)

const participantsTable = "project_participants"

func (c *Client) CreateParticipant(ctx context.Context, p models.Participant) (models.Participant, error) {
	body := map[string]any{
		"project_id":      p.ProjectID,
		"user_id":         p.UserID,
		"role":            p.Role,
		"status":          p.Status,
		"hours_completed": p.HoursCompleted,
	}

	row, err := c.insert(ctx, participantsTable, body, nil)
	if err != nil {
		return models.Participant{}, fmt.Errorf("creating participant: %w", err)
	}

	return models.NormalizeParticipant(row)
}

func (c *Client) GetParticipant(ctx context.Context, id string) (models.Participant, error) {
	row, err := c.getOne(ctx, participantsTable, newQuery().Select("*").Eq("id", id).Values())
	if err != nil {
		return models.Participant{}, fmt.Errorf("getting participant %s: %w", id, err)
	}

	return models.NormalizeParticipant(row)
}

func (c *Client) ListParticipants(ctx context.Context, q store.ParticipantQuery) ([]models.Participant, error) {
	columns := "*"
	if q.WithProject {
		columns = "*,projects(*)"
	}
	query := newQuery().
		Select(columns).
		Eq("project_id", q.ProjectID).
		Eq("user_id", q.UserID).
		Eq("status", string(q.Status)).
		Order("created_at", true)

	rows, err := c.GetItems(ctx, participantsTable, query.Values(), 0)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}

	participants := make([]models.Participant, 0, len(rows))
	for _, row := range rows {
		p, err := models.NormalizeParticipant(row)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, nil
}

func (c *Client) UpdateParticipant(ctx context.Context, id string, patch store.ParticipantPatch) (models.Participant, error) {
	body := map[string]any{}
	if patch.Status != nil {
		body["status"] = *patch.Status
	}
	if patch.HoursCompleted != nil {
		body["hours_completed"] = *patch.HoursCompleted
	}
	if patch.CompletedAt != nil {
		body["completed_at"] = patch.CompletedAt.UTC()
	}
	if len(body) == 0 {
		return c.GetParticipant(ctx, id)
	}

	row, err := c.update(ctx, participantsTable, body, newQuery().Eq("id", id).Values())
	if err != nil {
		return models.Participant{}, fmt.Errorf("updating participant %s: %w", id, err)
	}

	return models.NormalizeParticipant(row)
}
