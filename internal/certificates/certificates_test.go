package certificates

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samkraft/samkraft-api/internal/lifecycle"
	"github.com/samkraft/samkraft-api/internal/models"
	"github.com/samkraft/samkraft-api/internal/store"
	"github.com/samkraft/samkraft-api/internal/store/memory"
)

var mentor = models.Profile{ID: "mentor", Role: models.RoleMentor, Municipality: "Oslo"}

func setup(t *testing.T, status models.ParticipantStatus) (*Issuer, *memory.Store, models.Participant) {
	t.Helper()
	ctx := context.Background()

	s := memory.New()
	s.AddProject(models.Project{
		ID:             "p1",
		Title:          "Garden",
		CreatedByID:    mentor.ID,
		Municipality:   "Oslo",
		SkillsRequired: []string{"gardening"},
	})
	p, err := s.CreateParticipant(ctx, models.Participant{ProjectID: "p1", UserID: "u1", Status: status, HoursCompleted: 12})
	require.NoError(t, err)

	return NewIssuer(s, nil), s, p
}

func TestHash(t *testing.T) {
	nonce := uuid.MustParse("6f1c1d7e-3b7a-4c61-8a4e-7f2b9a1c0d11")
	p := models.Participant{ID: "a1", UserID: "u1", ProjectID: "p1"}

	h := Hash(nonce, p)
	assert.Len(t, h, 64)
	assert.Equal(t, h, Hash(nonce, p))
	assert.NotEqual(t, h, Hash(uuid.New(), p))
}

func TestIssue(t *testing.T) {
	ctx := context.Background()

	t.Run("should issue for completed participation", func(t *testing.T) {
		issuer, _, p := setup(t, models.ParticipantStatusCompleted)

		cert, err := issuer.Issue(ctx, mentor, p.ID, IssueInput{OutcomeDescription: "Built raised beds"})
		require.NoError(t, err)
		assert.Equal(t, "u1", cert.UserID)
		assert.Equal(t, "mentor", cert.MentorID)
		assert.Equal(t, 12.0, cert.HoursContributed)
		assert.Equal(t, []string{"gardening"}, cert.SkillsValidated)
		assert.Equal(t, "Garden", cert.ProjectTitle)

		verified, err := issuer.Verify(ctx, cert.CertificateHash)
		require.NoError(t, err)
		assert.Equal(t, cert.ID, verified.ID)
	})

	t.Run("should refuse unfinished participation", func(t *testing.T) {
		issuer, _, p := setup(t, models.ParticipantStatusAccepted)

		_, err := issuer.Issue(ctx, mentor, p.ID, IssueInput{})
		assert.ErrorIs(t, err, ErrNotCompleted)
	})

	t.Run("should refuse unrelated users", func(t *testing.T) {
		issuer, _, p := setup(t, models.ParticipantStatusCompleted)

		_, err := issuer.Issue(ctx, models.Profile{ID: "x", Role: models.RoleVolunteer}, p.ID, IssueInput{})
		assert.ErrorIs(t, err, lifecycle.ErrForbidden)
	})
}

func TestVerifyUnknown(t *testing.T) {
	issuer, _, _ := setup(t, models.ParticipantStatusCompleted)

	_, err := issuer.Verify(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = issuer.Verify(context.Background(), "  ")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
