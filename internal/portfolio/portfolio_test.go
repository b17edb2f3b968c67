package portfolio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samkraft/samkraft-api/internal/models"
	"github.com/samkraft/samkraft-api/internal/store"
	"github.com/samkraft/samkraft-api/internal/store/memory"
)

func TestBuild(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	user := s.AddProfile(models.Profile{ID: "u1", Username: "kari", FullName: "Kari", Visibility: "public"})
	s.AddProfile(models.Profile{ID: "u2", Username: "hidden", Visibility: "private"})
	s.AddProject(models.Project{ID: "p1", Title: "Garden", CategoryPrimary: "environment"})
	s.AddProject(models.Project{ID: "p2", Title: "Library"})
	s.AddUserSkill(user.ID, "gardening", 4)

	for _, part := range []models.Participant{
		{ProjectID: "p1", UserID: "u1", Status: models.ParticipantStatusCompleted, HoursCompleted: 10},
		{ProjectID: "p2", UserID: "u1", Status: models.ParticipantStatusCompleted, HoursCompleted: 2.5},
		{ProjectID: "p2", UserID: "u1", Status: models.ParticipantStatusAccepted, HoursCompleted: 99},
	} {
		_, err := s.CreateParticipant(ctx, part)
		require.NoError(t, err)
	}
	s.AddCertificate(models.Certificate{UserID: "u1", ProjectID: "p1", CertificateHash: "h1", IssuedAt: time.Now()})
	revoked := time.Now()
	s.AddCertificate(models.Certificate{UserID: "u1", ProjectID: "p2", CertificateHash: "h2", RevokedAt: &revoked})

	t.Run("should assemble public portfolio", func(t *testing.T) {
		p, err := Build(ctx, s, "kari")
		require.NoError(t, err)

		assert.Equal(t, "Kari", p.User.FullName)
		assert.Len(t, p.Projects, 2)
		assert.Len(t, p.Certificates, 1)
		assert.Equal(t, "gardening", p.Skills[0].Name)
		assert.Equal(t, Stats{TotalProjects: 2, TotalCertificates: 1, TotalSkills: 1, ImpactScore: 12.5}, p.Stats)
	})

	t.Run("should hide private profiles", func(t *testing.T) {
		_, err := Build(ctx, s, "hidden")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("should report unknown users", func(t *testing.T) {
		_, err := Build(ctx, s, "nobody")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}
