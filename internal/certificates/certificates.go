// Package certificates issues and verifies participation certificates.
package certificates

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/samkraft/samkraft-api/internal/lifecycle"
	"github.com/samkraft/samkraft-api/internal/logger"
	"github.com/samkraft/samkraft-api/internal/models"
	"github.com/samkraft/samkraft-api/internal/store"
)

// ErrNotCompleted is returned when a certificate is requested for a participation that is not completed.
var ErrNotCompleted = errors.New("participation is not completed")

type Store interface {
	store.Projects
	store.Participants
	store.Certificates
}

type Issuer struct {
	store  Store
	logger *zap.Logger
	newID  func() uuid.UUID
}

func NewIssuer(s Store, l *zap.Logger) *Issuer {
	return &Issuer{
		store:  s,
		logger: logger.WithFields(l).Named("certificates"),
		newID:  uuid.New,
	}
}

// Hash returns the public hash of a certificate: hex SHA-256 over a random
// nonce and the participation identity.
func Hash(nonce uuid.UUID, p models.Participant) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{nonce.String(), p.ID, p.UserID, p.ProjectID}, ":")))
	return hex.EncodeToString(sum[:])
}

type IssueInput struct {
	SkillsValidated    []string
	OutcomeDescription string
}

// Issue creates a certificate for a completed participation on behalf of actor.
func (i *Issuer) Issue(ctx context.Context, actor models.Profile, participantID string, in IssueInput) (models.Certificate, error) {
	participant, err := i.store.GetParticipant(ctx, participantID)
	if err != nil {
		return models.Certificate{}, err
	}
	project, err := i.store.GetProject(ctx, participant.ProjectID)
	if err != nil {
		return models.Certificate{}, err
	}
	if !lifecycle.CanManage(actor, project) {
		return models.Certificate{}, fmt.Errorf("%w: user %s may not certify participants of project %s",
			lifecycle.ErrForbidden, actor.ID, project.ID)
	}
	if participant.Status != models.ParticipantStatusCompleted {
		return models.Certificate{}, fmt.Errorf("%w: participation %s is %s", ErrNotCompleted, participant.ID, participant.Status)
	}

	skills := in.SkillsValidated
	if len(skills) == 0 {
		skills = project.SkillsRequired
	}

	cert := models.Certificate{
		UserID:             participant.UserID,
		ProjectID:          project.ID,
		CertificateHash:    Hash(i.newID(), participant),
		SkillsValidated:    skills,
		HoursContributed:   participant.HoursCompleted,
		OutcomeDescription: in.OutcomeDescription,
	}
	if actor.Role == models.RoleMentor {
		cert.MentorID = actor.ID
	}

	created, err := i.store.CreateCertificate(ctx, cert)
	if err != nil {
		return models.Certificate{}, err
	}
	created.ProjectTitle = project.Title

	i.logger.Info("certificate issued",
		zap.String(logger.FieldUserID, created.UserID),
		zap.String(logger.FieldProjectID, created.ProjectID),
		zap.String("hash", created.CertificateHash),
	)
	return created, nil
}

// Verify returns the non-revoked certificate with the given hash.
func (i *Issuer) Verify(ctx context.Context, hash string) (models.Certificate, error) {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if hash == "" {
		return models.Certificate{}, store.ErrNotFound
	}

	cert, err := i.store.GetCertificateByHash(ctx, hash)
	if err != nil {
		return models.Certificate{}, err
	}
	if cert.Revoked() {
		return models.Certificate{}, fmt.Errorf("certificate revoked: %w", store.ErrNotFound)
	}
	return cert, nil
}
