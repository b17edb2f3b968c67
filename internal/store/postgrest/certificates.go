package postgrest

import (
	"context"
	"fmt"

	"github.com/samkraft/samkraft-api/internal/models"
)

const (
	certificatesTable = "certificates"

	certificateColumns = "*,projects(title)," +
		"holder:users!user_id(id,full_name,first_name,username)," +
		"mentor:users!mentor_id(id,full_name,first_name,username)"
)

func (c *Client) CreateCertificate(ctx context.Context, cert models.Certificate) (models.Certificate, error) {
	body := map[string]any{
		"user_id":           cert.UserID,
		"project_id":        cert.ProjectID,
		"certificate_hash":  cert.CertificateHash,
		"skills_validated":  nonNil(cert.SkillsValidated),
		"hours_contributed": cert.HoursContributed,
	}
	if cert.MentorID != "" {
		body["mentor_id"] = cert.MentorID
	}
	if cert.OutcomeDescription != "" {
		body["outcome_description"] = cert.OutcomeDescription
	}

	row, err := c.insert(ctx, certificatesTable, body, nil)
	if err != nil {
		return models.Certificate{}, fmt.Errorf("creating certificate: %w", err)
	}

	return models.NormalizeCertificate(row)
}

// GetCertificateByHash returns a non-revoked certificate.
func (c *Client) GetCertificateByHash(ctx context.Context, hash string) (models.Certificate, error) {
	query := newQuery().
		Select(certificateColumns).
		Eq("certificate_hash", hash).
		IsNull("revoked_at")

	row, err := c.getOne(ctx, certificatesTable, query.Values())
	if err != nil {
		return models.Certificate{}, fmt.Errorf("getting certificate: %w", err)
	}

	return models.NormalizeCertificate(row)
}

func (c *Client) ListCertificates(ctx context.Context, userID string) ([]models.Certificate, error) {
	query := newQuery().
		Select("*,projects(title)").
		Eq("user_id", userID).
		IsNull("revoked_at").
		Order("issued_at", true)

	rows, err := c.GetItems(ctx, certificatesTable, query.Values(), 0)
	if err != nil {
		return nil, fmt.Errorf("listing certificates of user %s: %w", userID, err)
	}

	out := make([]models.Certificate, 0, len(rows))
	for _, row := range rows {
		cert, err := models.NormalizeCertificate(row)
		if err != nil {
			return nil, err
		}
		out = append(out, cert)
	}
	return out, nil
}
