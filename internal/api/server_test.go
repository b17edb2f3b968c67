package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/samkraft/samkraft-api/internal/applications"
	"github.com/samkraft/samkraft-api/internal/auth"
	"github.com/samkraft/samkraft-api/internal/captcha"
	"github.com/samkraft/samkraft-api/internal/certificates"
	"github.com/samkraft/samkraft-api/internal/models"
	"github.com/samkraft/samkraft-api/internal/projects"
	"github.com/samkraft/samkraft-api/internal/store/memory"
)

const testSecret = "test-secret"

var (
	volunteerID = "3f1c9a52-6a53-4c55-9d9f-7b0a5e2f7a10"
	adminID     = "a7d2e4c1-2b8f-4f3e-8c3d-1e5f9b6a0c22"
)

type fixture struct {
	server  *Server
	store   *memory.Store
	tokens  map[string]string
	turnOut string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	s := memory.New()
	s.AddProfile(models.Profile{ID: volunteerID, Username: "kari", FullName: "Kari", Role: models.RoleVolunteer, Municipality: "Oslo", Visibility: models.VisibilityPublic})
	s.AddProfile(models.Profile{ID: adminID, Username: "admin", FullName: "Admin", Role: models.RoleMunicipalityAdmin, Municipality: "Oslo"})
	s.AddUserSkill(volunteerID, "go", 3)
	s.AddMunicipality(models.Municipality{Name: "Oslo", Active: true})

	now := time.Now()
	s.AddProject(models.Project{
		ID: "near", Title: "Near", Status: models.ProjectStatusActive, Visibility: models.VisibilityPublic,
		CreatedByID: adminID, Municipality: "Oslo", CategoryPrimary: "tech",
		MaxParticipants: 5, SkillsRequired: []string{"go"}, CreatedAt: now.Add(-time.Hour),
	})
	s.AddProject(models.Project{
		ID: "full", Title: "Full", Status: models.ProjectStatusActive, Visibility: models.VisibilityPublic,
		CreatedByID: adminID, Municipality: "Bergen", CategoryPrimary: "tech",
		MaxParticipants: 5, CurrentParticipants: 5, CreatedAt: now,
	})

	f := &fixture{store: s, tokens: map[string]string{}}

	turnstile := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(f.turnOut))
	}))
	t.Cleanup(turnstile.Close)

	l := zap.NewNop()
	authn, err := auth.New(testSecret, s, l)
	require.NoError(t, err)

	f.server = New(Config{}, Deps{
		Store:    s,
		Projects: projects.NewService(s, l, projects.Options{}),
		Recorder: applications.NewRecorder(s, applications.RejectOpen, l),
		Issuer:   certificates.NewIssuer(s, l),
		Captcha:  captcha.New(captcha.Config{Secret: "secret", Endpoint: turnstile.URL}, l),
		Auth:     authn,
	}, l)

	for _, id := range []string{volunteerID, adminID} {
		token, err := auth.Sign(testSecret, id, time.Hour)
		require.NoError(t, err)
		f.tokens[id] = token
	}
	return f
}

func (f *fixture) do(t *testing.T, method, path, as, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+f.tokens[as])
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodGet, "/api/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, serviceName, data["service"])
	assert.Equal(t, "connected", data["database"])
}

func TestListProjects(t *testing.T) {
	f := newFixture(t)

	t.Run("should list active projects newest first", func(t *testing.T) {
		rec, body := f.do(t, http.MethodGet, "/api/projects", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["success"])
		assert.EqualValues(t, 2, body["count"])
		items := body["data"].([]any)
		assert.Equal(t, "full", items[0].(map[string]any)["id"])
	})

	t.Run("should filter by municipality", func(t *testing.T) {
		_, body := f.do(t, http.MethodGet, "/api/projects?municipality=Oslo", "", "")
		assert.EqualValues(t, 1, body["count"])
	})

	t.Run("should reject unknown status", func(t *testing.T) {
		rec, body := f.do(t, http.MethodGet, "/api/projects?status=bogus", "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, false, body["success"])
	})
}

func TestGetProject(t *testing.T) {
	f := newFixture(t)
	f.store.AddProjectRole(models.ProjectRole{ProjectID: "near", RoleName: "Mentor", SkillsRequired: []string{"go"}, SlotsTotal: 2})

	t.Run("should embed project roles", func(t *testing.T) {
		rec, body := f.do(t, http.MethodGet, "/api/projects/near", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		data := body["data"].(map[string]any)
		assert.Equal(t, "near", data["id"])
		assert.Equal(t, "Near", data["title"])
		roles := data["roles"].([]any)
		require.Len(t, roles, 1)
		assert.Equal(t, "Mentor", roles[0].(map[string]any)["role_name"])
		assert.EqualValues(t, 2, roles[0].(map[string]any)["slots_total"])
	})

	t.Run("should return empty roles array", func(t *testing.T) {
		_, body := f.do(t, http.MethodGet, "/api/projects/full", "", "")
		data := body["data"].(map[string]any)
		assert.Equal(t, []any{}, data["roles"])
	})

	rec, body := f.do(t, http.MethodGet, "/api/projects/missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "project not found", body["error"])
}

func TestMatchProjects(t *testing.T) {
	f := newFixture(t)

	t.Run("should require authentication", func(t *testing.T) {
		rec, body := f.do(t, http.MethodGet, "/api/projects/matches", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, false, body["success"])
	})

	t.Run("should rank by match score", func(t *testing.T) {
		rec, body := f.do(t, http.MethodGet, "/api/projects/matches", volunteerID, "")
		require.Equal(t, http.StatusOK, rec.Code)
		items := body["data"].([]any)
		require.Len(t, items, 2)
		first := items[0].(map[string]any)
		assert.EqualValues(t, 100, first["match_score"])
		assert.Equal(t, "near", first["project"].(map[string]any)["id"])
		assert.EqualValues(t, 36, items[1].(map[string]any)["match_score"])
	})

	t.Run("should drop full projects on request", func(t *testing.T) {
		_, body := f.do(t, http.MethodGet, "/api/projects/matches?exclude_full=true", volunteerID, "")
		assert.EqualValues(t, 1, body["count"])
	})

	t.Run("should reject unknown sort policy", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodGet, "/api/projects/matches?sort=random", volunteerID, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCreateProject(t *testing.T) {
	f := newFixture(t)

	t.Run("should validate required fields", func(t *testing.T) {
		rec, body := f.do(t, http.MethodPost, "/api/projects", volunteerID, `{"title":"  "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, body["error"], "title is required")
	})

	t.Run("should put volunteer projects into review", func(t *testing.T) {
		rec, body := f.do(t, http.MethodPost, "/api/projects", volunteerID,
			`{"title":"Garden","category_primary":"environment","location_municipality":"Oslo","max_participants":4}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		data := body["data"].(map[string]any)
		assert.Equal(t, string(models.ProjectStatusPendingReview), data["status"])
		assert.Equal(t, volunteerID, data["created_by_id"])
	})

	t.Run("should activate admin projects", func(t *testing.T) {
		_, body := f.do(t, http.MethodPost, "/api/projects", adminID,
			`{"title":"Library","category_primary":"education","location_municipality":"Oslo"}`)
		assert.Equal(t, string(models.ProjectStatusActive), body["data"].(map[string]any)["status"])
	})
}

func TestChangeProjectStatus(t *testing.T) {
	f := newFixture(t)

	rec, _ := f.do(t, http.MethodPatch, "/api/projects/near/status", volunteerID, `{"status":"completed"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body := f.do(t, http.MethodPatch, "/api/projects/near/status", adminID,
		`{"status":"completed","result_summary":"done"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "completed", data["status"])
	assert.NotEmpty(t, data["completed_at"])

	rec, _ = f.do(t, http.MethodPatch, "/api/projects/near/status", adminID, `{"status":"active"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestApplicationFlow(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/projects/near/applications", volunteerID, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	application := body["data"].(map[string]any)
	assert.Equal(t, "pending", application["status"])
	assert.Equal(t, "volunteer", application["role"])
	id := application["id"].(string)

	rec, _ = f.do(t, http.MethodPost, "/api/projects/near/applications", volunteerID, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/api/projects/missing/applications", volunteerID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, body = f.do(t, http.MethodGet, "/api/me/applications", volunteerID, "")
	assert.EqualValues(t, 1, body["count"])

	rec, _ = f.do(t, http.MethodPatch, "/api/applications/"+id, volunteerID, `{"action":"accept"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = f.do(t, http.MethodPatch, "/api/applications/"+id, adminID, `{"action":"maybe"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = f.do(t, http.MethodPost, "/api/applications/"+id+"/certificates", adminID, `{}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = f.do(t, http.MethodPatch, "/api/applications/"+id, adminID, `{"action":"accept"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = f.do(t, http.MethodPatch, "/api/applications/"+id, adminID, `{"action":"complete","hours_completed":12.5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 12.5, body["data"].(map[string]any)["hours_completed"])

	rec, body = f.do(t, http.MethodPost, "/api/applications/"+id+"/certificates", adminID, `{"skills_validated":["go"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	hash := body["data"].(map[string]any)["certificate_hash"].(string)
	assert.Len(t, hash, 64)

	rec, body = f.do(t, http.MethodGet, "/api/certificates/verify/"+hash, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["valid"])

	rec, body = f.do(t, http.MethodGet, "/api/users/kari/portfolio", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := body["data"].(map[string]any)["stats"].(map[string]any)
	assert.EqualValues(t, 1, stats["total_projects"])
	assert.EqualValues(t, 1, stats["total_certificates"])
	assert.EqualValues(t, 12.5, stats["impact_score"])
}

func TestVerifyCertificateNotFound(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodGet, "/api/certificates/verify/deadbeef", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, false, body["valid"])
}

func TestCatalog(t *testing.T) {
	f := newFixture(t)

	_, body := f.do(t, http.MethodGet, "/api/municipalities", "", "")
	assert.EqualValues(t, 1, body["count"])

	_, body = f.do(t, http.MethodGet, "/api/skills", "", "")
	assert.EqualValues(t, 1, body["count"])
}

func TestPortfolioPrivate(t *testing.T) {
	f := newFixture(t)
	f.store.AddProfile(models.Profile{ID: "8d0a1f7e-5b1c-4e63-9a1a-2c8e4f0b9d33", Username: "hidden", Visibility: "private"})

	rec, _ := f.do(t, http.MethodGet, "/api/users/hidden/portfolio", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVerifyTurnstile(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		body     string
		provider string
		code     int
	}{
		{name: "missing token", body: `{}`, code: http.StatusBadRequest},
		{name: "accepted", body: `{"token":"t"}`, provider: `{"success":true}`, code: http.StatusOK},
		{name: "rejected", body: `{"token":"t"}`, provider: `{"success":false,"error-codes":["invalid-input-response"]}`, code: http.StatusForbidden},
		{name: "broken provider", body: `{"token":"t"}`, provider: `not json`, code: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.turnOut = tt.provider
			rec, body := f.do(t, http.MethodPost, "/api/verify-turnstile", "", tt.body)
			assert.Equal(t, tt.code, rec.Code, fmt.Sprint(body))
			if tt.code == http.StatusForbidden {
				assert.Equal(t, []any{"invalid-input-response"}, body["errors"])
			}
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodGet, "/api/nothing-here", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
}
