package postgrest

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/samkraft/samkraft-api/internal/models"
	"github.com/samkraft/samkraft-api/internal/store"
)

type recorded struct {
	Method string
	Path   string
	Query  map[string][]string
	Header http.Header
	Body   map[string]any
}

func newTestClient(t *testing.T, pageSize int, handler http.HandlerFunc) (*Client, *[]recorded) {
	t.Helper()

	var mu sync.Mutex
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Header: r.Header.Clone()}
		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				_ = json.Unmarshal(data, &rec.Body)
			}
		}
		mu.Lock()
		calls = append(calls, rec)
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{URL: srv.URL, ServiceKey: "service-key", PageSize: pageSize}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return c, &calls
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{ServiceKey: "k"}, nil)
	assert.Error(t, err)

	_, err = New(Config{URL: "https://x.supabase.co"}, nil)
	assert.Error(t, err)

	c, err := New(Config{URL: "https://x.supabase.co/", ServiceKey: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://x.supabase.co/rest/v1", c.APIURL)
}

func TestListProjectsPagesAndNormalizes(t *testing.T) {
	rows := make([]map[string]any, 5)
	for i := range rows {
		rows[i] = map[string]any{
			"id":               strconv.Itoa(i),
			"creator_id":       "u1",
			"municipality":     "Oslo",
			"max_participants": "10",
			"skills_required":  nil,
		}
	}

	c, calls := newTestClient(t, 2, func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		end := min(offset+limit, len(rows))
		writeJSON(w, http.StatusOK, rows[offset:end])
	})

	projects, err := c.ListProjects(context.Background(), store.ProjectQuery{Status: "active", Municipality: "Oslo"})
	require.NoError(t, err)
	require.Len(t, projects, 5)
	assert.Equal(t, "u1", projects[0].CreatedByID)
	assert.Equal(t, "Oslo", projects[4].Municipality)
	assert.Equal(t, 10, projects[2].MaxParticipants)
	assert.Equal(t, []string{}, projects[1].SkillsRequired)

	require.Len(t, *calls, 4)
	first := (*calls)[0]
	assert.Equal(t, "/rest/v1/projects", first.Path)
	assert.Equal(t, []string{"eq.active"}, first.Query["status"])
	assert.Equal(t, []string{"eq.Oslo"}, first.Query["location_municipality"])
	assert.Equal(t, []string{"created_at.desc"}, first.Query["order"])
	assert.Equal(t, "service-key", first.Header.Get("apikey"))
	assert.Equal(t, "Bearer service-key", first.Header.Get("Authorization"))
	assert.Equal(t, "4", (*calls)[2].Query["offset"][0])
	assert.Equal(t, "5", (*calls)[3].Query["offset"][0])
}

func TestListProjectsFollowsServerCappedPages(t *testing.T) {
	const total, maxRows = 7, 3
	rows := make([]map[string]any, total)
	for i := range rows {
		rows[i] = map[string]any{"id": strconv.Itoa(i)}
	}

	c, calls := newTestClient(t, 100, func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		end := min(offset+min(limit, maxRows), total)
		if offset >= total {
			writeJSON(w, http.StatusOK, []any{})
			return
		}
		writeJSON(w, http.StatusOK, rows[offset:end])
	})

	projects, err := c.ListProjects(context.Background(), store.ProjectQuery{})
	require.NoError(t, err)
	require.Len(t, projects, total)
	assert.Equal(t, "6", projects[6].ID)

	offsets := make([]string, 0, len(*calls))
	for _, call := range *calls {
		offsets = append(offsets, call.Query["offset"][0])
	}
	assert.Equal(t, []string{"0", "3", "6", "7"}, offsets)

	limited, err := c.ListProjects(context.Background(), store.ProjectQuery{Limit: 5})
	require.NoError(t, err)
	assert.Len(t, limited, 5)
}

func TestListProjectsRespectsLimit(t *testing.T) {
	c, calls := newTestClient(t, 100, func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		rows := make([]map[string]any, limit)
		for i := range rows {
			rows[i] = map[string]any{"id": strconv.Itoa(i)}
		}
		writeJSON(w, http.StatusOK, rows)
	})

	projects, err := c.ListProjects(context.Background(), store.ProjectQuery{Limit: store.DefaultListLimit})
	require.NoError(t, err)
	assert.Len(t, projects, store.DefaultListLimit)
	require.Len(t, *calls, 1)
	assert.Equal(t, "50", (*calls)[0].Query["limit"][0])
}

func TestListProjectsPublicVisibility(t *testing.T) {
	c, calls := newTestClient(t, 10, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	})

	_, err := c.ListProjects(context.Background(), store.ProjectQuery{Visibility: models.VisibilityPublic, Limit: 5})
	require.NoError(t, err)
	require.Len(t, *calls, 1)
	assert.Equal(t, []string{"(visibility.eq.public,visibility.is.null)"}, (*calls)[0].Query["or"])
	assert.Empty(t, (*calls)[0].Query["visibility"])

	_, err = c.ListProjects(context.Background(), store.ProjectQuery{Visibility: "private"})
	require.NoError(t, err)
	assert.Equal(t, []string{"eq.private"}, (*calls)[1].Query["visibility"])
}

func TestListProjectRoles(t *testing.T) {
	c, calls := newTestClient(t, 10, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "0" {
			writeJSON(w, http.StatusOK, []any{})
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": "r1", "project_id": "p1", "role_name": "Cook", "slots_total": 3, "skills_required": []any{"cooking"}},
		})
	})

	roles, err := c.ListProjectRoles(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "Cook", roles[0].RoleName)
	assert.Equal(t, 3, roles[0].SlotsTotal)
	assert.Equal(t, []string{"cooking"}, roles[0].SkillsRequired)

	call := (*calls)[0]
	assert.Equal(t, "/rest/v1/project_roles", call.Path)
	assert.Equal(t, []string{"eq.p1"}, call.Query["project_id"])
	assert.Equal(t, []string{"created_at.asc"}, call.Query["order"])
}

func TestGetProjectNotFound(t *testing.T) {
	c, _ := newTestClient(t, 10, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	})

	_, err := c.GetProject(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestBackendErrorIsReturned(t *testing.T) {
	c, _ := newTestClient(t, 10, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": "PGRST100", "message": "bad filter"})
	})

	_, err := c.ListSkills(context.Background(), "")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "PGRST100", apiErr.Code)
	assert.Contains(t, err.Error(), "bad filter")
}

func TestGzipResponse(t *testing.T) {
	c, _ := newTestClient(t, 10, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "0" {
			writeJSON(w, http.StatusOK, []any{})
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		w.WriteHeader(http.StatusOK)
		gz := gzip.NewWriter(w)
		_ = json.NewEncoder(gz).Encode([]map[string]any{{"id": "m1", "name": "Oslo", "active": true}})
		_ = gz.Close()
	})

	municipalities, err := c.ListMunicipalities(context.Background())
	require.NoError(t, err)
	require.Len(t, municipalities, 1)
	assert.Equal(t, "Oslo", municipalities[0].Name)
}

func TestCreateParticipantSendsRepresentation(t *testing.T) {
	c, calls := newTestClient(t, 10, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, []map[string]any{{
			"id":              "a1",
			"project_id":      "p1",
			"user_id":         "u1",
			"status":          "pending",
			"hours_completed": 0,
		}})
	})

	p, err := c.CreateParticipant(context.Background(), models.Participant{
		ProjectID: "p1",
		UserID:    "u1",
		Role:      "volunteer",
		Status:    models.ParticipantStatusPending,
	})
	require.NoError(t, err)
	assert.Equal(t, "a1", p.ID)
	assert.Equal(t, models.ParticipantStatusPending, p.Status)

	call := (*calls)[0]
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/rest/v1/project_participants", call.Path)
	assert.Equal(t, "return=representation", call.Header.Get("Prefer"))
	assert.Equal(t, "pending", call.Body["status"])
	assert.Equal(t, "p1", call.Body["project_id"])
}

func TestUpdateProjectPatch(t *testing.T) {
	c, calls := newTestClient(t, 10, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"id": "p1", "status": "completed", "result_summary": "done"}})
	})

	status := models.ProjectStatusCompleted
	summary := "done"
	p, err := c.UpdateProject(context.Background(), "p1", store.ProjectPatch{Status: &status, ResultSummary: &summary})
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusCompleted, p.Status)

	call := (*calls)[0]
	assert.Equal(t, http.MethodPatch, call.Method)
	assert.Equal(t, []string{"eq.p1"}, call.Query["id"])
	assert.Equal(t, "completed", call.Body["status"])
	assert.NotContains(t, call.Body, "completed_at")
}

func TestGetProfileByUsernameFallsBackToID(t *testing.T) {
	const id = "0b9a3c1e-6a8f-4c57-9d4e-2f1b7a6c5d3e"
	c, calls := newTestClient(t, 10, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "eq."+id {
			writeJSON(w, http.StatusOK, []map[string]any{{"id": id, "email": "kari@example.com"}})
			return
		}
		writeJSON(w, http.StatusOK, []any{})
	})

	profile, err := c.GetProfileByUsername(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, profile.ID)
	assert.Equal(t, "kari", profile.Username)
	assert.Len(t, *calls, 2)

	_, err = c.GetProfileByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetCertificateByHashQuery(t *testing.T) {
	c, calls := newTestClient(t, 10, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{
			"id":               "c1",
			"certificate_hash": "abc",
			"projects":         []any{map[string]any{"title": "Garden"}},
			"holder":           map[string]any{"id": "u1", "first_name": "Kari", "username": "kari"},
			"mentor":           nil,
		}})
	})

	cert, err := c.GetCertificateByHash(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Garden", cert.ProjectTitle)
	require.NotNil(t, cert.Holder)
	assert.Equal(t, "Kari", cert.Holder.FullName)
	assert.Nil(t, cert.Mentor)

	call := (*calls)[0]
	assert.Equal(t, []string{"is.null"}, call.Query["revoked_at"])
	assert.Equal(t, []string{"eq.abc"}, call.Query["certificate_hash"])
}
