package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/edconsult-leads/internal/entity"
	"github.com/xavierca1/edconsult-leads/internal/infra/http/handlers"
	"github.com/xavierca1/edconsult-leads/internal/infra/memory"
	"github.com/xavierca1/edconsult-leads/internal/usecase"
)

func seedLead(t *testing.T, repo *memory.LeadRepository) string {
	t.Helper()
	lead := &entity.Lead{
		Name:              "Jane Doe",
		Email:             "jane@x.com",
		Phone:             "+8801234567890",
		CountryOfInterest: "UK",
		ProgramType:       entity.ProgramMasters,
		CreatedAt:         time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), lead))
	return lead.ID
}

func patchStatus(h http.Handler, id, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPatch, "/admin/leads/"+id+"/status", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUpdateStatus_OK(t *testing.T) {
	repo := memory.NewLeadRepository()
	id := seedLead(t, repo)

	rec := patchStatus(newRouter(repo), id, `{"status":"Contacted","reason":"called back"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out usecase.UpdateLeadStatusOutput
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &out))
	assert.Equal(t, id, out.ID)
	assert.Equal(t, entity.StatusNew, out.PreviousStatus)
	assert.Equal(t, entity.StatusContacted, out.Status)

	stored, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusContacted, stored.Status)
	assert.Len(t, stored.Timeline, 2)
}

func TestUpdateStatus_Errors(t *testing.T) {
	repo := memory.NewLeadRepository()
	id := seedLead(t, repo)
	h := newRouter(repo)

	rec := patchStatus(h, "missing", `{"status":"Contacted"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec).Code)

	rec = patchStatus(h, id, `{"status":"Archived"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decode(t, rec).Code)

	rec = patchStatus(h, id, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return assert.AnError }

	rec := httptest.NewRecorder()
	handlers.NewHealthHandler("1.2.3", map[string]handlers.Check{"store": ok, "queue": nil}).
		Handle(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, "healthy", resp.Dependencies["store"])
	assert.Equal(t, "not configured", resp.Dependencies["queue"])

	rec = httptest.NewRecorder()
	handlers.NewHealthHandler("1.2.3", map[string]handlers.Check{"store": down}).
		Handle(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "unhealthy", resp.Dependencies["store"])
}
