package kommo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/edconsult-leads/internal/entity"
	"go.uber.org/zap"
)

func sampleLead() entity.Lead {
	return entity.Lead{
		ID:                "lead-1",
		Name:              "Jane Doe",
		Email:             "jane@x.com",
		Phone:             "+8801234567890",
		CountryOfInterest: "UK",
		ProgramType:       entity.ProgramMasters,
		Tracking:          entity.Attribution{UTMSource: "facebook"},
	}
}

type fakeKommo struct {
	mu       sync.Mutex
	existing bool
	contacts []contactRequest
	leads    []leadRequest
}

func (f *fakeKommo) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/contacts":
			assert.Equal(t, "+8801234567890", r.URL.Query().Get("query"))
			if !f.existing {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			_, _ = w.Write([]byte(`{"_embedded":{"contacts":[{"id":7}]}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/contacts":
			var req []contactRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			f.contacts = append(f.contacts, req...)
			_, _ = w.Write([]byte(`{"_embedded":{"contacts":[{"id":42}]}}`))
		case r.Method == http.MethodPost && r.URL.Path == "/leads":
			var req []leadRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			f.leads = append(f.leads, req...)
			_, _ = w.Write([]byte(`{"_embedded":{"leads":[{"id":1001}]}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func TestNotifyNewLead_CreatesContactAndLead(t *testing.T) {
	fake := &fakeKommo{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", WithPipeline(5, 9), WithLogger(zap.NewNop()))
	require.NoError(t, c.NotifyNewLead(sampleLead()))

	require.Len(t, fake.contacts, 1)
	assert.Equal(t, "Jane Doe", fake.contacts[0].Name)
	require.Len(t, fake.leads, 1)
	assert.Equal(t, "Jane Doe - Masters UK", fake.leads[0].Name)
	assert.Equal(t, 5, fake.leads[0].PipelineID)
	assert.Equal(t, 9, fake.leads[0].StatusID)
	assert.Equal(t, []entityRef{{ID: 42}}, fake.leads[0].Embedded.Contacts)
	assert.Contains(t, fake.leads[0].Embedded.Tags, tag{Name: "facebook"})
}

func TestNotifyNewLead_ReusesExistingContact(t *testing.T) {
	fake := &fakeKommo{existing: true}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	require.NoError(t, NewClient(srv.URL, "tok", WithLogger(zap.NewNop())).NotifyNewLead(sampleLead()))

	assert.Empty(t, fake.contacts)
	require.Len(t, fake.leads, 1)
	assert.Equal(t, []entityRef{{ID: 7}}, fake.leads[0].Embedded.Contacts)
}

func TestNotifyNewLead_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"title":"Unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "tok", WithLogger(zap.NewNop())).NotifyNewLead(sampleLead())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestNotifyNewLead_DisabledIsNoop(t *testing.T) {
	assert.NoError(t, NewClient("", "").NotifyNewLead(sampleLead()))
	assert.False(t, NewClient("https://acme.kommo.com/api/v4", "").Enabled())
}
