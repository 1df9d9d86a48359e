package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustplane/internal/admin"
	compliancehandler "trustplane/internal/compliance/handler"
	compliancemodels "trustplane/internal/compliance/models"
	complianceservice "trustplane/internal/compliance/service"
	compliancestore "trustplane/internal/compliance/store"
	credentialhandler "trustplane/internal/credential/handler"
	credentialmodels "trustplane/internal/credential/models"
	credentialservice "trustplane/internal/credential/service"
	credentialstore "trustplane/internal/credential/store"
	"trustplane/internal/platform/metrics"
	"trustplane/internal/risk"
	riskhandler "trustplane/internal/risk/handler"
	riskservice "trustplane/internal/risk/service"
	id "trustplane/pkg/domain"
	"trustplane/pkg/platform/audit/publisher"
	auditmemory "trustplane/pkg/platform/audit/store/memory"
	adminmw "trustplane/pkg/platform/middleware/admin"
)

type testServer struct {
	handler  http.Handler
	subject  id.SubjectID
	merchant id.SubjectID
	token    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	reg := prometheus.NewRegistry()

	pub := publisher.NewPublisher(auditmemory.NewInMemoryStore())
	t.Cleanup(func() { _ = pub.Close() })

	subject := id.SubjectID(uuid.New())
	merchant := id.SubjectID(uuid.New())
	subjects := compliancestore.NewInMemoryStore()
	subjects.Seed(compliancemodels.DataBundle{
		Subject: compliancemodels.Profile{ID: subject, Email: "mo@example.com", EmailVerified: true},
	})
	subjects.Seed(compliancemodels.DataBundle{
		Subject: compliancemodels.Profile{ID: merchant, Email: "shop@example.com", EmailVerified: true},
	})

	credStore := credentialstore.NewInMemoryStore()
	creds, err := credentialservice.New(credStore,
		credentialservice.Config{Prefix: "tp", Length: 32, HashSalt: "pepper"},
		credentialservice.WithAuditRecorder(pub),
		credentialservice.WithOwnerDirectory(subjects))
	require.NoError(t, err)

	risks, err := riskservice.New(subjects, risk.NewEngine(risk.Config{}), riskservice.WithAuditRecorder(pub))
	require.NoError(t, err)

	compliance, err := complianceservice.New(subjects, compliancestore.NewInMemoryTx(), credStore,
		complianceservice.Config{}, complianceservice.WithAuditRecorder(pub))
	require.NoError(t, err)

	tokens := adminmw.NewTokenValidator("signing-key", "trustplane")
	token, err := tokens.Issue("ops-alice", time.Hour, time.Now())
	require.NoError(t, err)

	h := NewRouter(Config{
		Logger:      logger,
		Gatherer:    reg,
		HTTP:        metrics.NewHTTP(reg),
		AdminTokens: tokens,
		APIKeys:     creds,
		Admin: []Registrar{
			credentialhandler.New(creds, logger),
			compliancehandler.New(compliance, logger),
			admin.New(pub, logger),
		},
		Clients: []Registrar{
			riskhandler.New(risks, logger),
		},
		Health: map[string]HealthCheck{
			"database": func(context.Context) error { return nil },
		},
	})
	return &testServer{handler: h, subject: subject, merchant: merchant, token: token}
}

func (s *testServer) do(method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequestWithContext(context.Background(), method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) admin() map[string]string {
	return map[string]string{"Authorization": "Bearer " + s.token}
}

func TestRouter_CredentialCheckoutAndErasure(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodPost, "/admin/credentials",
		`{"owner_id":"`+s.subject.String()+`","name":"storefront"}`, s.admin())
	require.Equal(t, http.StatusCreated, rr.Code)
	var created credentialmodels.Created
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	require.NotEmpty(t, created.Secret)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	checkout := func() *httptest.ResponseRecorder {
		return s.do(http.MethodPost, "/checkout/risk",
			`{"subject_id":"`+s.subject.String()+`","amount":25}`,
			map[string]string{"X-API-Key": created.Secret})
	}
	rr = checkout()
	require.Equal(t, http.StatusOK, rr.Code)
	var decision riskhandler.EvaluateResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&decision))
	assert.Equal(t, string(risk.ActionAllow), decision.Action)

	rr = s.do(http.MethodDelete, "/subjects/"+s.subject.String()+"?mode=purge", "", s.admin())
	require.Equal(t, http.StatusOK, rr.Code)

	rr = checkout()
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "erasure revokes the subject's keys")

	rr = s.do(http.MethodGet, "/admin/audit?subject_id="+s.subject.String(), "", s.admin())
	require.Equal(t, http.StatusOK, rr.Code)
	var trail admin.AuditListResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&trail))
	var actions []string
	for _, e := range trail.Events {
		actions = append(actions, e.Action)
		assert.NotContains(t, e.Details, "secret")
	}
	assert.Contains(t, actions, "credential created")
	assert.Contains(t, actions, "subject data purged")
}

func TestRouter_ErasedSubjectIsUnknownEverywhere(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodPost, "/admin/credentials",
		`{"owner_id":"`+s.merchant.String()+`","name":"pos"}`, s.admin())
	require.Equal(t, http.StatusCreated, rr.Code)
	var created credentialmodels.Created
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))

	checkout := func() riskhandler.EvaluateResponse {
		rr := s.do(http.MethodPost, "/checkout/risk",
			`{"subject_id":"`+s.subject.String()+`","amount":25}`,
			map[string]string{"X-API-Key": created.Secret})
		require.Equal(t, http.StatusOK, rr.Code)
		var decision riskhandler.EvaluateResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&decision))
		return decision
	}
	assert.Equal(t, string(risk.ActionAllow), checkout().Action)

	rr = s.do(http.MethodDelete, "/subjects/"+s.subject.String(), "", s.admin())
	require.Equal(t, http.StatusOK, rr.Code)

	decision := checkout()
	assert.Equal(t, string(risk.ActionBlock), decision.Action)
	assert.Equal(t, []string{risk.ReasonSubjectNotFound}, decision.Reasons)

	rr = s.do(http.MethodPost, "/admin/credentials",
		`{"owner_id":"`+s.subject.String()+`","name":"late"}`, s.admin())
	assert.Equal(t, http.StatusNotFound, rr.Code, "no new keys for an erased subject")
}

func TestRouter_AuthGroups(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/admin/audit", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized,
		s.do(http.MethodGet, "/subjects/"+s.subject.String()+"/export", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized,
		s.do(http.MethodPost, "/checkout/risk", `{}`, map[string]string{"X-API-Key": "tp_" + strings.Repeat("x", 32)}).Code)
	assert.Equal(t, http.StatusUnauthorized,
		s.do(http.MethodPost, "/checkout/risk", `{}`, s.admin()).Code, "admin tokens do not open client routes")
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"database":"ok"`)

	rr = s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "trustplane_http_requests_total")
}

func TestHealthHandler_Degraded(t *testing.T) {
	h := healthHandler(map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
	})
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), `"redis":"unavailable"`)
	assert.NotContains(t, rr.Body.String(), "refused")
}
