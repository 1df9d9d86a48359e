package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustplane/internal/compliance/models"
	"trustplane/internal/compliance/service"
	"trustplane/internal/compliance/store"
	credstore "trustplane/internal/credential/store"
	id "trustplane/pkg/domain"
	"trustplane/pkg/platform/clock"
	"trustplane/pkg/testutil"
)

var testNow = time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) (chi.Router, *store.InMemoryStore) {
	t.Helper()
	subjects := store.NewInMemoryStore()
	svc, err := service.New(subjects, store.NewInMemoryTx(), credstore.NewInMemoryStore(), service.Config{},
		service.WithClock(clock.Fixed(testNow)))
	require.NoError(t, err)

	r := chi.NewRouter()
	New(svc, slog.New(slog.DiscardHandler)).Register(r)
	return r, subjects
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.DoRequest(r, testutil.NewJSONRequest(t, method, path, body))
}

func seed(subjects *store.InMemoryStore) (id.SubjectID, id.OrderID) {
	subject := id.SubjectID(uuid.New())
	orderID := id.OrderID(uuid.New())
	subjects.Seed(models.DataBundle{
		Subject: models.Profile{ID: subject, Email: "lin@example.com"},
		Orders:  []models.Order{{ID: orderID, Reference: "ORD-7", Amount: 12, ItemCount: 1, Status: "paid"}},
	})
	return subject, orderID
}

func TestHandleExport(t *testing.T) {
	r, subjects := newTestRouter(t)
	subject, _ := seed(subjects)

	t.Run("returns the bundle as an attachment", func(t *testing.T) {
		rr := do(t, r, http.MethodGet, "/subjects/"+subject.String()+"/export", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Header().Get("Content-Disposition"), subject.String())

		bundle := testutil.UnmarshalResponse[models.DataBundle](t, rr)
		assert.Equal(t, "lin@example.com", bundle.Subject.Email)
		assert.Len(t, bundle.Orders, 1)
		assert.NotNil(t, bundle.Credentials)
		assert.True(t, bundle.ExportedAt.Equal(testNow))
	})

	t.Run("unknown subject is 404", func(t *testing.T) {
		rr := do(t, r, http.MethodGet, "/subjects/"+uuid.NewString()+"/export", nil)
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		rr := do(t, r, http.MethodGet, "/subjects/not-a-uuid/export", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandleErase(t *testing.T) {
	t.Run("default mode anonymizes", func(t *testing.T) {
		r, subjects := newTestRouter(t)
		subject, orderID := seed(subjects)

		rr := do(t, r, http.MethodDelete, "/subjects/"+subject.String(), nil)
		require.Equal(t, http.StatusOK, rr.Code)

		resp := testutil.UnmarshalResponse[EraseResponse](t, rr)
		assert.Equal(t, "anonymize", resp.Mode)
		assert.Equal(t, 1, resp.Counts["orders"])

		order, err := subjects.FindOrder(context.Background(), orderID)
		require.NoError(t, err)
		assert.Equal(t, models.Tombstone(testNow), order.Reference)
	})

	t.Run("purge removes orders", func(t *testing.T) {
		r, subjects := newTestRouter(t)
		subject, orderID := seed(subjects)

		rr := do(t, r, http.MethodDelete, "/subjects/"+subject.String()+"?mode=purge", nil)
		require.Equal(t, http.StatusOK, rr.Code)

		_, err := subjects.FindOrder(context.Background(), orderID)
		assert.ErrorIs(t, err, store.ErrNotFound)

		rr = do(t, r, http.MethodGet, "/subjects/"+subject.String()+"/export", nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("unknown mode is 400", func(t *testing.T) {
		r, subjects := newTestRouter(t)
		subject, _ := seed(subjects)

		rr := do(t, r, http.MethodDelete, "/subjects/"+subject.String()+"?mode=shred", nil)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
	})
}

func TestHandleConsent(t *testing.T) {
	r, subjects := newTestRouter(t)
	subject, _ := seed(subjects)
	path := "/subjects/" + subject.String() + "/consent"

	rr := do(t, r, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, testutil.UnmarshalResponse[models.ConsentStatus](t, rr).Required)

	rr = do(t, r, http.MethodPut, path, `{"analytics":true,"cookies":true}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, r, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	status := testutil.UnmarshalResponse[models.ConsentStatus](t, rr)
	assert.False(t, status.Required)
	require.NotNil(t, status.Preferences)
	assert.True(t, status.Preferences.Necessary)
	assert.True(t, status.Preferences.Analytics)
	assert.False(t, status.Preferences.Marketing)

	t.Run("necessary cannot be sent", func(t *testing.T) {
		rr := do(t, r, http.MethodPut, path, `{"necessary":false}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
